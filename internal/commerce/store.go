package commerce

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors for repository operations.
var (
	// ErrUserNotFound indicates the user id does not resolve.
	ErrUserNotFound = errors.New("user not found")

	// ErrItemNotFound indicates the item id does not resolve.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidQuantity indicates a non-positive cart quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Store is the process-wide commerce repository.
//
// Access from the conversation loop is single-threaded, but the store is
// still guarded by a RWMutex so a future multi-session caller cannot
// observe a torn cart-to-order transition.
type Store struct {
	mu     sync.RWMutex
	users  []User
	items  []Item
	cart   []CartLine
	orders []Order

	now func() time.Time
}

// Seed is the initial repository contents.
type Seed struct {
	Users  []User
	Items  []Item
	Cart   []CartLine
	Orders []Order
}

// NewStore creates a repository populated from seed. The seed slices are
// copied; callers cannot mutate repository state afterwards.
func NewStore(seed Seed) *Store {
	s := &Store{
		users:  append([]User(nil), seed.Users...),
		items:  append([]Item(nil), seed.Items...),
		cart:   append([]CartLine(nil), seed.Cart...),
		orders: make([]Order, 0, len(seed.Orders)),
		now:    time.Now,
	}
	for _, o := range seed.Orders {
		o.Lines = append([]OrderLine(nil), o.Lines...)
		s.orders = append(s.orders, o)
	}
	return s
}

// User returns the user with the given id.
func (s *Store) User(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.users {
		if s.users[i].ID == id {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", id, ErrUserNotFound)
}

// Item returns the catalog item with the given id.
func (s *Store) Item(id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if it := s.itemLocked(id); it != nil {
		cp := *it
		return &cp, nil
	}
	return nil, fmt.Errorf("item %q: %w", id, ErrItemNotFound)
}

// itemLocked returns a pointer into the item table. Callers must hold mu.
func (s *Store) itemLocked(id string) *Item {
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i]
		}
	}
	return nil
}

// ListItems returns one page of the catalog in catalog order.
// Pages are 1-based; out-of-range pages yield an empty slice.
func (s *Store) ListItems(page, limit int) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return paginate(s.items, page, limit)
}

// SearchItems returns catalog items matching the query: exact id match,
// case-insensitive exact SKU match, or case-insensitive substring match on
// the name. Results keep catalog order and are paginated like ListItems.
func (s *Store) SearchItems(query string, page, limit int) []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(query)
	var matched []Item
	for _, it := range s.items {
		if it.ID == query ||
			strings.EqualFold(it.SKU, query) ||
			strings.Contains(strings.ToLower(it.Name), lower) {
			matched = append(matched, it)
		}
	}
	return paginate(matched, page, limit)
}

// Cart returns the user's cart with item-enriched lines and a total computed
// over current item prices. A line whose item no longer exists keeps a nil
// Item and contributes zero to the total.
func (s *Store) Cart(userID string) CartView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.cartLocked(userID)
}

func (s *Store) cartLocked(userID string) CartView {
	view := CartView{Lines: []CartLineView{}}
	for _, line := range s.cart {
		if line.UserID != userID {
			continue
		}
		lv := CartLineView{CartLine: line}
		if it := s.itemLocked(line.ItemID); it != nil {
			cp := *it
			lv.Item = &cp
			view.Total += cp.Price * float64(line.Quantity)
		}
		view.Lines = append(view.Lines, lv)
	}
	return view
}

// AddToCart merges quantity into the user's existing line for the item, or
// creates a new line. The item must exist and quantity must be positive.
func (s *Store) AddToCart(userID, itemID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity %d: %w", quantity, ErrInvalidQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.itemLocked(itemID) == nil {
		return fmt.Errorf("item %q: %w", itemID, ErrItemNotFound)
	}

	for i := range s.cart {
		if s.cart[i].UserID == userID && s.cart[i].ItemID == itemID {
			s.cart[i].Quantity += quantity
			return nil
		}
	}

	s.cart = append(s.cart, CartLine{
		ID:       uuid.NewString(),
		UserID:   userID,
		ItemID:   itemID,
		Quantity: quantity,
	})
	return nil
}

// RemoveFromCart removes the user's line for the item. Removing a line that
// does not exist is a no-op.
func (s *Store) RemoveFromCart(userID, itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cart {
		if s.cart[i].UserID == userID && s.cart[i].ItemID == itemID {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			return
		}
	}
}

// EmptyCart removes all of the user's cart lines. Idempotent.
func (s *Store) EmptyCart(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emptyCartLocked(userID)
}

func (s *Store) emptyCartLocked(userID string) {
	kept := s.cart[:0]
	for _, line := range s.cart {
		if line.UserID != userID {
			kept = append(kept, line)
		}
	}
	s.cart = kept
}

// CreateOrder converts the user's current cart into an order: fresh id,
// current timestamp, the cart's total, and one line per cart line with the
// item price snapshotted at this instant. The cart is emptied afterwards.
// The whole transition happens under one lock, so callers never observe an
// order without an emptied cart or vice versa. An empty cart still produces
// an order with zero lines and a zero total.
func (s *Store) CreateOrder(userID string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(userID)

	order := Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Date:   s.now(),
		Total:  cart.Total,
		Lines:  make([]OrderLine, 0, len(cart.Lines)),
	}
	for _, lv := range cart.Lines {
		line := OrderLine{ItemID: lv.ItemID, Quantity: lv.Quantity}
		if lv.Item != nil {
			line.Price = lv.Item.Price
		}
		order.Lines = append(order.Lines, line)
	}

	s.orders = append(s.orders, order)
	s.emptyCartLocked(userID)

	cp := order
	cp.Lines = append([]OrderLine(nil), order.Lines...)
	return &cp, nil
}

// Orders returns one page of the user's order history, optionally filtered
// to orders dated strictly between the range bounds. Lines are enriched
// with the current catalog item for display; the stored price snapshot on
// each line remains authoritative.
func (s *Store) Orders(userID string, page, limit int, dateRange *DateRange) []OrderView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Order
	for _, o := range s.orders {
		if o.UserID != userID {
			continue
		}
		if dateRange != nil && !dateRange.Contains(o.Date) {
			continue
		}
		matched = append(matched, o)
	}

	pageOrders := paginate(matched, page, limit)
	views := make([]OrderView, 0, len(pageOrders))
	for _, o := range pageOrders {
		view := OrderView{
			ID:     o.ID,
			UserID: o.UserID,
			Date:   o.Date,
			Total:  o.Total,
			Lines:  make([]OrderLineView, 0, len(o.Lines)),
		}
		for _, line := range o.Lines {
			lv := OrderLineView{OrderLine: line}
			if it := s.itemLocked(line.ItemID); it != nil {
				cp := *it
				lv.Item = &cp
			}
			view.Lines = append(view.Lines, lv)
		}
		views = append(views, view)
	}
	return views
}

// SetItemPrice updates a catalog item's current price. Existing order lines
// keep their snapshot prices.
func (s *Store) SetItemPrice(itemID string, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	it := s.itemLocked(itemID)
	if it == nil {
		return fmt.Errorf("item %q: %w", itemID, ErrItemNotFound)
	}
	it.Price = price
	return nil
}

// paginate slices s to the 1-based page window [(page-1)*limit, page*limit),
// clipped to the slice bounds. Invalid pages or limits yield an empty slice.
func paginate[T any](s []T, page, limit int) []T {
	if page < 1 || limit < 1 {
		return []T{}
	}
	start := (page - 1) * limit
	if start >= len(s) {
		return []T{}
	}
	end := start + limit
	if end > len(s) {
		end = len(s)
	}
	return append([]T{}, s[start:end]...)
}

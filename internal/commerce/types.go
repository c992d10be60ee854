// Package commerce provides the in-memory commerce repository for fruitbot.
//
// The Store owns all entity tables (users, items, cart lines, orders) and is
// the single authority for their consistency rules: at most one cart line per
// (user, item) pair, snapshot prices on order lines, and an atomic
// cart-to-order transition. All state is process-transient; the repository
// interface is deliberately shaped so a persistent implementation could
// replace it without changing callers.
package commerce

import "time"

// User is a registered customer. Immutable after seeding.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Item is a catalog entry. Immutable after seeding; Price is the
// authoritative current unit price.
type Item struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// CartLine is one (user, item) entry in a cart. Repeated adds for the same
// pair merge by summing Quantity instead of creating a duplicate line.
type CartLine struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// OrderLine records one item of an order. Price is captured at
// order-creation time and never changes, regardless of later catalog edits.
type OrderLine struct {
	ItemID   string  `json:"itemId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order is an immutable entry in a user's order history.
type Order struct {
	ID     string      `json:"id"`
	UserID string      `json:"userId"`
	Date   time.Time   `json:"date"`
	Total  float64     `json:"total"`
	Lines  []OrderLine `json:"items"`
}

// CartLineView is a cart line enriched with its current catalog item.
// Item is nil when the referenced item no longer exists; such lines
// contribute zero to the cart total.
type CartLineView struct {
	CartLine
	Item *Item `json:"itemDetails,omitempty"`
}

// CartView is a user's cart with enriched lines and the total computed over
// current (not snapshotted) item prices.
type CartView struct {
	Lines []CartLineView `json:"items"`
	Total float64        `json:"total"`
}

// OrderLineView is an order line enriched with the current catalog item for
// display. The stored Price snapshot remains authoritative for value; Item
// is informational only and nil when the item no longer exists.
type OrderLineView struct {
	OrderLine
	Item *Item `json:"itemDetails,omitempty"`
}

// OrderView is an order with display-enriched lines.
type OrderView struct {
	ID     string          `json:"id"`
	UserID string          `json:"userId"`
	Date   time.Time       `json:"date"`
	Total  float64         `json:"total"`
	Lines  []OrderLineView `json:"items"`
}

// DateRange filters orders by creation time. Both bounds are exclusive:
// an order matches when Start < order.Date < End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls strictly between the range bounds.
func (r DateRange) Contains(t time.Time) bool {
	return t.After(r.Start) && t.Before(r.End)
}

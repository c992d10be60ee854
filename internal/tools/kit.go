// Package tools provides the fruitbot tool catalog: the fixed set of
// commerce operations the model may invoke, registered with Genkit.
//
// Every tool wraps exactly one commerce repository operation and binds the
// session's logged-in user id implicitly; no tool accepts a userId
// parameter. Parameter schemas are derived from the typed input structs, so
// invalid invocations are rejected by Genkit before a handler runs.
package tools

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/fruitify/fruitbot/internal/commerce"
)

// Tool names registered with Genkit.
const (
	ToolGetUserDetails  = "get-user-details"
	ToolListItems       = "list-items"
	ToolSearchItems     = "search-items"
	ToolGetCart         = "get-cart"
	ToolAddToCart       = "add-to-cart"
	ToolRemoveFromCart  = "remove-from-cart"
	ToolEmptyCart       = "empty-cart"
	ToolCreateOrder     = "create-order"
	ToolGetOrderHistory = "get-order-history"
)

// Model-facing listing defaults. The model can page through the catalog and
// order history but never controls the page size.
const (
	defaultPage  = 1
	defaultLimit = 10
)

// GetUserDetailsInput defines input for get-user-details (none needed).
type GetUserDetailsInput struct{}

// ListItemsInput defines input for list-items.
type ListItemsInput struct {
	Page int `json:"page,omitempty" jsonschema_description:"Optional 1-based catalog page, defaults to 1"`
}

// SearchItemsInput defines input for search-items.
type SearchItemsInput struct {
	Search string `json:"search" jsonschema_description:"Item id, exact SKU, or part of the item name (case-insensitive)"`
}

// GetCartInput defines input for get-cart (none needed).
type GetCartInput struct{}

// AddToCartInput defines input for add-to-cart.
type AddToCartInput struct {
	ItemID   string `json:"itemId" jsonschema_description:"This is uuid of item, not the sku"`
	Quantity int    `json:"quantity" jsonschema_description:"Number of units to add, must be at least 1"`
}

// RemoveFromCartInput defines input for remove-from-cart.
type RemoveFromCartInput struct {
	ItemID string `json:"itemId" jsonschema_description:"This is uuid of item, not the sku"`
}

// EmptyCartInput defines input for empty-cart (none needed).
type EmptyCartInput struct{}

// CreateOrderInput defines input for create-order (none needed).
type CreateOrderInput struct{}

// ToolDateRange is the optional ISO-8601 date filter for get-order-history.
// Both bounds are exclusive.
type ToolDateRange struct {
	Start string `json:"start" jsonschema_description:"Range start, must be a valid ISO date string"`
	End   string `json:"end" jsonschema_description:"Range end, must be a valid ISO date string"`
}

// GetOrderHistoryInput defines input for get-order-history.
type GetOrderHistoryInput struct {
	DateRange *ToolDateRange `json:"dateRange,omitempty" jsonschema_description:"This is optional parameter, must be valid ISO String dates; both bounds are exclusive"`
	Page      int            `json:"page,omitempty" jsonschema_description:"Optional 1-based history page, defaults to 1"`
}

// Kit holds the commerce tool handlers for one logged-in session.
// The user id is captured at construction so tools never carry it as a
// parameter; the underlying repository operations stay user-parameterized.
type Kit struct {
	store  *commerce.Store
	userID string
	logger *slog.Logger
}

// NewKit creates a tool kit bound to the session's user.
func NewKit(store *commerce.Store, userID string, logger *slog.Logger) (*Kit, error) {
	if store == nil {
		return nil, errors.New("commerce store is required")
	}
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Kit{store: store, userID: userID, logger: logger}, nil
}

// Register defines all commerce tools with Genkit and returns them in
// catalog order.
func (k *Kit) Register(g *genkit.Genkit) ([]ai.Tool, error) {
	if g == nil {
		return nil, errors.New("genkit instance is required")
	}

	tools := []ai.Tool{
		genkit.DefineTool(g, ToolGetUserDetails,
			"Get the logged-in user's details: id, name and contact email.",
			k.GetUserDetails),
		genkit.DefineTool(g, ToolListItems,
			"List the item catalog, ten items per page. "+
				"Returns each item's id, SKU, name, description and current unit price.",
			k.ListItems),
		genkit.DefineTool(g, ToolSearchItems,
			"Search for items by id, exact SKU, or part of the item name. "+
				"Matching is case-insensitive and results keep catalog order.",
			k.SearchItems),
		genkit.DefineTool(g, ToolGetCart,
			"Get the current cart: every line with its item details and the cart total "+
				"computed over current prices.",
			k.GetCart),
		genkit.DefineTool(g, ToolAddToCart,
			"Add an item to the cart. Adding an item already in the cart increases that "+
				"line's quantity instead of creating a duplicate line. Returns the updated cart.",
			k.AddToCart),
		genkit.DefineTool(g, ToolRemoveFromCart,
			"Remove an item from the cart. Removing an item that is not in the cart is a "+
				"no-op. Returns the updated cart.",
			k.RemoveFromCart),
		genkit.DefineTool(g, ToolEmptyCart,
			"Remove every item from the cart. Returns the (now empty) cart.",
			k.EmptyCart),
		genkit.DefineTool(g, ToolCreateOrder,
			"Create an order from the current cart. Item prices are captured at this "+
				"moment and the cart is emptied. Returns the created order.",
			k.CreateOrder),
		genkit.DefineTool(g, ToolGetOrderHistory,
			"Get the user's order history, newest pages first by catalog order, optionally "+
				"filtered to orders strictly between an ISO-8601 date range.",
			k.GetOrderHistory),
	}

	k.logger.Info("commerce tools registered", "count", len(tools), "user_id", k.userID)
	return tools, nil
}

// GetUserDetails returns the logged-in user.
func (k *Kit) GetUserDetails(_ *ai.ToolContext, _ GetUserDetailsInput) (Result, error) {
	user, err := k.store.User(k.userID)
	if err != nil {
		// The session user existed at startup; treat disappearance as a
		// recoverable tool error all the same.
		return failure(ErrCodeNotFound, err.Error()), nil
	}
	return success(user), nil
}

// ListItems returns one catalog page.
func (k *Kit) ListItems(_ *ai.ToolContext, input ListItemsInput) (Result, error) {
	page := input.Page
	if page < 1 {
		page = defaultPage
	}
	return success(k.store.ListItems(page, defaultLimit)), nil
}

// SearchItems returns catalog items matching the query.
func (k *Kit) SearchItems(_ *ai.ToolContext, input SearchItemsInput) (Result, error) {
	if input.Search == "" {
		return failure(ErrCodeValidation, "search must not be empty"), nil
	}
	return success(k.store.SearchItems(input.Search, defaultPage, defaultLimit)), nil
}

// GetCart returns the user's current cart.
func (k *Kit) GetCart(_ *ai.ToolContext, _ GetCartInput) (Result, error) {
	return success(k.store.Cart(k.userID)), nil
}

// AddToCart adds quantity of an item to the cart and returns the updated cart.
func (k *Kit) AddToCart(_ *ai.ToolContext, input AddToCartInput) (Result, error) {
	if err := k.store.AddToCart(k.userID, input.ItemID, input.Quantity); err != nil {
		k.logger.Debug("add-to-cart rejected", "item_id", input.ItemID, "quantity", input.Quantity, "error", err)
		switch {
		case errors.Is(err, commerce.ErrItemNotFound):
			return failure(ErrCodeNotFound, err.Error()), nil
		case errors.Is(err, commerce.ErrInvalidQuantity):
			return failure(ErrCodeValidation, err.Error()), nil
		default:
			return failure(ErrCodeExecution, err.Error()), nil
		}
	}
	return success(k.store.Cart(k.userID)), nil
}

// RemoveFromCart removes an item from the cart and returns the updated cart.
func (k *Kit) RemoveFromCart(_ *ai.ToolContext, input RemoveFromCartInput) (Result, error) {
	k.store.RemoveFromCart(k.userID, input.ItemID)
	return success(k.store.Cart(k.userID)), nil
}

// EmptyCart clears the cart and returns it.
func (k *Kit) EmptyCart(_ *ai.ToolContext, _ EmptyCartInput) (Result, error) {
	k.store.EmptyCart(k.userID)
	return success(k.store.Cart(k.userID)), nil
}

// CreateOrder converts the cart into an order.
func (k *Kit) CreateOrder(_ *ai.ToolContext, _ CreateOrderInput) (Result, error) {
	order, err := k.store.CreateOrder(k.userID)
	if err != nil {
		return failure(ErrCodeExecution, err.Error()), nil
	}
	return success(order), nil
}

// GetOrderHistory returns one page of the user's orders, optionally filtered
// by date range.
func (k *Kit) GetOrderHistory(_ *ai.ToolContext, input GetOrderHistoryInput) (Result, error) {
	var dateRange *commerce.DateRange
	if input.DateRange != nil {
		start, err := parseISODate(input.DateRange.Start)
		if err != nil {
			return failure(ErrCodeValidation, fmt.Sprintf("invalid dateRange.start: %v", err)), nil
		}
		end, err := parseISODate(input.DateRange.End)
		if err != nil {
			return failure(ErrCodeValidation, fmt.Sprintf("invalid dateRange.end: %v", err)), nil
		}
		dateRange = &commerce.DateRange{Start: start, End: end}
	}

	page := input.Page
	if page < 1 {
		page = defaultPage
	}
	return success(k.store.Orders(k.userID, page, defaultLimit, dateRange)), nil
}

// parseISODate accepts a full RFC 3339 timestamp or a bare ISO date.
func parseISODate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

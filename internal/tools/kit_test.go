package tools

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/fruitify/fruitbot/internal/commerce"
	"github.com/fruitify/fruitbot/internal/log"
)

func newTestKit(t *testing.T) (*Kit, *commerce.Store) {
	t.Helper()
	store := commerce.NewSeededStore()
	kit, err := NewKit(store, commerce.DefaultUserID, log.NewNop())
	if err != nil {
		t.Fatalf("NewKit: %v", err)
	}
	return kit, store
}

func TestNewKit_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewKit(nil, commerce.DefaultUserID, log.NewNop()); err == nil {
		t.Error("NewKit should reject nil store")
	}
	if _, err := NewKit(commerce.NewSeededStore(), "", log.NewNop()); err == nil {
		t.Error("NewKit should reject empty user id")
	}
	if _, err := NewKit(commerce.NewSeededStore(), commerce.DefaultUserID, nil); err != nil {
		t.Errorf("NewKit with nil logger should use the default, got %v", err)
	}
}

func TestRegister_DefinesAllTools(t *testing.T) {
	t.Parallel()

	g := genkit.Init(context.Background())
	kit, _ := newTestKit(t)

	registered, err := kit.Register(g)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(registered) != 9 {
		t.Fatalf("Register returned %d tools, want 9", len(registered))
	}

	names := []string{
		ToolGetUserDetails, ToolListItems, ToolSearchItems, ToolGetCart,
		ToolAddToCart, ToolRemoveFromCart, ToolEmptyCart, ToolCreateOrder,
		ToolGetOrderHistory,
	}
	for _, name := range names {
		if tool := genkit.LookupTool(g, name); tool == nil {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestGetUserDetails_BindsSessionUser(t *testing.T) {
	t.Parallel()

	kit, _ := newTestKit(t)

	res, err := kit.GetUserDetails(nil, GetUserDetailsInput{})
	if err != nil {
		t.Fatalf("GetUserDetails: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, want success: %+v", res.Status, res.Error)
	}
	user, ok := res.Data.(*commerce.User)
	if !ok {
		t.Fatalf("data type = %T, want *commerce.User", res.Data)
	}
	if user.ID != commerce.DefaultUserID || user.Name != "Ekansh" {
		t.Errorf("user = %+v, want the bound session user", user)
	}
}

func TestListItems_DefaultsAndPaging(t *testing.T) {
	t.Parallel()

	kit, _ := newTestKit(t)

	res, err := kit.ListItems(nil, ListItemsInput{})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	items := res.Data.([]commerce.Item)
	if len(items) != 5 {
		t.Errorf("default page has %d items, want 5", len(items))
	}

	res, err = kit.ListItems(nil, ListItemsInput{Page: 2})
	if err != nil {
		t.Fatalf("ListItems page 2: %v", err)
	}
	if items := res.Data.([]commerce.Item); len(items) != 0 {
		t.Errorf("page beyond catalog has %d items, want 0", len(items))
	}
}

func TestSearchItems_EmptyQueryRejected(t *testing.T) {
	t.Parallel()

	kit, _ := newTestKit(t)

	res, err := kit.SearchItems(nil, SearchItemsInput{})
	if err != nil {
		t.Fatalf("SearchItems: %v", err)
	}
	if res.Status != StatusError || res.Error == nil || res.Error.Code != ErrCodeValidation {
		t.Errorf("empty query result = %+v, want VALIDATION error", res)
	}
}

func TestAddToCart_SuccessReturnsUpdatedCart(t *testing.T) {
	t.Parallel()

	kit, _ := newTestKit(t)

	res, err := kit.AddToCart(nil, AddToCartInput{ItemID: commerce.SeedItemBananaID, Quantity: 2})
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %q, want success: %+v", res.Status, res.Error)
	}
	cart := res.Data.(commerce.CartView)
	if len(cart.Lines) != 2 { // seeded apple line + new banana line
		t.Errorf("cart has %d lines, want 2", len(cart.Lines))
	}
}

func TestAddToCart_ErrorMapping(t *testing.T) {
	t.Parallel()

	kit, _ := newTestKit(t)

	tests := []struct {
		name     string
		input    AddToCartInput
		wantCode string
	}{
		{name: "unknown item", input: AddToCartInput{ItemID: "nope", Quantity: 1}, wantCode: ErrCodeNotFound},
		{name: "zero quantity", input: AddToCartInput{ItemID: commerce.SeedItemBananaID, Quantity: 0}, wantCode: ErrCodeValidation},
		{name: "negative quantity", input: AddToCartInput{ItemID: commerce.SeedItemBananaID, Quantity: -2}, wantCode: ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := kit.AddToCart(nil, tt.input)
			if err != nil {
				t.Fatalf("AddToCart: %v", err)
			}
			if res.Status != StatusError || res.Error == nil {
				t.Fatalf("result = %+v, want error envelope", res)
			}
			if res.Error.Code != tt.wantCode {
				t.Errorf("error code = %q, want %q", res.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestCartMutationTools(t *testing.T) {
	t.Parallel()

	kit, store := newTestKit(t)

	res, err := kit.RemoveFromCart(nil, RemoveFromCartInput{ItemID: commerce.SeedItemAppleID})
	if err != nil {
		t.Fatalf("RemoveFromCart: %v", err)
	}
	if cart := res.Data.(commerce.CartView); len(cart.Lines) != 0 {
		t.Errorf("cart has %d lines after removal, want 0", len(cart.Lines))
	}

	// Absent pair: still success, cart unchanged.
	res, err = kit.RemoveFromCart(nil, RemoveFromCartInput{ItemID: commerce.SeedItemAppleID})
	if err != nil || res.Status != StatusSuccess {
		t.Errorf("idempotent removal = (%+v, %v), want success", res, err)
	}

	if err := store.AddToCart(commerce.DefaultUserID, commerce.SeedItemMangoID, 1); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	res, err = kit.EmptyCart(nil, EmptyCartInput{})
	if err != nil {
		t.Fatalf("EmptyCart: %v", err)
	}
	if cart := res.Data.(commerce.CartView); len(cart.Lines) != 0 {
		t.Errorf("cart has %d lines after EmptyCart, want 0", len(cart.Lines))
	}
}

func TestCreateOrder_EmptiesCart(t *testing.T) {
	t.Parallel()

	kit, store := newTestKit(t)

	res, err := kit.CreateOrder(nil, CreateOrderInput{})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if res.Status != StatusSuccess {
		t.Fatalf("status = %q: %+v", res.Status, res.Error)
	}
	order := res.Data.(*commerce.Order)
	if order.Total != 10 { // seeded apple x5 at price 2
		t.Errorf("order total = %v, want 10", order.Total)
	}
	if cart := store.Cart(commerce.DefaultUserID); len(cart.Lines) != 0 {
		t.Errorf("cart not emptied by create-order: %+v", cart)
	}
}

func TestGetOrderHistory_DateRange(t *testing.T) {
	t.Parallel()

	kit, _ := newTestKit(t)

	res, err := kit.GetOrderHistory(nil, GetOrderHistoryInput{
		DateRange: &ToolDateRange{Start: "2024-12-10", End: "2024-12-31"},
	})
	if err != nil {
		t.Fatalf("GetOrderHistory: %v", err)
	}
	orders := res.Data.([]commerce.OrderView)
	if len(orders) != 1 {
		t.Fatalf("filtered history has %d orders, want the seeded 2024-12-17 order", len(orders))
	}

	// RFC 3339 timestamps are accepted too.
	res, err = kit.GetOrderHistory(nil, GetOrderHistoryInput{
		DateRange: &ToolDateRange{Start: "2024-12-10T00:00:00Z", End: "2024-12-31T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("GetOrderHistory: %v", err)
	}
	if orders := res.Data.([]commerce.OrderView); len(orders) != 1 {
		t.Errorf("RFC3339 range returned %d orders, want 1", len(orders))
	}
}

func TestGetOrderHistory_InvalidDates(t *testing.T) {
	t.Parallel()

	kit, _ := newTestKit(t)

	res, err := kit.GetOrderHistory(nil, GetOrderHistoryInput{
		DateRange: &ToolDateRange{Start: "next tuesday", End: "2024-12-31"},
	})
	if err != nil {
		t.Fatalf("GetOrderHistory: %v", err)
	}
	if res.Status != StatusError || res.Error.Code != ErrCodeValidation {
		t.Errorf("result = %+v, want VALIDATION error", res)
	}
}

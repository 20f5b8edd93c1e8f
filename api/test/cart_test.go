package test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/rfebrian/storefront/core/cart"
	"github.com/rfebrian/storefront/core/order"
	"github.com/shopspring/decimal"
)

type cartView struct {
	ID       string          `json:"id"`
	Items    []cart.Item     `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// seedCatalog logs in as the admin and creates one product with two
// variants through the API, returning the variant IDs.
func seedCatalog(t *testing.T, env *TestEnv) (string, string) {
	t.Helper()

	if err := env.Login(env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}

	var b struct {
		ID string `json:"id"`
	}
	status, err := env.do(http.MethodPost, "/brands", map[string]string{
		"name": "Acme", "slug": "acme",
	}, &b)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("creating brand: status %d", status)
	}

	var c struct {
		ID string `json:"id"`
	}
	status, err = env.do(http.MethodPost, "/categories", map[string]string{
		"name": "Shoes", "slug": "shoes",
	}, &c)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("creating category: status %d", status)
	}

	var p struct {
		ID string `json:"id"`
	}
	status, err = env.do(http.MethodPost, "/products", map[string]string{
		"brandId":    b.ID,
		"categoryId": c.ID,
		"name":       "Runner",
		"slug":       "runner",
	}, &p)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("creating product: status %d", status)
	}

	sub := func(sku, variant, price string, stock int) string {
		var s struct {
			ID string `json:"id"`
		}
		status, err := env.do(http.MethodPost, "/subproducts", map[string]any{
			"productId": p.ID,
			"sku":       sku,
			"variant":   variant,
			"price":     price,
			"stock":     stock,
			"available": true,
		}, &s)
		if err != nil {
			t.Fatal(err)
		}
		if status != http.StatusCreated {
			t.Fatalf("creating subproduct %s: status %d", sku, status)
		}
		return s.ID
	}

	sub1 := sub("RUN-42", "size 42", "29.99", 10)
	sub2 := sub("RUN-43", "size 43", "10.00", 5)

	if err := env.Logout(); err != nil {
		t.Fatal(err)
	}
	env.ResetClient()

	return sub1, sub2
}

func (e *TestEnv) addItem(t *testing.T, subproductID string, qty int) cartView {
	t.Helper()

	var v cartView
	status, err := e.do(http.MethodPost, "/cart/items", cart.ItemNew{
		SubproductID: subproductID,
		Quantity:     qty,
	}, &v)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("adding item: status %d", status)
	}
	return v
}

func wantSubtotal(t *testing.T, v cartView, want string) {
	t.Helper()
	if !v.Subtotal.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("subtotal %s, want %s", v.Subtotal, want)
	}
}

func TestCartCheckoutFlow(t *testing.T) {
	env, err := NewTestEnv(t, "cart_checkout")
	if err != nil {
		t.Fatal(err)
	}

	sub1, sub2 := seedCatalog(t, env)

	// Anonymous visitor builds a cart.
	v := env.addItem(t, sub1, 2)
	wantSubtotal(t, v, "59.98")

	// Logging in carries the cart over to the account.
	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	status, err := env.do(http.MethodGet, "/cart", nil, &v)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("fetching cart: status %d", status)
	}
	if len(v.Items) != 1 || v.Items[0].Quantity != 2 {
		t.Fatalf("after login cart items %+v, want one item with quantity 2", v.Items)
	}

	v = env.addItem(t, sub2, 1)
	wantSubtotal(t, v, "69.98")

	status, err = env.do(http.MethodPut, "/cart/items", cart.ItemDelta{
		SubproductID: sub1,
		Delta:        -1,
	}, &v)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("updating item: status %d", status)
	}
	wantSubtotal(t, v, "39.99")

	addr := order.AddressInfo{
		Name:     "Test User",
		Email:    env.UserEmail,
		Street:   "1 Main St",
		Postcode: "12345",
		City:     "Springfield",
		Country:  "US",
	}

	var handle order.Handle
	status, err = env.do(http.MethodPost, "/checkout", addr, &handle)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("checkout: status %d", status)
	}
	if !handle.Total.Equal(decimal.RequireFromString("39.99")) {
		t.Fatalf("order total %s, want 39.99", handle.Total)
	}
	if !strings.HasPrefix(handle.Number, "SO-") {
		t.Fatalf("order number %q, want SO- prefix", handle.Number)
	}

	// The cart is empty after checkout.
	status, err = env.do(http.MethodGet, "/cart", nil, &v)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("fetching cart: status %d", status)
	}
	if len(v.Items) != 0 {
		t.Fatalf("after checkout cart items %+v, want none", v.Items)
	}

	var orders []order.Order
	status, err = env.do(http.MethodGet, "/orders", nil, &orders)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("listing orders: status %d", status)
	}
	if len(orders) != 1 || orders[0].ID != handle.ID {
		t.Fatalf("orders %+v, want the one just placed", orders)
	}
	if orders[0].Status != order.Confirmed {
		t.Fatalf("order status %q, want %q", orders[0].Status, order.Confirmed)
	}

	// A second checkout finds nothing to buy.
	status, err = env.do(http.MethodPost, "/checkout", addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("checkout of empty cart: status %d, want 422", status)
	}
}

func TestCartMergeCombinesQuantities(t *testing.T) {
	env, err := NewTestEnv(t, "cart_merge")
	if err != nil {
		t.Fatal(err)
	}

	sub1, sub2 := seedCatalog(t, env)

	// The user leaves an item behind from an earlier session.
	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}
	env.addItem(t, sub1, 1)
	if err := env.Logout(); err != nil {
		t.Fatal(err)
	}

	// Back as a guest, they build a second cart.
	env.ResetClient()
	env.addItem(t, sub1, 2)
	env.addItem(t, sub2, 1)

	// Logging in folds the guest cart into the account cart.
	if err := env.Login(env.UserEmail, env.UserPass); err != nil {
		t.Fatal(err)
	}

	var v cartView
	status, err := env.do(http.MethodGet, "/cart", nil, &v)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("fetching cart: status %d", status)
	}

	got := map[string]int{}
	for _, it := range v.Items {
		got[it.SubproductID] = it.Quantity
	}
	if got[sub1] != 3 || got[sub2] != 1 {
		t.Fatalf("merged quantities %v, want %s=3 %s=1", got, sub1, sub2)
	}
	wantSubtotal(t, v, "99.97")

	// An explicit clear empties the cart but keeps it alive.
	cleared := v
	status, err = env.do(http.MethodDelete, "/cart", nil, &cleared)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("clearing cart: status %d", status)
	}
	if len(cleared.Items) != 0 {
		t.Fatalf("after clear cart items %+v, want none", cleared.Items)
	}
	if cleared.ID != v.ID {
		t.Fatalf("clear replaced cart %s with %s", v.ID, cleared.ID)
	}
}

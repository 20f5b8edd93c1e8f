package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
)

// serveFresh runs a handler for a visitor whose session carries no
// token yet, the state of a first request without a cookie.
func serveFresh(t *testing.T, session *scs.SessionManager, h func(context.Context, http.ResponseWriter, *http.Request) error, method string) *httptest.ResponseRecorder {
	t.Helper()

	ctx, err := session.Load(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, "/cart", nil)

	if err := h(ctx, w, r); err != nil {
		t.Fatalf("handler returned %v", err)
	}
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) view {
	t.Helper()

	var v view
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestShowWithoutSessionReturnsEmptyCart(t *testing.T) {
	svc, _, _ := newTestService()
	session := scs.New()

	w := serveFresh(t, session, HandleShow(svc, session), http.MethodGet)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	v := decodeView(t, w)
	if v.ID != "" || len(v.Items) != 0 || !v.Subtotal.IsZero() {
		t.Fatalf("view %+v, want an empty cart", v)
	}
}

func TestClearWithoutSessionReturnsEmptyCart(t *testing.T) {
	svc, _, _ := newTestService()
	session := scs.New()

	w := serveFresh(t, session, HandleClear(svc, session), http.MethodDelete)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", w.Code)
	}

	v := decodeView(t, w)
	if len(v.Items) != 0 {
		t.Fatalf("view %+v, want an empty cart", v)
	}
}

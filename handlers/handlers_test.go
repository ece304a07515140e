package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tailcart/engine"
	"tailcart/gateway"
	"tailcart/globals"
	"tailcart/models"
	"tailcart/session"

	"github.com/golang-jwt/jwt/v5"
)

type stubRemote struct {
	products []models.Product
	lines    []models.CartLine
	pets     []models.Pet
}

func (r *stubRemote) ListProducts(context.Context) ([]models.Product, error) {
	return r.products, nil
}

func (r *stubRemote) CreateCartLine(_ context.Context, _ string, petID, productID, quantity int) (models.CartLine, error) {
	return models.CartLine{CartID: 1, Pet: petID, Product: productID, Quantity: quantity, Status: models.StatusPending}, nil
}

func (r *stubRemote) ListCartLines(context.Context, string) ([]models.CartLine, error) {
	return r.lines, nil
}

func (r *stubRemote) UpdateCartLine(_ context.Context, _ string, cartID, quantity int) (models.CartLine, error) {
	return models.CartLine{CartID: cartID, Quantity: quantity}, nil
}

func (r *stubRemote) DeleteCartLine(context.Context, int) error { return nil }

func (r *stubRemote) ListPets(context.Context, string) ([]models.Pet, error) {
	return r.pets, nil
}

func (r *stubRemote) Checkout(context.Context, gateway.CheckoutRequest) (models.CheckoutResponse, error) {
	return models.CheckoutResponse{Message: "Order placed successfully!"}, nil
}

func signedToken(t *testing.T, userID string) string {
	t.Helper()
	claims := session.Claims{
		Username: "tester",
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func TestCatalogViewRendersStars(t *testing.T) {
	e := engine.New(session.Context{OwnerID: "42", Token: "x"}, &stubRemote{}, engine.Config{}, nil)
	e.Catalog.Load([]models.Product{
		{ID: 1, Model: "Glass Bowl", Price: 120, Reviews: "4.5"},
		{ID: 2, Model: "Cat Tower", Price: 450, Reviews: "4.4"},
		{ID: 3, Model: "Ball", Price: 30, Reviews: "junk"},
	})

	h := &Handlers{}
	v := h.catalogViewOf(e)
	if len(v.Products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(v.Products))
	}
	want := map[int]string{1: "★★★★½", 2: "★★★★☆", 3: "☆☆☆☆☆"}
	for _, p := range v.Products {
		if p.Stars != want[p.ID] {
			t.Fatalf("product %d: stars %q, want %q", p.ID, p.Stars, want[p.ID])
		}
	}
}

func checkoutRequest(token, key string) (*httptest.ResponseRecorder, *http.Request) {
	req := httptest.NewRequest(http.MethodPost, "/api/cart/checkout", nil)
	req.Header.Set("Authorization", token)
	req.Header.Set("Idempotency-Key", key)
	return httptest.NewRecorder(), req
}

func TestCheckoutPreconditionFailureKeepsKeyUsable(t *testing.T) {
	remote := &stubRemote{pets: []models.Pet{{PetID: 3, PetName: "Simba"}}} // empty cart
	h := New(engine.NewRegistry(remote, engine.Config{}, nil), time.Minute)
	token := signedToken(t, "owner-h1")

	rec, req := checkoutRequest(token, "retry-1")
	h.Checkout(rec, req, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty cart: status %d, want 400", rec.Code)
	}

	// the same key must work once the cart is corrected; a local
	// rejection never counts as a submitted checkout
	rec, req = checkoutRequest(token, "retry-1")
	h.Checkout(rec, req, nil)
	if rec.Code == http.StatusConflict {
		t.Fatal("precondition failure burned the idempotency key")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second attempt: status %d, want 400", rec.Code)
	}
}

func TestCheckoutReplayWithSameKeyIsRejected(t *testing.T) {
	remote := &stubRemote{
		pets:  []models.Pet{{PetID: 3, PetName: "Simba"}},
		lines: []models.CartLine{{CartID: 1, ProductPrice: 100, Quantity: 2, Status: models.StatusAvailable}},
	}
	h := New(engine.NewRegistry(remote, engine.Config{}, nil), time.Minute)
	token := signedToken(t, "owner-h2")

	rec, req := checkoutRequest(token, "once-only")
	h.Checkout(rec, req, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: status %d, body %s", rec.Code, rec.Body.String())
	}

	rec, req = checkoutRequest(token, "once-only")
	h.Checkout(rec, req, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("replay: status %d, want 409", rec.Code)
	}
}

package gateway

import (
	"context"

	"tailcart/models"
)

// Remote is the store backend the engine talks to. Every call is
// independently failable; errors come back classified as faults.ErrNetwork
// (transport, timeout, 5xx) or faults.ErrRemoteValidation (4xx with a
// server message). Nothing here retries.
type Remote interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateCartLine(ctx context.Context, owner string, petID, productID, quantity int) (models.CartLine, error)
	ListCartLines(ctx context.Context, owner string) ([]models.CartLine, error)
	UpdateCartLine(ctx context.Context, owner string, cartID, quantity int) (models.CartLine, error)
	DeleteCartLine(ctx context.Context, cartID int) error
	ListPets(ctx context.Context, owner string) ([]models.Pet, error)
	Checkout(ctx context.Context, req CheckoutRequest) (models.CheckoutResponse, error)
}

// CheckoutRequest carries the full line snapshot and the computed total,
// plus an idempotency key so a retried submit cannot double-order.
type CheckoutRequest struct {
	Owner          string
	Lines          []models.CartLine
	Total          int64
	IdempotencyKey string
}

package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"tailcart/cart"
	"tailcart/faults"
	"tailcart/gateway"
	"tailcart/models"
	"tailcart/session"
)

// scriptedRemote resolves creates over a channel; everything else is inert.
type scriptedRemote struct {
	creates chan *createCall
}

type createCall struct {
	petID, productID, quantity int
	reply                      chan createReply
}

type createReply struct {
	line models.CartLine
	err  error
}

func newScriptedRemote() *scriptedRemote {
	return &scriptedRemote{creates: make(chan *createCall, 4)}
}

func (r *scriptedRemote) ListProducts(ctx context.Context) ([]models.Product, error) {
	return nil, nil
}
func (r *scriptedRemote) ListCartLines(ctx context.Context, owner string) ([]models.CartLine, error) {
	return nil, nil
}
func (r *scriptedRemote) UpdateCartLine(ctx context.Context, owner string, cartID, quantity int) (models.CartLine, error) {
	return models.CartLine{}, nil
}
func (r *scriptedRemote) DeleteCartLine(ctx context.Context, cartID int) error { return nil }
func (r *scriptedRemote) ListPets(ctx context.Context, owner string) ([]models.Pet, error) {
	return nil, nil
}
func (r *scriptedRemote) Checkout(ctx context.Context, req gateway.CheckoutRequest) (models.CheckoutResponse, error) {
	return models.CheckoutResponse{}, nil
}

func (r *scriptedRemote) CreateCartLine(ctx context.Context, owner string, petID, productID, quantity int) (models.CartLine, error) {
	c := &createCall{petID: petID, productID: productID, quantity: quantity, reply: make(chan createReply)}
	r.creates <- c
	rep := <-c.reply
	return rep.line, rep.err
}

func authedSession() session.Context {
	return session.Context{
		OwnerID: "42",
		Token:   "Bearer token",
		Pets:    []models.Pet{{PetID: 3, PetName: "Simba"}},
	}
}

func bowl() models.Product {
	return models.Product{ID: 9, Model: "Glass Bowl", Price: 120}
}

func TestStartRequiresAuthentication(t *testing.T) {
	f := New(cart.NewStore("", newScriptedRemote()))

	err := f.Start(session.Context{}, bowl())
	if !errors.Is(err, faults.ErrNotAuthenticated) {
		t.Fatalf("expected not-authenticated, got %v", err)
	}
	v := f.Current()
	if v.State != StateFailed {
		t.Fatalf("expected failed state, got %s", v.State)
	}
	if v.ProductID != 0 {
		t.Fatal("failed start must retain no product")
	}
}

func TestStartRequiresARegisteredPet(t *testing.T) {
	f := New(cart.NewStore("42", newScriptedRemote()))

	sess := authedSession()
	sess.Pets = nil
	err := f.Start(sess, bowl())
	if !errors.Is(err, faults.ErrNoTargetsRegistered) {
		t.Fatalf("expected no-targets error, got %v", err)
	}
	if v := f.Current(); v.State != StateFailed || v.ProductID != 0 {
		t.Fatalf("failed start must retain nothing, got %+v", v)
	}
}

func TestHappyPathCommits(t *testing.T) {
	remote := newScriptedRemote()
	f := New(cart.NewStore("42", remote))

	if err := f.Start(authedSession(), bowl()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.SelectTarget(3); err != nil {
		t.Fatalf("select target: %v", err)
	}
	if err := f.SelectQuantity(2); err != nil {
		t.Fatalf("select quantity: %v", err)
	}
	if v := f.Current(); v.State != StateConfirming {
		t.Fatalf("expected confirming, got %s", v.State)
	}

	done := make(chan error, 1)
	if err := f.Commit(func(err error) { done <- err }); err != nil {
		t.Fatalf("commit: %v", err)
	}

	select {
	case call := <-remote.creates:
		if call.productID != 9 || call.petID != 3 || call.quantity != 2 {
			t.Fatalf("unexpected create call: %+v", call)
		}
		call.reply <- createReply{line: models.CartLine{CartID: 1, Product: 9, Pet: 3, Quantity: 2}}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for create call")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("commit failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for commit")
	}
	if v := f.Current(); v.State != StateCommitted {
		t.Fatalf("expected committed, got %s", v.State)
	}
}

func TestCommitFailureEndsInFailed(t *testing.T) {
	remote := newScriptedRemote()
	f := New(cart.NewStore("42", remote))

	f.Start(authedSession(), bowl())
	f.SelectTarget(3)
	f.SelectQuantity(2)

	done := make(chan error, 1)
	if err := f.Commit(func(err error) { done <- err }); err != nil {
		t.Fatalf("commit: %v", err)
	}
	call := <-remote.creates
	call.reply <- createReply{err: faults.RemoteValidation("out of stock")}

	select {
	case err := <-done:
		if !errors.Is(err, faults.ErrRemoteValidation) {
			t.Fatalf("expected remote validation error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for commit")
	}
	if v := f.Current(); v.State != StateFailed || v.LastError == "" {
		t.Fatalf("expected failed with detail, got %+v", v)
	}
}

func TestInvalidSelectionsKeepState(t *testing.T) {
	f := New(cart.NewStore("42", newScriptedRemote()))
	f.Start(authedSession(), bowl())

	if err := f.SelectTarget(0); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if v := f.Current(); v.State != StateSelectingTarget {
		t.Fatalf("invalid target must not advance, got %s", v.State)
	}

	f.SelectTarget(3)
	for _, q := range []int{0, 11} {
		if err := f.SelectQuantity(q); !errors.Is(err, faults.ErrValidation) {
			t.Fatalf("quantity %d: expected validation error, got %v", q, err)
		}
		if v := f.Current(); v.State != StateSelectingQuantity {
			t.Fatalf("invalid quantity must not advance, got %s", v.State)
		}
	}
}

func TestOutOfOrderCallsAreRejected(t *testing.T) {
	f := New(cart.NewStore("42", newScriptedRemote()))

	if err := f.SelectTarget(3); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error before start, got %v", err)
	}
	if err := f.SelectQuantity(2); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error before start, got %v", err)
	}
	if err := f.Commit(nil); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error before start, got %v", err)
	}
}

func TestCancelFromEveryNonTerminalState(t *testing.T) {
	remote := newScriptedRemote()
	store := cart.NewStore("42", remote)

	advance := map[string]func(f *Flow){
		"idle":              func(f *Flow) {},
		"selectingTarget":   func(f *Flow) { f.Start(authedSession(), bowl()) },
		"selectingQuantity": func(f *Flow) { f.Start(authedSession(), bowl()); f.SelectTarget(3) },
		"confirming": func(f *Flow) {
			f.Start(authedSession(), bowl())
			f.SelectTarget(3)
			f.SelectQuantity(2)
		},
	}
	for name, setup := range advance {
		f := New(store)
		setup(f)
		f.Cancel()
		if v := f.Current(); v.State != StateCancelled {
			t.Fatalf("%s: expected cancelled, got %s", name, v.State)
		}
		if v := f.Current(); v.PetID != 0 || v.Quantity != 0 || v.ProductID != 0 {
			t.Fatalf("%s: selections must be discarded, got %+v", name, f.Current())
		}
	}

	// the cart was never touched
	select {
	case <-remote.creates:
		t.Fatal("cancel must never reach the cart store")
	case <-time.After(50 * time.Millisecond):
	}
	if got := len(store.Lines()); got != 0 {
		t.Fatalf("cart lines changed: %d", got)
	}
}

func TestVersionTracksTransitions(t *testing.T) {
	f := New(cart.NewStore("42", newScriptedRemote()))

	v := f.Version()
	f.Start(authedSession(), bowl())
	if f.Version() == v {
		t.Fatal("start must bump the version")
	}
	v = f.Version()
	f.SelectTarget(3)
	if f.Version() == v {
		t.Fatal("target selection must bump the version")
	}
	v = f.Version()
	f.Cancel()
	if f.Version() == v {
		t.Fatal("cancel must bump the version")
	}
}

func TestRestartDiscardsPreviousSelections(t *testing.T) {
	f := New(cart.NewStore("42", newScriptedRemote()))

	f.Start(authedSession(), bowl())
	f.SelectTarget(3)
	f.SelectQuantity(2)

	other := models.Product{ID: 12, Model: "Cat Tower", Price: 450}
	if err := f.Start(authedSession(), other); err != nil {
		t.Fatalf("restart: %v", err)
	}
	v := f.Current()
	if v.State != StateSelectingTarget {
		t.Fatalf("expected fresh flow, got %s", v.State)
	}
	if v.ProductID != 12 || v.PetID != 0 || v.Quantity != 0 {
		t.Fatalf("previous selections leaked: %+v", v)
	}
}

package flow

import (
	"fmt"
	"sync"

	"tailcart/cart"
	"tailcart/faults"
	"tailcart/models"
	"tailcart/session"
)

// State of the add-to-cart flow.
type State string

const (
	StateIdle              State = "idle"
	StateSelectingTarget   State = "selectingTarget"
	StateSelectingQuantity State = "selectingQuantity"
	StateConfirming        State = "confirming"
	StateCommitted         State = "committed"
	StateCancelled         State = "cancelled"
	StateFailed            State = "failed"
)

// Terminal reports whether the flow has finished.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateCancelled || s == StateFailed
}

// Flow walks a single add-to-cart through pet selection, quantity
// selection and confirmation, and only then touches the cart store. A
// flow instance is single-owner: starting again discards whatever the
// previous run had selected.
type Flow struct {
	mu   sync.Mutex
	cart *cart.Store

	state    State
	product  models.Product
	petID    int
	quantity int
	lastErr  string

	version uint64
	subs    []func(models.ChangeEvent)
}

// View is the flow read model.
type View struct {
	State     State  `json:"state"`
	ProductID int    `json:"productId,omitempty"`
	PetID     int    `json:"petId,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
	LastError string `json:"lastError,omitempty"`
}

// New builds an idle flow over a cart store.
func New(cartStore *cart.Store) *Flow {
	return &Flow{cart: cartStore, state: StateIdle}
}

// Subscribe registers a change listener.
func (f *Flow) Subscribe(fn func(models.ChangeEvent)) {
	f.mu.Lock()
	f.subs = append(f.subs, fn)
	f.mu.Unlock()
}

// Version increments on every flow change, for pollers.
func (f *Flow) Version() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

func (f *Flow) emit(name string) {
	f.mu.Lock()
	f.version++
	subs := make([]func(models.ChangeEvent), len(f.subs))
	copy(subs, f.subs)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(models.ChangeEvent{Scope: "flow", Name: name})
	}
}

// Start begins a flow for a product, discarding any in-progress
// selections. The caller must be authenticated and have at least one
// registered pet; otherwise the flow lands in Failed holding nothing.
func (f *Flow) Start(sess session.Context, product models.Product) error {
	f.mu.Lock()
	f.product = models.Product{}
	f.petID = 0
	f.quantity = 0
	f.lastErr = ""

	if !sess.Authenticated() {
		f.state = StateFailed
		f.lastErr = faults.ErrNotAuthenticated.Error()
		f.mu.Unlock()
		f.emit("failed")
		return faults.ErrNotAuthenticated
	}
	if len(sess.Pets) == 0 {
		f.state = StateFailed
		f.lastErr = faults.ErrNoTargetsRegistered.Error()
		f.mu.Unlock()
		f.emit("failed")
		return faults.ErrNoTargetsRegistered
	}

	f.product = product
	f.state = StateSelectingTarget
	f.mu.Unlock()
	f.emit("started")
	return nil
}

// SelectTarget picks the pet the product is for. An invalid id keeps the
// flow where it is.
func (f *Flow) SelectTarget(petID int) error {
	f.mu.Lock()
	if f.state != StateSelectingTarget {
		f.mu.Unlock()
		return faults.Validation("flow is not awaiting a pet (state %s)", f.state)
	}
	if petID <= 0 {
		f.mu.Unlock()
		return faults.Validation("please enter a valid numeric pet id")
	}
	f.petID = petID
	f.state = StateSelectingQuantity
	f.mu.Unlock()
	f.emit("targetSelected")
	return nil
}

// SelectQuantity picks the quantity. Out-of-range values keep the flow
// where it is.
func (f *Flow) SelectQuantity(n int) error {
	f.mu.Lock()
	if f.state != StateSelectingQuantity {
		f.mu.Unlock()
		return faults.Validation("flow is not awaiting a quantity (state %s)", f.state)
	}
	if !models.QuantityInRange(n) {
		f.mu.Unlock()
		return faults.Validation("quantity must be between %d and %d", models.MinQuantity, models.MaxQuantity)
	}
	f.quantity = n
	f.state = StateConfirming
	f.mu.Unlock()
	f.emit("quantitySelected")
	return nil
}

// Commit hands the collected selections to the cart store. Success moves
// the flow to Committed, failure to Failed; the flow never retries.
func (f *Flow) Commit(done func(error)) error {
	f.mu.Lock()
	if f.state != StateConfirming {
		f.mu.Unlock()
		return faults.Validation("flow is not ready to commit (state %s)", f.state)
	}
	productID, petID, quantity := f.product.ID, f.petID, f.quantity
	f.mu.Unlock()

	err := f.cart.AddLine(productID, petID, quantity, func(_ models.CartLine, err error) {
		f.mu.Lock()
		if err != nil {
			f.state = StateFailed
			f.lastErr = err.Error()
		} else {
			f.state = StateCommitted
		}
		f.mu.Unlock()
		if err != nil {
			f.emit("failed")
		} else {
			f.emit("committed")
		}
		if done != nil {
			done(err)
		}
	})
	if err != nil {
		f.mu.Lock()
		f.state = StateFailed
		f.lastErr = err.Error()
		f.mu.Unlock()
		f.emit("failed")
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Cancel aborts the flow from any non-terminal state, discarding all
// selections. The cart store is never called.
func (f *Flow) Cancel() {
	f.mu.Lock()
	if f.state.Terminal() {
		f.mu.Unlock()
		return
	}
	f.state = StateCancelled
	f.product = models.Product{}
	f.petID = 0
	f.quantity = 0
	f.mu.Unlock()
	f.emit("cancelled")
}

// Current returns the flow read model.
func (f *Flow) Current() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		State:     f.state,
		ProductID: f.product.ID,
		PetID:     f.petID,
		Quantity:  f.quantity,
		LastError: f.lastErr,
	}
}

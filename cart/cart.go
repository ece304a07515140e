package cart

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"tailcart/faults"
	"tailcart/gateway"
	"tailcart/models"
	"tailcart/pricing"
)

type mutationKind int

const (
	mutationUpdate mutationKind = iota
	mutationDelete
)

// pendingMutation guards a cart line while a remote change is in flight.
// At most one exists per line; the op sequence number lets a late
// completion be recognized as stale and discarded.
type pendingMutation struct {
	op       uint64
	kind     mutationKind
	snapshot int // quantity before the optimistic change
	issuedAt time.Time
}

// Store owns the cart lines for one owner and performs optimistic
// mutations against the store API. Local-precondition errors are returned
// synchronously with no network call and no state change; remote
// resolution arrives on the done callback (which may be nil).
type Store struct {
	mu       sync.Mutex
	owner    string
	remote   gateway.Remote
	lines    []models.CartLine
	pending  map[int]pendingMutation
	proposed map[int]bool
	opSeq    uint64

	version uint64
	subs    []func(models.ChangeEvent)
}

// Snapshot is the cart read model.
type Snapshot struct {
	Lines      []models.CartLine `json:"lines"`
	Totals     pricing.Totals    `json:"totals"`
	TotalItems int               `json:"totalItems"`
	Proposed   []int             `json:"proposedRemovals"`
	InFlight   []int             `json:"inFlight"`
}

// NewStore builds an empty cart store for an owner.
func NewStore(owner string, remote gateway.Remote) *Store {
	return &Store{
		owner:    owner,
		remote:   remote,
		pending:  make(map[int]pendingMutation),
		proposed: make(map[int]bool),
	}
}

// Subscribe registers a change listener. Listeners run outside the store
// lock and must not call back into the store synchronously.
func (s *Store) Subscribe(fn func(models.ChangeEvent)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Version increments on every cart change, for pollers.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func (s *Store) emit(name string) {
	s.mu.Lock()
	s.version++
	subs := make([]func(models.ChangeEvent), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(models.ChangeEvent{Scope: "cart", Name: name})
	}
}

// Refresh replaces the local lines with the server's. Any in-flight
// mutation records are dropped; their completions will be discarded as
// stale.
func (s *Store) Refresh(done func(error)) {
	go func() {
		lines, err := s.remote.ListCartLines(context.Background(), s.owner)
		if err != nil {
			finishErr(done, err)
			return
		}
		s.mu.Lock()
		s.lines = lines
		s.pending = make(map[int]pendingMutation)
		s.proposed = make(map[int]bool)
		s.mu.Unlock()
		s.emit("refreshed")
		finishErr(done, nil)
	}()
}

// AddLine creates a new cart line for a product and pet. There is no
// optimistic add: the line appears locally only once the server confirms,
// since before that there is nothing to roll back to.
func (s *Store) AddLine(productID, petID, quantity int, done func(models.CartLine, error)) error {
	if !models.QuantityInRange(quantity) {
		return faults.Validation("quantity must be between %d and %d", models.MinQuantity, models.MaxQuantity)
	}
	if productID <= 0 {
		return faults.Validation("invalid product id %d", productID)
	}
	if petID <= 0 {
		return faults.Validation("invalid pet id %d", petID)
	}

	go func() {
		line, err := s.remote.CreateCartLine(context.Background(), s.owner, petID, productID, quantity)
		if err != nil {
			if done != nil {
				done(models.CartLine{}, err)
			}
			return
		}
		s.mu.Lock()
		s.lines = append(s.lines, line)
		s.mu.Unlock()
		s.emit("lineAdded")
		if done != nil {
			done(line, nil)
		}
	}()
	return nil
}

// UpdateQuantity applies the new quantity locally at once, records a
// pending mutation with the prior value as snapshot, and issues the remote
// update. Success keeps the local value; failure restores the snapshot. A
// second update on the same line while one is in flight is rejected with
// Busy and does not disturb the first.
func (s *Store) UpdateQuantity(lineID, quantity int, done func(error)) error {
	if !models.QuantityInRange(quantity) {
		return faults.Validation("quantity must be between %d and %d", models.MinQuantity, models.MaxQuantity)
	}

	s.mu.Lock()
	idx := s.indexLocked(lineID)
	if idx < 0 {
		s.mu.Unlock()
		return faults.Validation("no cart line %d", lineID)
	}
	if _, busy := s.pending[lineID]; busy {
		s.mu.Unlock()
		return fmt.Errorf("cart line %d: %w", lineID, faults.ErrBusy)
	}
	s.opSeq++
	op := s.opSeq
	s.pending[lineID] = pendingMutation{
		op:       op,
		kind:     mutationUpdate,
		snapshot: s.lines[idx].Quantity,
		issuedAt: time.Now(),
	}
	s.lines[idx].Quantity = quantity
	s.mu.Unlock()
	s.emit("quantityChanged")

	go func() {
		updated, err := s.remote.UpdateCartLine(context.Background(), s.owner, lineID, quantity)
		s.resolveUpdate(op, lineID, updated, err, done)
	}()
	return nil
}

func (s *Store) resolveUpdate(op uint64, lineID int, updated models.CartLine, err error, done func(error)) {
	s.mu.Lock()
	p, ok := s.pending[lineID]
	if !ok || p.op != op {
		// A newer mutation owns this line now; applying this completion
		// (success or rollback) would clobber fresher state.
		s.mu.Unlock()
		log.Printf("cart: discarding stale completion op=%d line=%d", op, lineID)
		finishErr(done, err)
		return
	}
	delete(s.pending, lineID)

	if err != nil {
		if idx := s.indexLocked(lineID); idx >= 0 {
			s.lines[idx].Quantity = p.snapshot
		}
		s.mu.Unlock()
		s.emit("rolledBack")
		finishErr(done, err)
		return
	}

	if idx := s.indexLocked(lineID); idx >= 0 {
		if updated.UpdatedAt != "" {
			s.lines[idx].UpdatedAt = updated.UpdatedAt
		}
		if updated.Status != "" {
			s.lines[idx].Status = updated.Status
		}
	}
	s.mu.Unlock()
	s.emit("quantityConfirmed")
	finishErr(done, nil)
}

// ProposeRemoval records the intent to delete a line. The list itself is
// untouched until ConfirmRemoval succeeds.
func (s *Store) ProposeRemoval(lineID int) error {
	s.mu.Lock()
	if s.indexLocked(lineID) < 0 {
		s.mu.Unlock()
		return faults.Validation("no cart line %d", lineID)
	}
	s.proposed[lineID] = true
	s.mu.Unlock()
	s.emit("removalProposed")
	return nil
}

// CancelRemoval abandons a removal proposal. Nothing was mutated, so there
// is nothing to undo.
func (s *Store) CancelRemoval(lineID int) {
	s.mu.Lock()
	delete(s.proposed, lineID)
	s.mu.Unlock()
	s.emit("removalCancelled")
}

// ConfirmRemoval issues the delete for a previously proposed removal. The
// line leaves the local list only on server success; on failure the list
// is unchanged and the proposal stays so the caller can retry.
func (s *Store) ConfirmRemoval(lineID int, done func(error)) error {
	s.mu.Lock()
	if !s.proposed[lineID] {
		s.mu.Unlock()
		return faults.Validation("no removal proposed for cart line %d", lineID)
	}
	idx := s.indexLocked(lineID)
	if idx < 0 {
		s.mu.Unlock()
		return faults.Validation("no cart line %d", lineID)
	}
	if _, busy := s.pending[lineID]; busy {
		s.mu.Unlock()
		return fmt.Errorf("cart line %d: %w", lineID, faults.ErrBusy)
	}
	s.opSeq++
	op := s.opSeq
	s.pending[lineID] = pendingMutation{
		op:       op,
		kind:     mutationDelete,
		snapshot: s.lines[idx].Quantity,
		issuedAt: time.Now(),
	}
	s.mu.Unlock()

	go func() {
		err := s.remote.DeleteCartLine(context.Background(), lineID)
		s.resolveRemoval(op, lineID, err, done)
	}()
	return nil
}

func (s *Store) resolveRemoval(op uint64, lineID int, err error, done func(error)) {
	s.mu.Lock()
	p, ok := s.pending[lineID]
	if !ok || p.op != op {
		s.mu.Unlock()
		log.Printf("cart: discarding stale completion op=%d line=%d", op, lineID)
		finishErr(done, err)
		return
	}
	delete(s.pending, lineID)

	if err != nil {
		s.mu.Unlock()
		s.emit("removalFailed")
		finishErr(done, err)
		return
	}

	if idx := s.indexLocked(lineID); idx >= 0 {
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	}
	delete(s.proposed, lineID)
	s.mu.Unlock()
	s.emit("lineRemoved")
	finishErr(done, nil)
}

// Checkout verifies the preconditions (non-empty cart, every line
// available or pending) before any network call, then sends the full line
// snapshot and total. Success clears the cart wholesale; failure leaves it
// exactly as it was.
func (s *Store) Checkout(idemKey string, done func(models.CheckoutResponse, error)) error {
	s.mu.Lock()
	if len(s.lines) == 0 {
		s.mu.Unlock()
		return faults.ErrEmptyCart
	}
	for _, l := range s.lines {
		if !l.CheckoutEligible() {
			s.mu.Unlock()
			return fmt.Errorf("cart line %d is %s: %w", l.CartID, l.Status, faults.ErrUnavailableItems)
		}
	}
	snapshot := make([]models.CartLine, len(s.lines))
	copy(snapshot, s.lines)
	totals := pricing.Compute(snapshot)
	s.mu.Unlock()

	go func() {
		resp, err := s.remote.Checkout(context.Background(), gateway.CheckoutRequest{
			Owner:          s.owner,
			Lines:          snapshot,
			Total:          totals.Total,
			IdempotencyKey: idemKey,
		})
		if err != nil {
			if done != nil {
				done(models.CheckoutResponse{}, err)
			}
			return
		}
		s.mu.Lock()
		s.lines = nil
		s.pending = make(map[int]pendingMutation)
		s.proposed = make(map[int]bool)
		s.mu.Unlock()
		s.emit("cleared")
		if done != nil {
			done(resp, nil)
		}
	}()
	return nil
}

// Lines returns a copy of the current cart lines.
func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Totals computes the current cart totals.
func (s *Store) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Compute(s.lines)
}

// TotalItems sums quantities over all lines.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// RemovalProposed reports whether a removal proposal is open for a line.
func (s *Store) RemovalProposed(lineID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposed[lineID]
}

// Busy reports whether a mutation is in flight for a line.
func (s *Store) Busy(lineID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[lineID]
	return ok
}

// View returns the full cart read model.
func (s *Store) View() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)
	proposed := make([]int, 0, len(s.proposed))
	for id := range s.proposed {
		proposed = append(proposed, id)
	}
	inflight := make([]int, 0, len(s.pending))
	for id := range s.pending {
		inflight = append(inflight, id)
	}
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return Snapshot{
		Lines:      lines,
		Totals:     pricing.Compute(lines),
		TotalItems: n,
		Proposed:   proposed,
		InFlight:   inflight,
	}
}

func (s *Store) indexLocked(lineID int) int {
	for i, l := range s.lines {
		if l.CartID == lineID {
			return i
		}
	}
	return -1
}

func finishErr(done func(error), err error) {
	if done != nil {
		done(err)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"tailcart/faults"
	"tailcart/models"
	"tailcart/rdx"
	"tailcart/utils"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
)

// GetCart returns the full cart read model.
func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, e.Cart.View())
}

// RefreshCart replaces the local lines with the server's.
func (h *Handlers) RefreshCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	done := make(chan error, 1)
	e.Cart.Refresh(func(err error) { done <- err })
	if err, ok := awaitErr(done); !ok {
		respondTimeout(w)
		return
	} else if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, e.Cart.View())
}

// AddCartLine creates a new cart line directly, bypassing the guided flow.
func (h *Handlers) AddCartLine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var body struct {
		Product  int `json:"product"`
		Pet      int `json:"pet"`
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, faults.Validation("invalid cart line payload"))
		return
	}

	type result struct {
		line models.CartLine
		err  error
	}
	done := make(chan result, 1)
	if err := e.Cart.AddLine(body.Product, body.Pet, body.Quantity, func(line models.CartLine, err error) {
		done <- result{line, err}
	}); err != nil {
		respondErr(w, err)
		return
	}
	select {
	case res := <-done:
		if res.err != nil {
			respondErr(w, res.err)
			return
		}
		utils.RespondWithJSON(w, http.StatusCreated, res.line)
	case <-timeoutChan():
		respondTimeout(w)
	}
}

// UpdateCartQuantity changes a line's quantity optimistically. The response
// reflects the server-confirmed state (or the rollback on failure).
func (h *Handlers) UpdateCartQuantity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	lineID, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		respondErr(w, faults.Validation("invalid cart line id %q", ps.ByName("id")))
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, faults.Validation("invalid quantity payload"))
		return
	}

	done := make(chan error, 1)
	if err := e.Cart.UpdateQuantity(lineID, body.Quantity, func(err error) { done <- err }); err != nil {
		respondErr(w, err)
		return
	}
	if err, ok := awaitErr(done); !ok {
		respondTimeout(w)
		return
	} else if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, e.Cart.View())
}

// ProposeRemoval opens the two-step removal for a line. Nothing is deleted
// until the caller confirms.
func (h *Handlers) ProposeRemoval(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	lineID, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		respondErr(w, faults.Validation("invalid cart line id %q", ps.ByName("id")))
		return
	}
	if err := e.Cart.ProposeRemoval(lineID); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"proposed": lineID})
}

// CancelRemoval abandons an open removal proposal.
func (h *Handlers) CancelRemoval(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	lineID, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		respondErr(w, faults.Validation("invalid cart line id %q", ps.ByName("id")))
		return
	}
	e.Cart.CancelRemoval(lineID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"kept": lineID})
}

// ConfirmRemoval executes a proposed removal against the server.
func (h *Handlers) ConfirmRemoval(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	lineID, err := strconv.Atoi(ps.ByName("id"))
	if err != nil {
		respondErr(w, faults.Validation("invalid cart line id %q", ps.ByName("id")))
		return
	}

	done := make(chan error, 1)
	if err := e.Cart.ConfirmRemoval(lineID, func(err error) { done <- err }); err != nil {
		respondErr(w, err)
		return
	}
	if err, ok := awaitErr(done); !ok {
		respondTimeout(w)
		return
	} else if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, e.Cart.View())
}

// Checkout submits the whole cart. An Idempotency-Key header makes retries
// safe; without one the handler mints a key so at least its own upstream
// call is tagged.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		key = uuid.NewString()
	}
	owner := utils.GetUserIDFromRequest(r)
	if owner == "" {
		owner = e.Session.OwnerID
	}
	fresh, err := rdx.MarkCheckoutAttempt(r.Context(), owner, key, h.checkoutIdemTTL)
	if err != nil {
		respondErr(w, faults.Network(err))
		return
	}
	if !fresh {
		utils.RespondWithError(w, http.StatusConflict, "checkout already submitted with this key")
		return
	}

	type result struct {
		resp models.CheckoutResponse
		err  error
	}
	done := make(chan result, 1)
	if err := e.Cart.Checkout(key, func(resp models.CheckoutResponse, err error) {
		done <- result{resp, err}
	}); err != nil {
		// precondition failed before anything was sent; the key must stay
		// usable for the corrected retry
		rdx.ClearCheckoutAttempt(r.Context(), owner, key)
		respondErr(w, err)
		return
	}
	select {
	case res := <-done:
		if res.err != nil {
			respondErr(w, res.err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{
			"message": res.resp.Message,
			"cart":    e.Cart.View(),
		})
	case <-timeoutChan():
		respondTimeout(w)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"tailcart/faults"
	"tailcart/utils"

	"github.com/julienschmidt/httprouter"
)

// GetFlow returns the current add-to-cart flow state.
func (h *Handlers) GetFlow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, e.Flow.Current())
}

// StartFlow begins the guided add-to-cart for a catalog product.
func (h *Handlers) StartFlow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var body struct {
		ProductID int `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, faults.Validation("invalid flow payload"))
		return
	}
	if err := e.StartFlow(body.ProductID); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, e.Flow.Current())
}

// SelectFlowTarget picks the pet the product is for.
func (h *Handlers) SelectFlowTarget(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var body struct {
		PetID int `json:"petId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, faults.Validation("invalid flow payload"))
		return
	}
	if err := e.Flow.SelectTarget(body.PetID); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, e.Flow.Current())
}

// SelectFlowQuantity picks the quantity.
func (h *Handlers) SelectFlowQuantity(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, faults.Validation("invalid flow payload"))
		return
	}
	if err := e.Flow.SelectQuantity(body.Quantity); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, e.Flow.Current())
}

// CommitFlow hands the collected selections to the cart store and waits for
// the server verdict.
func (h *Handlers) CommitFlow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	done := make(chan error, 1)
	if err := e.Flow.Commit(func(err error) { done <- err }); err != nil {
		respondErr(w, err)
		return
	}
	if err, ok := awaitErr(done); !ok {
		respondTimeout(w)
		return
	} else if err != nil {
		utils.RespondWithJSON(w, faults.Status(err), utils.M{
			"error": err.Error(),
			"flow":  e.Flow.Current(),
		})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"flow": e.Flow.Current(),
		"cart": e.Cart.View(),
	})
}

// CancelFlow aborts the flow, discarding its selections.
func (h *Handlers) CancelFlow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	e.Flow.Cancel()
	utils.RespondWithJSON(w, http.StatusOK, e.Flow.Current())
}

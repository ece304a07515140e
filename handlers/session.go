package handlers

import (
	"net/http"

	"tailcart/utils"

	"github.com/julienschmidt/httprouter"
)

// GetPets lists the caller's registered pets, the valid targets for an
// add-to-cart flow.
func (h *Handlers) GetPets(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"ownerId": e.Session.OwnerID,
		"pets":    e.Session.Pets,
	})
}

// Health is the liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"status": "ok"})
}

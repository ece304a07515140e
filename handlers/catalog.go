package handlers

import (
	"encoding/json"
	"net/http"

	"tailcart/catalog"
	"tailcart/engine"
	"tailcart/faults"
	"tailcart/models"
	"tailcart/utils"

	"github.com/julienschmidt/httprouter"
)

// productView decorates a product with its rendered star summary.
type productView struct {
	models.Product
	Stars string `json:"stars"`
}

type catalogView struct {
	Products []productView     `json:"products"`
	Page     catalog.PageInfo  `json:"page"`
	Filter   models.FilterSpec `json:"filter"`
	Sort     models.SortKey    `json:"sort"`
	Version  uint64            `json:"version"`
}

func (h *Handlers) catalogViewOf(e *engine.Engine) catalogView {
	visible := e.Catalog.VisibleProducts()
	products := make([]productView, 0, len(visible))
	for _, p := range visible {
		products = append(products, productView{Product: p, Stars: models.Stars(p.Rating())})
	}
	return catalogView{
		Products: products,
		Page:     e.Catalog.Page(),
		Filter:   e.Catalog.Filter(),
		Sort:     e.Catalog.Sort(),
		Version:  e.Catalog.Version(),
	}
}

// GetCatalog returns the visible slice plus the full view state.
func (h *Handlers) GetCatalog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// ReloadCatalog refetches the product set from the upstream (or cache) and
// resets the view. ?force=1 drops the cached list first.
func (h *Handlers) ReloadCatalog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	force := r.URL.Query().Get("force") == "1" || r.URL.Query().Get("force") == "true"
	if err := e.ReloadCatalog(r.Context(), force); err != nil {
		respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// SetFilters replaces the active filter spec.
func (h *Handlers) SetFilters(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var spec models.FilterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondErr(w, faults.Validation("invalid filter payload"))
		return
	}
	e.Catalog.SetFilter(spec)
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// ClearFilters resets the filter spec to its defaults.
func (h *Handlers) ClearFilters(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	e.Catalog.ClearFilters()
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// SetSort changes the catalog ordering. Unknown keys fall back to featured.
func (h *Handlers) SetSort(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var body struct {
		Sort models.SortKey `json:"sort"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, faults.Validation("invalid sort payload"))
		return
	}
	e.Catalog.SetSort(body.Sort)
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// NextPage advances the desktop page cursor.
func (h *Handlers) NextPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	e.Catalog.NextPage()
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// PreviousPage moves the desktop page cursor back.
func (h *Handlers) PreviousPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	e.Catalog.PreviousPage()
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// LoadMore appends the next batch to the accumulating visible list.
func (h *Handlers) LoadMore(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	e.Catalog.LoadMore()
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// Scroll feeds the client's scroll position; the store decides whether it
// triggers a load-more.
func (h *Handlers) Scroll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var body struct {
		Fraction float64 `json:"fraction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, faults.Validation("invalid scroll payload"))
		return
	}
	e.Catalog.OnScroll(body.Fraction)
	utils.RespondWithJSON(w, http.StatusOK, h.catalogViewOf(e))
}

// SetPresentation flips between mobile (infinite scroll) and desktop
// (paged) presentation.
func (h *Handlers) SetPresentation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	var body struct {
		Mobile bool `json:"mobile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondErr(w, faults.Validation("invalid presentation payload"))
		return
	}
	e.Catalog.SetMobilePresentation(body.Mobile)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"mobile": body.Mobile})
}

// CategoryCount reports how many products carry one category tag, for the
// filter sidebar.
func (h *Handlers) CategoryCount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := h.engineFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	breed := ps.ByName("breed")
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"breed": breed,
		"count": e.Catalog.CountByCategory(breed),
	})
}

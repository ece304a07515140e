package catalog

import (
	"sort"
	"strings"
	"sync"

	"tailcart/models"
)

// DefaultPageSize matches the storefront grid.
const DefaultPageSize = 12

// scrollThreshold is how far down the page the user must be before
// infinite scroll pulls the next batch.
const scrollThreshold = 0.8

// Store holds the full product set plus the derived filtered, sorted and
// paginated view. It never touches the network; Load replaces the set
// wholesale. All methods are safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	products []models.Product
	filtered []models.Product

	filter   models.FilterSpec
	sortKey  models.SortKey
	pageSize int

	currentPage int
	totalPages  int
	visible     []models.Product
	allLoaded   bool
	mobile      bool

	version uint64
	subs    []func(models.ChangeEvent)
}

// PageInfo is the pagination read model.
type PageInfo struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	PageSize      int  `json:"pageSize"`
	TotalFiltered int  `json:"totalFiltered"`
	AllLoaded     bool `json:"allProductsLoaded"`
}

// NewStore builds an empty catalog store.
func NewStore(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{
		filter:      models.DefaultFilter(),
		sortKey:     models.SortFeatured,
		pageSize:    pageSize,
		currentPage: 1,
		totalPages:  1,
	}
}

// Subscribe registers a change listener. Listeners run outside the store
// lock and must not call back into the store synchronously.
func (s *Store) Subscribe(fn func(models.ChangeEvent)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Version increments on every view change, for pollers.
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
		fn(models.ChangeEvent{Scope: "catalog", Name: name})
	}
}

// Load replaces the product set and resets filter, sort and pagination to
// their defaults.
func (s *Store) Load(products []models.Product) {
	s.mu.Lock()
	s.products = make([]models.Product, len(products))
	copy(s.products, products)
	s.filter = models.DefaultFilter()
	s.sortKey = models.SortFeatured
	s.currentPage = 1
	s.allLoaded = false
	s.recompute()
	s.mu.Unlock()
	s.emit("loaded")
}

// SetFilter applies a filter spec (clamped) and recomputes the view.
func (s *Store) SetFilter(f models.FilterSpec) {
	s.mu.Lock()
	s.filter = f.Clamped()
	s.recompute()
	s.mu.Unlock()
	s.emit("filtered")
}

// ClearFilters resets the filter spec to defaults.
func (s *Store) ClearFilters() {
	s.SetFilter(models.DefaultFilter())
}

// SetSort applies a sort key; unknown keys fall back to featured order.
func (s *Store) SetSort(k models.SortKey) {
	if !k.Valid() {
		k = models.SortFeatured
	}
	s.mu.Lock()
	s.sortKey = k
	s.recompute()
	s.mu.Unlock()
	s.emit("sorted")
}

// NextPage advances the page cursor (desktop pagination).
func (s *Store) NextPage() {
	s.mu.Lock()
	if s.currentPage >= s.totalPages {
		s.mu.Unlock()
		return
	}
	s.currentPage++
	s.paginate()
	s.mu.Unlock()
	s.emit("paged")
}

// PreviousPage moves the page cursor back.
func (s *Store) PreviousPage() {
	s.mu.Lock()
	if s.currentPage <= 1 {
		s.mu.Unlock()
		return
	}
	s.currentPage--
	s.paginate()
	s.mu.Unlock()
	s.emit("paged")
}

// LoadMore appends the next page to the accumulating visible list
// (infinite scroll). Once the filtered set is exhausted it is a no-op;
// only a Load resets the exhausted flag.
func (s *Store) LoadMore() {
	s.mu.Lock()
	if s.allLoaded {
		s.mu.Unlock()
		return
	}
	s.currentPage++
	end := s.currentPage * s.pageSize
	if end > len(s.filtered) {
		end = len(s.filtered)
	}
	s.visible = s.filtered[:end]
	s.allLoaded = end >= len(s.filtered)
	s.mu.Unlock()
	s.emit("paged")
}

// SetMobilePresentation flips the presentation-mode flag. Viewport
// detection belongs to the caller; the store only honors the flag.
func (s *Store) SetMobilePresentation(mobile bool) {
	s.mu.Lock()
	s.mobile = mobile
	s.mu.Unlock()
}

// OnScroll feeds the scroll position as a fraction of total scrollable
// height. Past 80%, and only in mobile presentation, it pulls more.
func (s *Store) OnScroll(fraction float64) {
	s.mu.Lock()
	trigger := s.mobile && !s.allLoaded && fraction >= scrollThreshold
	s.mu.Unlock()
	if trigger {
		s.LoadMore()
	}
}

// VisibleProducts returns a copy of the current visible slice.
func (s *Store) VisibleProducts() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.visible))
	copy(out, s.visible)
	return out
}

// Page returns the pagination read model.
func (s *Store) Page() PageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PageInfo{
		CurrentPage:   s.currentPage,
		TotalPages:    s.totalPages,
		PageSize:      s.pageSize,
		TotalFiltered: len(s.filtered),
		AllLoaded:     s.allLoaded,
	}
}

// Filter returns the active filter spec.
func (s *Store) Filter() models.FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Sort returns the active sort key.
func (s *Store) Sort() models.SortKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortKey
}

// ProductByID looks a product up in the full set.
func (s *Store) ProductByID(id int) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return models.Product{}, false
}

// CountByCategory counts products of one category tag over the full set,
// for the filter sidebar.
func (s *Store) CountByCategory(breed string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.products {
		if p.Breed == breed {
			n++
		}
	}
	return n
}

// recompute rebuilds filtered, then sorted, then paginated state, in that
// order. Caller holds the lock.
func (s *Store) recompute() {
	s.filtered = s.filtered[:0]
	for _, p := range s.products {
		if matches(p, s.filter) {
			s.filtered = append(s.filtered, p)
		}
	}
	sortProducts(s.filtered, s.sortKey)
	s.paginate()
}

// paginate recomputes page bounds and the visible window for the current
// cursor. Caller holds the lock.
func (s *Store) paginate() {
	s.totalPages = (len(s.filtered) + s.pageSize - 1) / s.pageSize
	if s.totalPages < 1 {
		s.totalPages = 1
	}
	if s.currentPage > s.totalPages {
		s.currentPage = s.totalPages
	}
	if s.currentPage < 1 {
		s.currentPage = 1
	}
	start := (s.currentPage - 1) * s.pageSize
	end := s.currentPage * s.pageSize
	if start > len(s.filtered) {
		start = len(s.filtered)
	}
	if end > len(s.filtered) {
		end = len(s.filtered)
	}
	s.visible = s.filtered[start:end]
	if end >= len(s.filtered) {
		s.allLoaded = true
	}
}

// matches is the filter predicate: AND across dimensions, OR inside one.
func matches(p models.Product, f models.FilterSpec) bool {
	if p.Price > f.MaxPrice {
		return false
	}
	if len(f.Breeds) > 0 && !containsString(f.Breeds, p.Breed) {
		return false
	}
	if len(f.Deals) > 0 && !containsString(f.Deals, p.DealTag()) {
		return false
	}
	if len(f.Materials) > 0 {
		desc := strings.ToLower(p.ProductInfo)
		found := false
		for _, kw := range f.Materials {
			if kw != "" && strings.Contains(desc, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return p.Rating() >= f.MinRating
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// sortProducts orders products by key with a stable id-ascending tie-break
// in every case, so repeated sorts are idempotent.
func sortProducts(ps []models.Product, key models.SortKey) {
	byID := func(a, b models.Product) bool { return a.ID < b.ID }
	var less func(a, b models.Product) bool
	switch key {
	case models.SortPriceAsc:
		less = func(a, b models.Product) bool {
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return byID(a, b)
		}
	case models.SortPriceDesc:
		less = func(a, b models.Product) bool {
			if a.Price != b.Price {
				return a.Price > b.Price
			}
			return byID(a, b)
		}
	case models.SortNameAsc:
		less = func(a, b models.Product) bool {
			if a.Model != b.Model {
				return a.Model < b.Model
			}
			return byID(a, b)
		}
	case models.SortRatingDesc:
		less = func(a, b models.Product) bool {
			ra, rb := a.Rating(), b.Rating()
			if ra != rb {
				return ra > rb
			}
			return byID(a, b)
		}
	case models.SortNewest:
		less = func(a, b models.Product) bool { return a.ID > b.ID }
	default: // featured
		less = byID
	}
	sort.SliceStable(ps, func(i, j int) bool { return less(ps[i], ps[j]) })
}

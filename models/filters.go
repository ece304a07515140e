package models

// DefaultMaxPrice matches the storefront's price slider ceiling.
const DefaultMaxPrice int64 = 1000

// FilterSpec describes which products are visible. Dimensions AND together;
// an empty set in a dimension imposes no constraint (OR inside it).
type FilterSpec struct {
	Breeds    []string `json:"breeds"`    // category tags
	Deals     []string `json:"deals"`     // canonical deal tags (DealHotSale, DealBestseller)
	Materials []string `json:"materials"` // keywords matched as substrings of the description
	MaxPrice  int64    `json:"maxPrice"`  // inclusive upper bound
	MinRating float64  `json:"minRating"` // inclusive lower bound
}

// DefaultFilter is the view state after a catalog load or a filter reset.
func DefaultFilter() FilterSpec {
	return FilterSpec{MaxPrice: DefaultMaxPrice, MinRating: 0}
}

// Clamped returns a copy with out-of-range values pulled back in bounds.
func (f FilterSpec) Clamped() FilterSpec {
	if f.MaxPrice < 0 {
		f.MaxPrice = 0
	}
	if f.MinRating < 0 {
		f.MinRating = 0
	}
	if f.MinRating > 5 {
		f.MinRating = 5
	}
	return f
}

// SortKey selects the catalog ordering.
type SortKey string

const (
	SortFeatured   SortKey = "featured"
	SortPriceAsc   SortKey = "priceAsc"
	SortPriceDesc  SortKey = "priceDesc"
	SortNameAsc    SortKey = "nameAsc"
	SortRatingDesc SortKey = "ratingDesc"
	SortNewest     SortKey = "newest"
)

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	switch k {
	case SortFeatured, SortPriceAsc, SortPriceDesc, SortNameAsc, SortRatingDesc, SortNewest:
		return true
	}
	return false
}

package catalog

import (
	"fmt"
	"testing"

	"tailcart/models"
)

func sampleProducts() []models.Product {
	return []models.Product{
		{ID: 1, Model: "Glass Bowl", ProductInfo: "A sturdy glass feeding bowl", Price: 120, Breed: "Dog", Reviews: "4.5", Deals: "Hot Sale"},
		{ID: 2, Model: "Wood Kennel", ProductInfo: "Handmade wood kennel", Price: 900, Breed: "Dog", Reviews: "3.9"},
		{ID: 3, Model: "Cat Tower", ProductInfo: "Plush tower with transparent tunnel", Price: 450, Breed: "Cat", Reviews: "4.8", Deals: "Bestseller"},
		{ID: 4, Model: "Ball", ProductInfo: "Rubber ball", Price: 30, Breed: "Dog", Reviews: ""},
		{ID: 5, Model: "Aquarium", ProductInfo: "Glass aquarium kit", Price: 999, Breed: "Cat", Reviews: "not-a-number"},
	}
}

func TestFilteredIsSubsetAndMatchesFilter(t *testing.T) {
	s := NewStore(12)
	s.Load(sampleProducts())

	spec := models.FilterSpec{
		Breeds:    []string{"Dog"},
		Materials: []string{"glass", "wood"},
		MaxPrice:  950,
		MinRating: 3.5,
	}
	s.SetFilter(spec)

	visible := s.VisibleProducts()
	if len(visible) != 2 {
		t.Fatalf("expected 2 products, got %d", len(visible))
	}
	for _, p := range visible {
		if p.Breed != "Dog" {
			t.Fatalf("product %d escaped the breed filter", p.ID)
		}
		if p.Price > 950 {
			t.Fatalf("product %d escaped the price filter", p.ID)
		}
		if p.Rating() < 3.5 {
			t.Fatalf("product %d escaped the rating filter", p.ID)
		}
	}
}

func TestEmptyDimensionsImposeNoConstraint(t *testing.T) {
	s := NewStore(12)
	s.Load(sampleProducts())
	s.SetFilter(models.FilterSpec{MaxPrice: 1000})

	if got := len(s.VisibleProducts()); got != len(sampleProducts()) {
		t.Fatalf("expected all %d products, got %d", len(sampleProducts()), got)
	}
}

func TestUnparsableRatingCountsAsZero(t *testing.T) {
	s := NewStore(12)
	s.Load(sampleProducts())
	s.SetFilter(models.FilterSpec{MaxPrice: 1000, MinRating: 0.1})

	for _, p := range s.VisibleProducts() {
		if p.ID == 4 || p.ID == 5 {
			t.Fatalf("product %d has no parsable rating and must be filtered out", p.ID)
		}
	}
}

func TestNegativeMaxPriceIsClampedToZero(t *testing.T) {
	s := NewStore(12)
	s.Load(sampleProducts())
	s.SetFilter(models.FilterSpec{MaxPrice: -50})

	if got := len(s.VisibleProducts()); got != 0 {
		t.Fatalf("expected empty view with clamped zero price cap, got %d", got)
	}
	if f := s.Filter(); f.MaxPrice != 0 {
		t.Fatalf("expected clamped MaxPrice 0, got %d", f.MaxPrice)
	}
}

func TestSortStableAndIdempotent(t *testing.T) {
	keys := []models.SortKey{
		models.SortFeatured, models.SortPriceAsc, models.SortPriceDesc,
		models.SortNameAsc, models.SortRatingDesc, models.SortNewest,
	}
	for _, key := range keys {
		s := NewStore(12)
		s.Load(sampleProducts())
		s.SetSort(key)
		first := s.VisibleProducts()
		s.SetSort(key)
		second := s.VisibleProducts()
		if len(first) != len(second) {
			t.Fatalf("%s: length changed between sorts", key)
		}
		for i := range first {
			if first[i].ID != second[i].ID {
				t.Fatalf("%s: sort is not idempotent at index %d", key, i)
			}
		}
	}
}

func TestSortOrders(t *testing.T) {
	s := NewStore(12)
	s.Load(sampleProducts())

	s.SetSort(models.SortPriceAsc)
	v := s.VisibleProducts()
	for i := 1; i < len(v); i++ {
		if v[i-1].Price > v[i].Price {
			t.Fatalf("priceAsc out of order at %d", i)
		}
	}

	s.SetSort(models.SortRatingDesc)
	v = s.VisibleProducts()
	for i := 1; i < len(v); i++ {
		if v[i-1].Rating() < v[i].Rating() {
			t.Fatalf("ratingDesc out of order at %d", i)
		}
	}

	s.SetSort(models.SortNewest)
	v = s.VisibleProducts()
	for i := 1; i < len(v); i++ {
		if v[i-1].ID < v[i].ID {
			t.Fatalf("newest out of order at %d", i)
		}
	}
}

func manyProducts(n int) []models.Product {
	ps := make([]models.Product, 0, n)
	for i := 1; i <= n; i++ {
		ps = append(ps, models.Product{
			ID:    i,
			Model: fmt.Sprintf("Item %02d", i),
			Price: int64(10 * i),
			Breed: "Dog",
		})
	}
	return ps
}

func TestCursorPagination(t *testing.T) {
	s := NewStore(12)
	s.Load(manyProducts(30))

	if got := len(s.VisibleProducts()); got != 12 {
		t.Fatalf("page 1: expected 12 items, got %d", got)
	}
	s.NextPage()
	if got := len(s.VisibleProducts()); got != 12 {
		t.Fatalf("page 2: expected 12 items, got %d", got)
	}
	s.NextPage()
	if got := len(s.VisibleProducts()); got != 6 {
		t.Fatalf("page 3: expected the remaining 6 items, got %d", got)
	}

	pi := s.Page()
	if pi.CurrentPage != 3 || pi.TotalPages != 3 || !pi.AllLoaded {
		t.Fatalf("unexpected page info: %+v", pi)
	}

	// cursor does not run off the end
	s.NextPage()
	if s.Page().CurrentPage != 3 {
		t.Fatalf("cursor moved past the last page")
	}
}

func TestLoadMoreAccumulatesAndStops(t *testing.T) {
	s := NewStore(12)
	s.Load(manyProducts(30))

	s.LoadMore()
	if got := len(s.VisibleProducts()); got != 24 {
		t.Fatalf("after one LoadMore: expected 24 items, got %d", got)
	}
	s.LoadMore()
	if got := len(s.VisibleProducts()); got != 30 {
		t.Fatalf("after two LoadMore: expected 30 items, got %d", got)
	}
	if !s.Page().AllLoaded {
		t.Fatal("expected allProductsLoaded after exhausting the set")
	}

	before := s.Version()
	s.LoadMore()
	if got := len(s.VisibleProducts()); got != 30 {
		t.Fatalf("exhausted LoadMore must be a no-op, got %d items", got)
	}
	if !s.Page().AllLoaded {
		t.Fatal("allProductsLoaded must stay set")
	}
	if s.Version() != before {
		t.Fatal("exhausted LoadMore must not emit a change")
	}
}

func TestScrollPolicyOnlyInMobilePresentation(t *testing.T) {
	s := NewStore(12)
	s.Load(manyProducts(30))

	// desktop presentation: scroll does nothing
	s.OnScroll(0.95)
	if got := len(s.VisibleProducts()); got != 12 {
		t.Fatalf("desktop scroll must not load more, got %d items", got)
	}

	s.SetMobilePresentation(true)
	s.OnScroll(0.5)
	if got := len(s.VisibleProducts()); got != 12 {
		t.Fatalf("below-threshold scroll must not load more, got %d items", got)
	}
	s.OnScroll(0.85)
	if got := len(s.VisibleProducts()); got != 24 {
		t.Fatalf("mobile scroll past 80%% must load more, got %d items", got)
	}
}

func TestLoadResetsViewState(t *testing.T) {
	s := NewStore(12)
	s.Load(manyProducts(30))
	s.SetFilter(models.FilterSpec{MaxPrice: 100})
	s.SetSort(models.SortPriceDesc)
	s.LoadMore()

	s.Load(manyProducts(5))
	if f := s.Filter(); f.MaxPrice != models.DefaultMaxPrice {
		t.Fatalf("filter not reset on load: %+v", f)
	}
	if s.Sort() != models.SortFeatured {
		t.Fatalf("sort not reset on load: %s", s.Sort())
	}
	pi := s.Page()
	if pi.CurrentPage != 1 {
		t.Fatalf("page cursor not reset on load: %+v", pi)
	}
	if got := len(s.VisibleProducts()); got != 5 {
		t.Fatalf("expected 5 visible after reload, got %d", got)
	}
}

func TestCountByCategoryUsesFullSet(t *testing.T) {
	s := NewStore(12)
	s.Load(sampleProducts())
	s.SetFilter(models.FilterSpec{Breeds: []string{"Cat"}, MaxPrice: 1000})

	if got := s.CountByCategory("Dog"); got != 3 {
		t.Fatalf("expected 3 dogs over the full set, got %d", got)
	}
}

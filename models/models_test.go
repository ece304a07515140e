package models

import "testing"

func TestStars(t *testing.T) {
	cases := []struct {
		rating float64
		want   string
	}{
		{0, "☆☆☆☆☆"},
		{2.5, "★★½☆☆"},
		{4.4, "★★★★☆"}, // below the half-star boundary
		{4.5, "★★★★½"},
		{5, "★★★★★"},
		{-1, "☆☆☆☆☆"}, // clamped
		{6.3, "★★★★★"},
	}
	for _, c := range cases {
		if got := Stars(c.rating); got != c.want {
			t.Fatalf("Stars(%v): got %q, want %q", c.rating, got, c.want)
		}
	}
}

func TestDealTagNormalizesLabels(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Hot Sale", DealHotSale},
		{"hotsale", DealHotSale},
		{"Bestseller", DealBestseller},
		{"", DealNone},
		{"Clearance", DealNone},
	}
	for _, c := range cases {
		p := Product{Deals: c.raw}
		if got := p.DealTag(); got != c.want {
			t.Fatalf("DealTag(%q): got %q, want %q", c.raw, got, c.want)
		}
	}
}

package pricing

import "tailcart/models"

// TaxRateBps is the GST slab applied to the cart subtotal, in basis points.
const TaxRateBps int64 = 1800

// Totals aggregates the computed cart amounts in whole currency units.
type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Subtotal sums unit price snapshot × quantity over all lines.
func Subtotal(lines []models.CartLine) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.ProductPrice * int64(l.Quantity)
	}
	return sum
}

// Tax applies TaxRateBps to the subtotal, rounding half up to the nearest
// whole currency unit.
func Tax(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	return (subtotal*TaxRateBps + 5000) / 10000
}

// Compute derives the full totals for a set of cart lines.
func Compute(lines []models.CartLine) Totals {
	sub := Subtotal(lines)
	tax := Tax(sub)
	return Totals{Subtotal: sub, Tax: tax, Total: sub + tax}
}

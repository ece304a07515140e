package models

import (
	"math"
	"strconv"
	"strings"
)

// Product is one catalog entry as served by the store API. The client never
// mutates a Product; reloads replace the whole set.
type Product struct {
	ID          int    `json:"id"`
	Model       string `json:"model"`        // display name
	ProductInfo string `json:"product_info"` // free-text description, used for material matching
	Price       int64  `json:"price"`        // whole currency units
	Breed       string `json:"breed"`        // category tag, e.g. "Dog", "Cat"
	Quantity    int    `json:"quantity"`     // stock on hand
	Image       string `json:"image"`
	Reviews     string `json:"reviews"` // rating as a decimal string; may be empty or junk
	Deals       string `json:"deals"`   // "Hot Sale", "Bestseller" or empty
}

// Deal tags in canonical form.
const (
	DealNone       = ""
	DealHotSale    = "hotSale"
	DealBestseller = "bestseller"
)

// DealTag normalizes the raw Deals label.
func (p Product) DealTag() string {
	switch strings.ToLower(strings.TrimSpace(p.Deals)) {
	case "hot sale", "hotsale":
		return DealHotSale
	case "bestseller":
		return DealBestseller
	default:
		return DealNone
	}
}

// Rating parses the Reviews string; anything unparsable counts as 0.
func (p Product) Rating() float64 {
	r, err := strconv.ParseFloat(strings.TrimSpace(p.Reviews), 64)
	if err != nil || math.IsNaN(r) {
		return 0
	}
	return r
}

// Stars renders a five-star summary like "★★★½☆" for a rating.
func Stars(rating float64) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	full := int(rating)
	half := 0
	if rating-float64(full) >= 0.5 {
		half = 1
	}
	empty := 5 - full - half
	s := strings.Repeat("★", full)
	if half == 1 {
		s += "½"
	}
	return s + strings.Repeat("☆", empty)
}

// Cart line statuses as reported by the store API. Only available and
// pending lines may be checked out.
const (
	StatusAvailable      = "available"
	StatusPending        = "pending"
	StatusUnavailable    = "unavailable"
	StatusOrdered        = "ordered"
	StatusShipped        = "shipped"
	StatusOutForDelivery = "out_for_delivery"
	StatusDelivered      = "delivered"
)

// CartLine is one line of the owner's cart. The engine owns these between
// a confirmed create and a confirmed delete (or a successful checkout).
type CartLine struct {
	CartID       int    `json:"cart_id"`
	ProductName  string `json:"product_name"`
	PetName      string `json:"pet_name"`
	Quantity     int    `json:"quantity"`
	ProductPrice int64  `json:"product_price"` // unit price snapshot taken at add time
	Status       string `json:"status"`
	ProductImage string `json:"product_image,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
	Owner        int    `json:"owner"`
	Pet          int    `json:"pet"`
	Product      int    `json:"product"`
}

// CheckoutEligible reports whether a line may pass checkout.
func (l CartLine) CheckoutEligible() bool {
	return l.Status == StatusAvailable || l.Status == StatusPending
}

// Quantity bounds enforced on every cart line.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// QuantityInRange reports whether q is a legal cart line quantity.
func QuantityInRange(q int) bool {
	return q >= MinQuantity && q <= MaxQuantity
}

// Pet is a registered pet of the owner, the target a cart line is bought
// for. Owned by the profile subsystem; read-only here.
type Pet struct {
	PetID   int    `json:"pet_id"`
	PetName string `json:"pet_name"`
	Species string `json:"species,omitempty"`
	Breed   string `json:"breed,omitempty"`
}

// CheckoutResponse is the store API's acknowledgement of a placed order.
type CheckoutResponse struct {
	Message string `json:"message"`
}

// ChangeEvent is pushed to subscribers whenever a store's read model moves.
type ChangeEvent struct {
	Scope string `json:"scope"` // "catalog", "cart" or "flow"
	Name  string `json:"name"`  // e.g. "updated", "rolledBack", "cleared"
}

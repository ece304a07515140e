package session

import (
	"context"
	"fmt"
	"strings"

	"tailcart/gateway"
	"tailcart/globals"
	"tailcart/models"

	"github.com/golang-jwt/jwt/v5"
)

// JWT claims
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"userId"`
	jwt.RegisteredClaims
}

// ParseToken verifies a token (with or without the "Bearer " prefix) and
// returns its claims.
func ParseToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if after, ok := strings.CutPrefix(tokenString, "Bearer "); ok {
		tokenString = after
	}
	if tokenString == "" {
		return nil, fmt.Errorf("missing token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("token carries no user id")
	}
	return claims, nil
}

// Context is the read-only session identity the engine works under: who
// the owner is and which pets they have registered. It is supplied from
// outside; the stores never reach into ambient storage for it.
type Context struct {
	OwnerID string
	Token   string
	Pets    []models.Pet
}

// Authenticated reports whether the session belongs to a signed-in owner.
func (c Context) Authenticated() bool {
	return c.OwnerID != "" && c.Token != ""
}

// Build verifies the token and fetches the owner's registered pets from
// the store API.
func Build(ctx context.Context, bearer string, remote gateway.Remote) (Context, error) {
	claims, err := ParseToken(bearer)
	if err != nil {
		return Context{}, err
	}
	pets, err := remote.ListPets(ctx, claims.UserID)
	if err != nil {
		return Context{}, fmt.Errorf("fetching pets: %w", err)
	}
	return Context{
		OwnerID: claims.UserID,
		Token:   bearer,
		Pets:    pets,
	}, nil
}

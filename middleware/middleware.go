package middleware

import (
	"context"
	"net/http"

	"tailcart/globals"
	"tailcart/session"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// Middleware wraps one httprouter handle in another.
type Middleware func(httprouter.Handle) httprouter.Handle

// Chain composes middlewares so the first listed runs outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Authenticate verifies the Bearer token and stores the owner id in the
// request context. Websocket upgrades pass through; the socket handler
// authenticates from its query token instead.
func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if websocket.IsWebSocketUpgrade(r) {
			next(w, r, ps)
			return
		}

		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		claims, err := session.ParseToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		next(w, r.WithContext(ctx), ps)
	}
}

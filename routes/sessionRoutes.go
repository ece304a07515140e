package routes

import (
	"tailcart/handlers"
	"tailcart/middleware"
	"tailcart/push"
	"tailcart/ratelim"

	"github.com/julienschmidt/httprouter"
)

// AddSessionRoutes wires the session read handlers to the router.
func AddSessionRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, h *handlers.Handlers) {
	authed := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
	)

	router.GET("/api/session/pets", authed(h.GetPets))
}

// AddPushRoutes exposes the change-event websocket. The socket handler does
// its own token check since browsers cannot set headers on websocket dials.
func AddPushRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, hub *push.Hub) {
	router.GET("/ws/updates", rateLimiter.Limit(push.ServeWS(hub)))
}

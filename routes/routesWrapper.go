package routes

import (
	"tailcart/handlers"
	"tailcart/push"
	"tailcart/ratelim"

	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, h *handlers.Handlers, hub *push.Hub) {
	AddCatalogRoutes(router, rateLimiter, h)
	AddCartRoutes(router, rateLimiter, h)
	AddFlowRoutes(router, rateLimiter, h)
	AddSessionRoutes(router, rateLimiter, h)
	AddPushRoutes(router, rateLimiter, hub)

	router.GET("/health", h.Health)
}

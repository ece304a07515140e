package routes

import (
	"tailcart/handlers"
	"tailcart/middleware"
	"tailcart/ratelim"

	"github.com/julienschmidt/httprouter"
)

// AddFlowRoutes wires the guided add-to-cart flow to the router.
func AddFlowRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, h *handlers.Handlers) {
	authed := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
	)

	router.GET("/api/flow", authed(h.GetFlow))
	router.POST("/api/flow/start", authed(h.StartFlow))
	router.POST("/api/flow/target", authed(h.SelectFlowTarget))
	router.POST("/api/flow/quantity", authed(h.SelectFlowQuantity))
	router.POST("/api/flow/commit", authed(h.CommitFlow))
	router.POST("/api/flow/cancel", authed(h.CancelFlow))
}

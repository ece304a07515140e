package routes

import (
	"tailcart/handlers"
	"tailcart/middleware"
	"tailcart/ratelim"

	"github.com/julienschmidt/httprouter"
)

// AddCartRoutes wires the cart mutation handlers to the router. Removal is
// deliberately two requests: propose, then confirm (or keep).
func AddCartRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, h *handlers.Handlers) {
	authed := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
	)

	router.GET("/api/cart", authed(h.GetCart))
	router.POST("/api/cart/refresh", authed(h.RefreshCart))
	router.POST("/api/cart/lines", authed(h.AddCartLine))
	router.PUT("/api/cart/lines/:id/quantity", authed(h.UpdateCartQuantity))

	router.POST("/api/cart/lines/:id/remove", authed(h.ProposeRemoval))
	router.POST("/api/cart/lines/:id/keep", authed(h.CancelRemoval))
	router.DELETE("/api/cart/lines/:id", authed(h.ConfirmRemoval))

	router.POST("/api/cart/checkout", authed(h.Checkout))
}

package routes

import (
	"tailcart/handlers"
	"tailcart/middleware"
	"tailcart/ratelim"

	"github.com/julienschmidt/httprouter"
)

// AddCatalogRoutes wires the catalog view-state handlers to the router.
func AddCatalogRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, h *handlers.Handlers) {
	authed := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
	)

	router.GET("/api/catalog", authed(h.GetCatalog))
	router.POST("/api/catalog/reload", authed(h.ReloadCatalog))

	router.POST("/api/catalog/filters", authed(h.SetFilters))
	router.DELETE("/api/catalog/filters", authed(h.ClearFilters))
	router.POST("/api/catalog/sort", authed(h.SetSort))

	router.POST("/api/catalog/page/next", authed(h.NextPage))
	router.POST("/api/catalog/page/previous", authed(h.PreviousPage))
	router.POST("/api/catalog/page/more", authed(h.LoadMore))
	router.POST("/api/catalog/scroll", authed(h.Scroll))
	router.POST("/api/catalog/presentation", authed(h.SetPresentation))

	router.GET("/api/catalog/categories/:breed/count", authed(h.CategoryCount))
}

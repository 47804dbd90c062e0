package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aisleron/aisleron-server/internal/http/handlers"
)

type RouterConfig struct {
	LocationHandler     *handlers.LocationHandler
	AisleHandler        *handlers.AisleHandler
	ProductHandler      *handlers.ProductHandler
	ShoppingListHandler *handlers.ShoppingListHandler
	AllowOrigins        []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Locations
		api.GET("/locations", cfg.LocationHandler.List)
		api.POST("/locations", cfg.LocationHandler.Add)
		api.GET("/locations/:id", cfg.LocationHandler.Get)
		api.PUT("/locations/:id", cfg.LocationHandler.Update)
		api.DELETE("/locations/:id", cfg.LocationHandler.Remove)
		api.POST("/locations/:id/copy", cfg.LocationHandler.Copy)
		api.PATCH("/locations/:id/expanded", cfg.LocationHandler.UpdateExpanded)
		api.PATCH("/locations/:id/rank", cfg.LocationHandler.UpdateRank)
		api.POST("/locations/:id/note", cfg.LocationHandler.ApplyNote)
		api.POST("/location-types/:type/expand-collapse", cfg.LocationHandler.ExpandCollapseType)
		api.POST("/location-types/:type/sort", cfg.LocationHandler.SortType)
		api.GET("/location-types/:type/max-rank", cfg.LocationHandler.MaxRankForType)

		// Aisles
		api.GET("/locations/:id/aisles", cfg.AisleHandler.ListForLocation)
		api.POST("/locations/:id/aisles/expand-collapse", cfg.AisleHandler.ExpandCollapseForLocation)
		api.POST("/locations/:id/aisles/sort", cfg.AisleHandler.SortForLocation)
		api.POST("/aisles", cfg.AisleHandler.Add)
		api.GET("/aisles/:id", cfg.AisleHandler.Get)
		api.PUT("/aisles/:id", cfg.AisleHandler.Update)
		api.DELETE("/aisles/:id", cfg.AisleHandler.Remove)
		api.PATCH("/aisles/:id/expanded", cfg.AisleHandler.UpdateExpanded)
		api.PATCH("/aisles/:id/rank", cfg.AisleHandler.UpdateRank)

		// Products
		api.GET("/products", cfg.ProductHandler.List)
		api.POST("/products", cfg.ProductHandler.Add)
		api.GET("/products/:id", cfg.ProductHandler.Get)
		api.PUT("/products/:id", cfg.ProductHandler.Update)
		api.DELETE("/products/:id", cfg.ProductHandler.Remove)
		api.PATCH("/products/:id/status", cfg.ProductHandler.UpdateStatus)
		api.PATCH("/products/:id/qty-needed", cfg.ProductHandler.UpdateQtyNeeded)
		api.PATCH("/products/:id/aisle", cfg.ProductHandler.ChangeAisle)
		api.POST("/products/:id/copy", cfg.ProductHandler.Copy)
		api.GET("/products/:id/mappings", cfg.ProductHandler.Mappings)
		api.POST("/products/:id/note", cfg.ProductHandler.ApplyNote)
		api.PATCH("/aisle-products/:id/rank", cfg.ProductHandler.UpdateMappingRank)

		// Shopping list
		api.GET("/shopping-list/:locationId", cfg.ShoppingListHandler.Get)
		api.GET("/shopping-list/:locationId/watch", cfg.ShoppingListHandler.Watch)
	}

	return router
}

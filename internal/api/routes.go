package api

import (
	"github.com/gin-gonic/gin"

	"github.com/youruser/cardgrid/internal/generator"
)

func RegisterRoutes(r *gin.Engine, svc *generator.Service, publicRoot string) {
	h := &handlers{svc: svc}
	api := r.Group("/api")
	{
		api.GET("/health", health)

		api.POST("/decks/:id/image", h.generateDeck)
		api.GET("/decks/:id/image", h.getImage(kindDeck))
		api.DELETE("/decks/:id/image", h.deleteImage(kindDeck))

		api.POST("/banlists/:id/image", h.generateBanlist)
		api.GET("/banlists/:id/image", h.getImage(kindBanlist))
		api.DELETE("/banlists/:id/image", h.deleteImage(kindBanlist))

		api.POST("/cache/clear", h.clearCache)
	}
	if publicRoot != "" {
		r.Static("/public", publicRoot)
	}
}

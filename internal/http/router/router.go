// Package router wires gin route groups to their handlers, grounded on the
// teacher's internal/http/router package (one small file per route group,
// a RouterConfig carrying cross-cutting settings).
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boardsense.dev/sentinel/internal/http/handler"
)

// RouterConfig carries cross-cutting settings the route groups need.
type RouterConfig struct {
	IsProduction bool
	AdminAPIKey  string
}

// SetupRoutes registers every route group on router. games may be nil if no
// platform clients are configured, in which case GET /v1/games is omitted.
func SetupRoutes(router *gin.Engine, analyze *handler.AnalyzeHandler, games *handler.GamesHandler, cfg RouterConfig) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.POST("/analyze", analyze.Analyze)
	if games != nil {
		v1.GET("/games", games.List)
	}
}

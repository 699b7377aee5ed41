package handler

import (
	"net/http"
	"time"

	"github.com/JairPrada/radarcol-tfm/config"
	"github.com/JairPrada/radarcol-tfm/middleware"
	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the middleware chain and the API routes
func NewRouter(cfg *config.Config, contracts service.ContractFetcher, analyses service.AnalysisFetcher) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger("/health"))
	router.Use(middleware.CORS(cfg.Server.AllowOrigins))
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, time.Minute))

	router.GET("/health", Health)

	contractHandler := NewContractHandler(contracts, analyses, &cfg.Pagination)

	api := router.Group("/api")
	api.Use(middleware.NoCache())
	{
		api.GET("/contracts", contractHandler.List)
		api.GET("/contracts/:id/analysis", contractHandler.Analysis)
	}

	return router
}

// Health reports that the process is serving
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/navid-fn/momentum/server/internal/handler"
)

type Config struct {
	CatalogHandler *handler.CatalogHandler
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	api := router.Group("/v1/")
	registerCatalogRoutes(api, cfg.CatalogHandler)

	return router
}

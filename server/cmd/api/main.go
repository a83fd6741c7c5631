package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/navid-fn/momentum/internal/crawler"
	"github.com/navid-fn/momentum/server/config"
	"github.com/navid-fn/momentum/server/internal/handler"
	"github.com/navid-fn/momentum/server/internal/repository"
	"github.com/navid-fn/momentum/server/internal/router"
	"github.com/navid-fn/momentum/server/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := crawler.NewLogger(cfg.LogLevel, cfg.LogFormat)

	catalogRepo := repository.NewFileCatalogRepository(cfg.Sources)
	catalogService := service.NewCatalogService(catalogRepo)
	catalogHandler := handler.NewCatalogHandler(catalogService, logger)

	routerConfig := &router.Config{
		CatalogHandler: catalogHandler,
	}

	router := router.NewRouter(routerConfig)

	logger.Infof("Serving %d catalogs on :%s", len(cfg.Sources), cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}

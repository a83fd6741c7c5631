package router

import (
	"github.com/gin-gonic/gin"

	"github.com/navid-fn/momentum/server/internal/handler"
)

func registerCatalogRoutes(router *gin.RouterGroup, catalogHandler *handler.CatalogHandler) {
	router.GET("/health", catalogHandler.Health)
	router.GET("/sources", catalogHandler.GetSources)

	source := router.Group("/:source")
	{
		source.GET("/tickers", catalogHandler.GetTickers)
		source.GET("/latest", catalogHandler.GetLatest)
		source.GET("/series/:mcv_id", catalogHandler.GetSeries)
	}
}

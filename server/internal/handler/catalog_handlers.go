package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/internal/storage"
	"github.com/navid-fn/momentum/server/internal/repository"
	"github.com/navid-fn/momentum/server/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *logrus.Logger
}

func NewCatalogHandler(service *service.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: service,
		logger:         logger,
	}
}

func (h *CatalogHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *CatalogHandler) GetSources(c *gin.Context) {
	sources, err := h.catalogService.GetSources(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": sources})
}

func (h *CatalogHandler) GetTickers(c *gin.Context) {
	list, err := h.catalogService.GetTickers(c.Request.Context(), c.Param("source"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CatalogHandler) GetSeries(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	series, err := h.catalogService.GetSeries(c.Request.Context(), c.Param("source"), c.Param("mcv_id"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *CatalogHandler) GetLatest(c *gin.Context) {
	latest, err := h.catalogService.GetLatest(c.Request.Context(), c.Param("source"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": c.Param("source"), "data": latest})
}

func (h *CatalogHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrUnknownSource),
		errors.Is(err, storage.ErrCatalogNotFound),
		errors.Is(err, service.ErrSeriesNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Errorf("%s %s failed", c.Request.Method, c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

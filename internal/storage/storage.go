// Package storage persists catalog documents and reads ticker universes.
package storage

import (
	"context"
	"errors"

	"github.com/navid-fn/momentum/internal/models"
)

// ErrCatalogNotFound is returned by Load when no catalog has been written yet.
var ErrCatalogNotFound = errors.New("catalog not found")

// CatalogStore defines how a source's documents are read and written.
type CatalogStore interface {
	// Load reads the catalog. It returns ErrCatalogNotFound when there is none.
	Load(ctx context.Context) (*models.Catalog, error)

	// Save replaces the catalog. A failed Save leaves the previous document intact.
	Save(ctx context.Context, catalog *models.Catalog) error

	// SaveTickers replaces the companion ticker list.
	SaveTickers(ctx context.Context, list *models.TickerList) error
}

// Mirror copies written documents somewhere else (object storage).
type Mirror interface {
	Upload(ctx context.Context, paths ...string) error
}

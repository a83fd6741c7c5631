package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/models"
	"github.com/navid-fn/momentum/internal/storage"
)

// ErrUnknownSource is returned for a source that is not configured.
var ErrUnknownSource = errors.New("unknown source")

type CatalogRepository interface {
	Sources() []string
	GetCatalog(ctx context.Context, source string) (*models.Catalog, error)
	GetTickers(ctx context.Context, source string) (*models.TickerList, error)
}

type cached struct {
	modTime time.Time
	size    int64
	catalog *models.Catalog
}

// fileCatalogRepository reads catalogs written by the updater and keeps the
// decoded document until the file changes.
type fileCatalogRepository struct {
	stores map[string]*storage.FileStore

	mu    sync.Mutex
	cache map[string]cached
}

func NewFileCatalogRepository(sources map[string]configs.SourceConfig) CatalogRepository {
	stores := make(map[string]*storage.FileStore, len(sources))
	for name, src := range sources {
		stores[name] = storage.NewFileStore(src.CatalogPath, src.TickersPath)
	}
	return &fileCatalogRepository{stores: stores, cache: make(map[string]cached)}
}

func (r *fileCatalogRepository) Sources() []string {
	names := make([]string, 0, len(r.stores))
	for name := range r.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *fileCatalogRepository) GetCatalog(ctx context.Context, source string) (*models.Catalog, error) {
	store, ok := r.stores[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}

	info, err := os.Stat(store.CatalogPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", source, storage.ErrCatalogNotFound)
	}
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache[source]; ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.catalog, nil
	}

	catalog, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	r.cache[source] = cached{modTime: info.ModTime(), size: info.Size(), catalog: catalog}
	return catalog, nil
}

func (r *fileCatalogRepository) GetTickers(ctx context.Context, source string) (*models.TickerList, error) {
	store, ok := r.stores[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return store.LoadTickers(ctx)
}

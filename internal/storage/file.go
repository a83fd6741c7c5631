package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/navid-fn/momentum/internal/models"
)

// FileStore keeps the catalog and ticker list as indented JSON files.
type FileStore struct {
	CatalogPath string
	TickersPath string
}

func NewFileStore(catalogPath, tickersPath string) *FileStore {
	return &FileStore{CatalogPath: catalogPath, TickersPath: tickersPath}
}

func (s *FileStore) Load(ctx context.Context) (*models.Catalog, error) {
	var catalog models.Catalog
	if err := readJSON(s.CatalogPath, &catalog); err != nil {
		return nil, err
	}
	if catalog.Data == nil {
		catalog.Data = []models.Series{}
	}
	return &catalog, nil
}

func (s *FileStore) Save(ctx context.Context, catalog *models.Catalog) error {
	return writeJSONAtomic(s.CatalogPath, catalog)
}

func (s *FileStore) SaveTickers(ctx context.Context, list *models.TickerList) error {
	return writeJSONAtomic(s.TickersPath, list)
}

// LoadTickers reads the companion ticker list.
func (s *FileStore) LoadTickers(ctx context.Context) (*models.TickerList, error) {
	var list models.TickerList
	if err := readJSON(s.TickersPath, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, ErrCatalogNotFound)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSONAtomic writes v to a temp file next to path and renames it over path,
// so readers see either the old or the new document.
func writeJSONAtomic(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

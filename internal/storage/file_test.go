package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/navid-fn/momentum/internal/models"
)

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "upbit", "upbit_historical_data.json"), filepath.Join(dir, "upbit", "upbit_tickers.json"))
	ctx := context.Background()

	catalog := &models.Catalog{
		GeneratedAt: "2024-03-02T01:00:00Z",
		CutoffDate:  "2024-03-01",
		Data: []models.Series{{
			MCVID:  "BTC-KRW-UPBIT",
			Ticker: "BTC",
			KoName: "비트코인",
			Market: "KRW-BTC",
			History: []models.Candle{
				{Date: "2024-02-29", Open: models.Float(1), Close: models.Float(2)},
				{Date: "2024-03-01", Close: models.Float(3), Volume: models.Float(10), RSI: models.Float(55.5)},
			},
		}},
	}
	catalog.RefreshTotals()

	if err := store.Save(ctx, catalog); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.TotalTickers != 1 || got.TotalRecords != 2 {
		t.Errorf("Expected totals 1/2, got %d/%d", got.TotalTickers, got.TotalRecords)
	}
	first := got.Data[0].History[0]
	if first.Volume != nil || first.RSI != nil || first.High != nil {
		t.Errorf("Expected null fields to stay nil, got %+v", first)
	}
	last := got.Data[0].History[1]
	if last.RSI == nil || *last.RSI != 55.5 {
		t.Errorf("Expected RSI 55.5, got %v", last.RSI)
	}
	if got.Data[0].KoName != "비트코인" {
		t.Errorf("Expected Korean name to survive, got %q", got.Data[0].KoName)
	}

	raw, err := os.ReadFile(store.CatalogPath)
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)
	if !strings.Contains(text, "\n  \"generated_at\"") {
		t.Errorf("Expected 2-space indentation, got:\n%s", text[:60])
	}
	if !strings.Contains(text, "비트코인") {
		t.Error("Expected non-ASCII text to be written unescaped")
	}
	if !strings.Contains(text, `"volume": null`) {
		t.Error("Expected missing volume to be written as null")
	}
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"), "")

	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrCatalogNotFound) {
		t.Errorf("Expected ErrCatalogNotFound, got %v", err)
	}
}

func TestFileStoreLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewFileStore(path, "").Load(context.Background())
	if err == nil || errors.Is(err, ErrCatalogNotFound) {
		t.Errorf("Expected a decode error, got %v", err)
	}
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "catalog.json"), filepath.Join(dir, "tickers.json"))
	ctx := context.Background()

	catalog := models.NewCatalog(mustDate(t, "2022-01-01"))
	for i := 0; i < 3; i++ {
		if err := store.Save(ctx, catalog); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}
	if err := store.SaveTickers(ctx, models.TickerListFor(catalog)); err != nil {
		t.Fatalf("SaveTickers failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only the two documents, got %v", names)
	}

	list, err := store.LoadTickers(ctx)
	if err != nil {
		t.Fatalf("LoadTickers failed: %v", err)
	}
	if list.Tickers == nil || len(list.Tickers) != 0 {
		t.Errorf("Expected an empty ticker list, got %+v", list.Tickers)
	}
}

func TestFileStoreSaveReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "catalog.json"), "")
	ctx := context.Background()

	old := &models.Catalog{CutoffDate: "2024-01-01", Data: []models.Series{{MCVID: "A", Ticker: "A"}}}
	if err := store.Save(ctx, old); err != nil {
		t.Fatal(err)
	}
	fresh := &models.Catalog{CutoffDate: "2024-01-02", Data: []models.Series{}}
	if err := store.Save(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.CutoffDate != "2024-01-02" || len(got.Data) != 0 {
		t.Errorf("Expected the second document, got %+v", got)
	}
}

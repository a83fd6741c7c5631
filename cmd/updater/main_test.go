package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/storage"
	"github.com/navid-fn/momentum/internal/updater"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testAppConfig(t *testing.T) *configs.AppConfig {
	t.Helper()
	dir := t.TempDir()
	src := configs.SourceConfig{
		Name:              configs.SourceYahooUS,
		CatalogPath:       filepath.Join(dir, "us_stocks.json"),
		TickersPath:       filepath.Join(dir, "us_tickers.json"),
		TickerFiles:       []string{filepath.Join(dir, "universe.json")},
		BaseURL:           "http://127.0.0.1:1",
		Workers:           1,
		RequestsPerSecond: 1,
		MaxNewPerRun:      5,
	}
	return &configs.AppConfig{
		Sources: map[string]configs.SourceConfig{src.Name: src},
		// Writers connect lazily, so nothing is dialled without events.
		Kafka: configs.KafkaConfig{Brokers: []string{"127.0.0.1:1"}, Topic: "momentum.candles"},
	}
}

func TestRunReturnsUpdateErrors(t *testing.T) {
	cfg := testAppConfig(t)

	_, err := run(context.Background(), cfg, configs.SourceYahooUS, updater.ModeUpdate, quietLogger())
	if !errors.Is(err, storage.ErrCatalogNotFound) {
		t.Fatalf("Expected a missing catalog error, got %v", err)
	}
	if _, statErr := os.Stat(cfg.Sources[configs.SourceYahooUS].CatalogPath); !os.IsNotExist(statErr) {
		t.Error("Expected no catalog to be written by a failed run")
	}
}

func TestRunUnknownSource(t *testing.T) {
	if _, err := run(context.Background(), testAppConfig(t), "nasdaq", updater.ModeUpdate, quietLogger()); err == nil {
		t.Error("Expected an error for an unknown source")
	}
}

func TestRunFillCreatesCatalog(t *testing.T) {
	cfg := testAppConfig(t)

	sum, err := run(context.Background(), cfg, configs.SourceYahooUS, updater.ModeFill, quietLogger())
	if err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	if sum.TotalTickers != 0 {
		t.Errorf("Expected an empty catalog, got %+v", sum)
	}

	catalog, err := storage.NewFileStore(cfg.Sources[configs.SourceYahooUS].CatalogPath, "").Load(context.Background())
	if err != nil {
		t.Fatalf("Expected the catalog to be written: %v", err)
	}
	if catalog.CutoffDate == "" {
		t.Error("Expected a cutoff date on the new catalog")
	}
}

package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTickers(t *testing.T) {
	dir := t.TempDir()
	nasdaq := writeFile(t, dir, "nasdaq.json", `[
		{"mcv_id": "AAPL-USD-NASDAQ", "ticker": "AAPL", "name": "Apple"},
		{"mcv_id": "MSFT-USD-NASDAQ", "ticker": "MSFT", "name": "Microsoft"}
	]`)
	sp500 := writeFile(t, dir, "sp500.json", `[
		{"mcv_id": "AAPL-USD-NASDAQ", "ticker": "AAPL", "name": "Apple Duplicate"},
		{"mcv_id": "JPM-USD-NYSE", "ticker": "JPM"}
	]`)

	tickers, err := LoadTickers([]string{nasdaq, filepath.Join(dir, "missing.json"), sp500}, quietLogger())
	if err != nil {
		t.Fatalf("LoadTickers failed: %v", err)
	}

	want := []string{"AAPL-USD-NASDAQ", "MSFT-USD-NASDAQ", "JPM-USD-NYSE"}
	if len(tickers) != len(want) {
		t.Fatalf("Expected %d tickers, got %d", len(want), len(tickers))
	}
	for i, id := range want {
		if tickers[i].MCVID != id {
			t.Errorf("Ticker %d: expected %s, got %s", i, id, tickers[i].MCVID)
		}
	}
	if tickers[0].Name != "Apple" {
		t.Errorf("Expected the first entry to win, got %q", tickers[0].Name)
	}
}

func TestLoadTickersMalformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"mcv_id": "x"}`)

	if _, err := LoadTickers([]string{path}, quietLogger()); err == nil {
		t.Error("Expected an error for a non-array ticker file")
	}
}

func TestValidateTickers(t *testing.T) {
	testCases := []struct {
		name        string
		tickers     []models.TickerInfo
		wantValid   int
		wantInvalid int
	}{
		{
			name: "All valid",
			tickers: []models.TickerInfo{
				{MCVID: "BTC-USD-COINGECKO", Ticker: "BTC", CoingeckoID: "bitcoin"},
				{MCVID: "ETH-USD-COINGECKO", Ticker: "ETH", CoingeckoID: "ethereum"},
			},
			wantValid: 2,
		},
		{
			name: "Missing mcv_id",
			tickers: []models.TickerInfo{
				{Ticker: "BTC"},
				{MCVID: "ETH-USD-COINGECKO", Ticker: "ETH"},
			},
			wantValid:   1,
			wantInvalid: 1,
		},
		{
			name: "Blank ticker",
			tickers: []models.TickerInfo{
				{MCVID: "X-USD", Ticker: "   "},
			},
			wantInvalid: 1,
		},
		{
			name:    "Empty input",
			tickers: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			valid, invalid := ValidateTickers(tc.tickers)
			if len(valid) != tc.wantValid {
				t.Errorf("Expected %d valid, got %d", tc.wantValid, len(valid))
			}
			if len(invalid) != tc.wantInvalid {
				t.Errorf("Expected %d invalid, got %d", tc.wantInvalid, len(invalid))
			}
			for _, inv := range invalid {
				if !errors.Is(inv.Err, ErrInvalidTicker) {
					t.Errorf("Expected ErrInvalidTicker, got %v", inv.Err)
				}
			}
		})
	}
}

func TestDedupeTickersKeepsKeyless(t *testing.T) {
	tickers := []models.TickerInfo{
		{Ticker: "A"},
		{Ticker: "B"},
		{MCVID: "C", Ticker: "C"},
		{MCVID: "C", Ticker: "C2"},
	}

	got := DedupeTickers(tickers)
	if len(got) != 3 {
		t.Errorf("Expected 3 tickers, got %d", len(got))
	}
}

func TestObjectKey(t *testing.T) {
	testCases := []struct {
		prefix, path, want string
	}{
		{"momentum", "src/data/momentum/upbit/upbit_historical_data.json", "momentum/upbit/upbit_historical_data.json"},
		{"", "data/kr/kr_stocks_tickers.json", "kr/kr_stocks_tickers.json"},
	}

	for _, tc := range testCases {
		if got := ObjectKey(tc.prefix, tc.path); got != tc.want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", tc.prefix, tc.path, got, tc.want)
		}
	}
}

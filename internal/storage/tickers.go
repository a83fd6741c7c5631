package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/internal/models"
)

var validate = validator.New()

// ErrInvalidTicker marks a universe entry without a usable mcv_id or ticker.
var ErrInvalidTicker = errors.New("invalid ticker")

// InvalidTicker is a universe entry rejected before any network call.
type InvalidTicker struct {
	Ticker models.TickerInfo
	Err    error
}

// LoadTickers reads ticker universe files (JSON arrays of ticker metadata)
// and merges them, keeping the first entry of every mcv_id. Missing files are
// skipped with a warning; unreadable or malformed files are an error.
func LoadTickers(paths []string, logger *logrus.Logger) ([]models.TickerInfo, error) {
	var all []models.TickerInfo
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("Ticker file not found: %s", path)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var tickers []models.TickerInfo
		if err := json.Unmarshal(data, &tickers); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		all = append(all, tickers...)
	}
	return DedupeTickers(all), nil
}

// DedupeTickers keeps the first entry of every mcv_id. Entries without an
// mcv_id are kept so validation can report them.
func DedupeTickers(tickers []models.TickerInfo) []models.TickerInfo {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]models.TickerInfo, 0, len(tickers))
	for _, t := range tickers {
		if t.MCVID != "" {
			if _, ok := seen[t.MCVID]; ok {
				continue
			}
			seen[t.MCVID] = struct{}{}
		}
		out = append(out, t)
	}
	return out
}

// ValidateTickers splits tickers into usable entries and entries missing
// their symbol or key.
func ValidateTickers(tickers []models.TickerInfo) ([]models.TickerInfo, []InvalidTicker) {
	valid := make([]models.TickerInfo, 0, len(tickers))
	var invalid []InvalidTicker
	for _, t := range tickers {
		t.MCVID = strings.TrimSpace(t.MCVID)
		t.Ticker = strings.TrimSpace(t.Ticker)
		if err := validate.Struct(t); err != nil {
			invalid = append(invalid, InvalidTicker{Ticker: t, Err: fmt.Errorf("%w: %v", ErrInvalidTicker, err)})
			continue
		}
		valid = append(valid, t)
	}
	return valid, invalid
}

package crawler

import (
	"context"
	"errors"
	"time"

	"github.com/navid-fn/momentum/internal/models"
)

// ErrNoData means the vendor answered but had no candles for the request.
var ErrNoData = errors.New("no data")

// Source is a vendor adapter. It turns vendor payloads into canonical candles
// and knows nothing about catalogs, merging or indicators.
type Source interface {
	// Name is the source name used in logs and events.
	Name() string

	// ListTickers returns the instrument universe of the source.
	ListTickers(ctx context.Context) ([]models.TickerInfo, error)

	// FetchRecent returns the latest candles up to and including day.
	FetchRecent(ctx context.Context, t models.TickerInfo, day time.Time) ([]models.Candle, error)

	// FetchHistory returns every candle between from and to, inclusive.
	FetchHistory(ctx context.Context, t models.TickerInfo, from, to time.Time) ([]models.Candle, error)
}

// Package coingecko adapts CoinGecko's OHLC endpoint to daily USD candles.
package coingecko

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/crawler"
	"github.com/navid-fn/momentum/internal/models"
	"github.com/navid-fn/momentum/internal/storage"
)

// MCVID builds the catalog key of a CoinGecko coin.
func MCVID(symbol string) string {
	return strings.ToUpper(symbol) + "-USD-COINGECKO"
}

type Source struct {
	cfg    configs.SourceConfig
	client *crawler.HTTPClient
	logger *logrus.Logger
}

func NewSource(cfg configs.SourceConfig, client *crawler.HTTPClient, logger *logrus.Logger) *Source {
	return &Source{cfg: cfg, client: client, logger: logger}
}

func (s *Source) Name() string { return configs.SourceCoinGecko }

// ListTickers reads the configured ticker files. Entries without an
// mcv_id get one from their symbol.
func (s *Source) ListTickers(ctx context.Context) ([]models.TickerInfo, error) {
	tickers, err := storage.LoadTickers(s.cfg.TickerFiles, s.logger)
	if err != nil {
		return nil, err
	}
	for i := range tickers {
		if tickers[i].MCVID == "" && tickers[i].Ticker != "" {
			tickers[i].MCVID = MCVID(tickers[i].Ticker)
		}
	}
	return storage.DedupeTickers(tickers), nil
}

func (s *Source) FetchRecent(ctx context.Context, t models.TickerInfo, day time.Time) ([]models.Candle, error) {
	days := s.cfg.RecentDays
	if days <= 0 {
		days = 2
	}
	return s.fetch(ctx, t, days, day.AddDate(0, 0, -days), day)
}

func (s *Source) FetchHistory(ctx context.Context, t models.TickerInfo, from, to time.Time) ([]models.Candle, error) {
	days := s.cfg.HistoryDays
	if days <= 0 {
		days = int(math.Ceil(to.Sub(from).Hours()/24)) + 1
	}
	return s.fetch(ctx, t, days, from, to)
}

func (s *Source) fetch(ctx context.Context, t models.TickerInfo, days int, from, to time.Time) ([]models.Candle, error) {
	if t.CoingeckoID == "" {
		return nil, fmt.Errorf("%s: %w: missing coingecko_id", t.MCVID, storage.ErrInvalidTicker)
	}

	query := url.Values{}
	query.Set("vs_currency", "usd")
	query.Set("days", strconv.Itoa(days))

	var rows []ohlcRow
	path := "/coins/" + url.PathEscape(t.CoingeckoID) + "/ohlc"
	if err := s.client.GetJSON(ctx, path, query, &rows); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.CoingeckoID, err)
	}

	candles, err := daily(rows)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", t.CoingeckoID, err)
	}

	out := candles[:0]
	for _, c := range candles {
		if crawler.Within(c.Date, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

// Package yahoo adapts the Yahoo Finance chart API to daily equity candles
// for the US and Korean catalogs.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/crawler"
	"github.com/navid-fn/momentum/internal/history"
	"github.com/navid-fn/momentum/internal/models"
	"github.com/navid-fn/momentum/internal/storage"
)

// Korean market categories derived from the Yahoo suffix.
const (
	CategoryKOSPI   = "kospi"
	CategoryKOSDAQ  = "kosdaq"
	CategoryUnknown = "unknown"
)

// Category maps a Korean Yahoo ticker to its market.
func Category(ticker string) string {
	switch {
	case strings.HasSuffix(ticker, ".KS"):
		return CategoryKOSPI
	case strings.HasSuffix(ticker, ".KQ"):
		return CategoryKOSDAQ
	default:
		return CategoryUnknown
	}
}

// Source serves both yahoo-us and yahoo-kr; cfg.Name selects which.
type Source struct {
	cfg    configs.SourceConfig
	client *crawler.HTTPClient
	logger *logrus.Logger
}

func NewSource(cfg configs.SourceConfig, client *crawler.HTTPClient, logger *logrus.Logger) *Source {
	return &Source{cfg: cfg, client: client, logger: logger}
}

func (s *Source) Name() string { return s.cfg.Name }

// ListTickers reads the configured ticker files, deduped by mcv_id.
// Korean tickers get their market category when the file has none.
func (s *Source) ListTickers(ctx context.Context) ([]models.TickerInfo, error) {
	tickers, err := storage.LoadTickers(s.cfg.TickerFiles, s.logger)
	if err != nil {
		return nil, err
	}
	if s.cfg.Name == configs.SourceYahooKR {
		for i := range tickers {
			if tickers[i].Category == "" {
				tickers[i].Category = Category(tickers[i].Ticker)
			}
		}
	}
	return tickers, nil
}

// FetchRecent returns the sessions of [day-RecentDays+1, day].
func (s *Source) FetchRecent(ctx context.Context, t models.TickerInfo, day time.Time) ([]models.Candle, error) {
	days := s.cfg.RecentDays
	if days <= 0 {
		days = 1
	}
	return s.chart(ctx, t, day.AddDate(0, 0, -(days-1)), day)
}

func (s *Source) FetchHistory(ctx context.Context, t models.TickerInfo, from, to time.Time) ([]models.Candle, error) {
	return s.chart(ctx, t, from, to)
}

// chart requests the half-open range [from 00:00 UTC, to+1 00:00 UTC).
func (s *Source) chart(ctx context.Context, t models.TickerInfo, from, to time.Time) ([]models.Candle, error) {
	start := midnight(from)
	end := midnight(to).AddDate(0, 0, 1)

	query := url.Values{}
	query.Set("period1", strconv.FormatInt(start.Unix(), 10))
	query.Set("period2", strconv.FormatInt(end.Unix(), 10))
	query.Set("interval", "1d")
	query.Set("events", "history")

	var resp chartResponse
	err := s.client.GetJSON(ctx, "/v8/finance/chart/"+url.PathEscape(t.Ticker), query, &resp)
	if crawler.IsStatus(err, http.StatusNotFound) {
		return nil, crawler.ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", t.Ticker, err)
	}
	if resp.Chart.Error != nil {
		s.logger.Debugf("[%s] %s: %s", s.Name(), t.Ticker, resp.Chart.Error.Description)
		return nil, crawler.ErrNoData
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	candles, err := parse(resp.Chart.Result[0])
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", t.Ticker, err)
	}

	out := candles[:0]
	for _, c := range candles {
		if crawler.Within(c.Date, from, to) {
			out = append(out, c)
		}
	}
	return out, nil
}

var errNoQuote = errors.New("missing quote block")

// parse turns the column arrays into candles. Sessions without a close are skipped.
func parse(r chartResult) ([]models.Candle, error) {
	if len(r.Timestamp) == 0 {
		return nil, nil
	}
	if len(r.Indicators.Quote) == 0 {
		return nil, errNoQuote
	}
	q := r.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closing := at(q.Close, i)
		if closing == nil {
			continue
		}

		var volume *float64
		if v := at(q.Volume, i); v != nil {
			volume = models.Float(math.Round(*v))
		}

		candles = append(candles, models.Candle{
			Date:   crawler.Day(time.Unix(ts+r.Meta.GMTOffset, 0)),
			Open:   crawler.PricePtr(at(q.Open, i), crawler.EquityPricePlaces),
			High:   crawler.PricePtr(at(q.High, i), crawler.EquityPricePlaces),
			Low:    crawler.PricePtr(at(q.Low, i), crawler.EquityPricePlaces),
			Close:  crawler.PricePtr(closing, crawler.EquityPricePlaces),
			Volume: volume,
		})
	}
	return history.Dedupe(candles), nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Package cryptocompare adapts CryptoCompare's top list and daily history to USD candles.
package cryptocompare

import (
	"context"
	"errors"
	"fmt"
	"math"
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

const (
	pageSize     = 100
	maxHistoday  = 2000
	maxHistPages = 10
	secondsInDay = 24 * 60 * 60
)

// MCVID builds the catalog key of a CryptoCompare coin.
func MCVID(symbol string) string {
	return strings.ToUpper(symbol) + "-USD-CRYPTOCOMPARE"
}

type Source struct {
	cfg    configs.SourceConfig
	client *crawler.HTTPClient
	logger *logrus.Logger
}

func NewSource(cfg configs.SourceConfig, client *crawler.HTTPClient, logger *logrus.Logger) *Source {
	return &Source{cfg: cfg, client: client, logger: logger}
}

func (s *Source) Name() string { return configs.SourceCryptoCompare }

// ListTickers reads the market-cap top list page by page. A failed page is
// skipped; an error answer ends the listing.
func (s *Source) ListTickers(ctx context.Context) ([]models.TickerInfo, error) {
	pages := s.cfg.ListPages
	if pages <= 0 {
		pages = 10
	}

	var (
		tickers []models.TickerInfo
		lastErr error
	)
	for page := 0; page < pages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("tsym", "USD")
		query.Set("page", strconv.Itoa(page))

		var resp topListResponse
		if err := s.client.GetJSON(ctx, "/data/top/mktcapfull", query, &resp); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warnf("[%s] Top list page %d failed: %v", s.Name(), page+1, err)
			lastErr = err
			continue
		}
		if resp.Response == responseError {
			s.logger.Warnf("[%s] Top list page %d: %s", s.Name(), page+1, resp.Message)
			break
		}

		for _, entry := range resp.Data {
			symbol := entry.CoinInfo.Name
			tickers = append(tickers, models.TickerInfo{
				MCVID:  MCVID(symbol),
				Ticker: symbol,
				Name:   entry.CoinInfo.FullName,
			})
		}
		s.logger.Debugf("[%s] Top list page %d/%d: %d coins", s.Name(), page+1, pages, len(resp.Data))
	}

	if len(tickers) == 0 && lastErr != nil {
		return nil, fmt.Errorf("list top coins: %w", lastErr)
	}
	return storage.DedupeTickers(tickers), nil
}

func (s *Source) FetchRecent(ctx context.Context, t models.TickerInfo, day time.Time) ([]models.Candle, error) {
	days := s.cfg.RecentDays
	if days <= 0 {
		days = 2
	}
	resp, err := s.histoday(ctx, t.Ticker, days, endOfDay(day))
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(resp.Data.Data))
	for _, bar := range resp.Data.Data {
		c, ok := toCandle(bar)
		if ok && crawler.Within(c.Date, day.AddDate(0, 0, -days), day) {
			candles = append(candles, c)
		}
	}
	return candles, nil
}

// FetchHistory walks histoday pages backwards from to until it passes from
// or reaches the zero-padded bars before listing.
func (s *Source) FetchHistory(ctx context.Context, t models.TickerInfo, from, to time.Time) ([]models.Candle, error) {
	toTs := endOfDay(to)
	remaining := int(math.Ceil(to.Sub(from).Hours()/24)) + 1

	var candles []models.Candle
	for page := 0; page < maxHistPages && remaining > 0; page++ {
		limit := min(remaining, maxHistoday)
		resp, err := s.histoday(ctx, t.Ticker, limit, toTs)
		if err != nil {
			if page > 0 && errors.Is(err, crawler.ErrNoData) {
				break
			}
			return nil, err
		}

		bars := resp.Data.Data
		if len(bars) == 0 {
			break
		}

		done := false
		for _, bar := range bars {
			c, ok := toCandle(bar)
			if !ok {
				done = true
				continue
			}
			if crawler.Within(c.Date, from, to) {
				candles = append(candles, c)
			}
		}

		earliest := bars[0].Time
		if done || crawler.Day(time.Unix(earliest, 0)) <= crawler.Day(from) {
			break
		}
		remaining -= len(bars)
		toTs = earliest - secondsInDay
	}

	return history.Dedupe(candles), nil
}

func (s *Source) histoday(ctx context.Context, symbol string, limit int, toTs int64) (*histodayResponse, error) {
	query := url.Values{}
	query.Set("fsym", symbol)
	query.Set("tsym", "USD")
	query.Set("limit", strconv.Itoa(limit))
	query.Set("toTs", strconv.FormatInt(toTs, 10))

	var resp histodayResponse
	if err := s.client.GetJSON(ctx, "/data/v2/histoday", query, &resp); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if resp.Response == responseError {
		s.logger.Debugf("[%s] %s: %s", s.Name(), symbol, resp.Message)
		return nil, crawler.ErrNoData
	}
	return &resp, nil
}

func toCandle(bar dayBar) (models.Candle, bool) {
	if bar.empty() {
		return models.Candle{}, false
	}
	volume := math.Trunc(bar.VolumeTo)
	return models.Candle{
		Date:   crawler.Day(time.Unix(bar.Time, 0)),
		Open:   crawler.Price(bar.Open, crawler.CryptoPricePlaces),
		High:   crawler.Price(bar.High, crawler.CryptoPricePlaces),
		Low:    crawler.Price(bar.Low, crawler.CryptoPricePlaces),
		Close:  crawler.Price(bar.Close, crawler.CryptoPricePlaces),
		Volume: &volume,
	}, true
}

func endOfDay(day time.Time) int64 {
	y, m, d := day.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC).Unix()
}

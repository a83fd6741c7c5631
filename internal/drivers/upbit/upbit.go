// Package upbit adapts Upbit's KRW markets and daily candles.
package upbit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/crawler"
	"github.com/navid-fn/momentum/internal/history"
	"github.com/navid-fn/momentum/internal/models"
)

const (
	krwPrefix = "KRW-"
	pageSize  = 200
	maxPages  = 20
)

// kst is Upbit's trading calendar zone.
var kst = time.FixedZone("KST", 9*60*60)

// MCVID builds the catalog key of an Upbit KRW market.
func MCVID(symbol string) string {
	return strings.ToUpper(symbol) + "-KRW-UPBIT"
}

type Source struct {
	cfg    configs.SourceConfig
	client *crawler.HTTPClient
	logger *logrus.Logger
}

func NewSource(cfg configs.SourceConfig, client *crawler.HTTPClient, logger *logrus.Logger) *Source {
	return &Source{cfg: cfg, client: client, logger: logger}
}

func (s *Source) Name() string { return configs.SourceUpbit }

// ListTickers returns every KRW market.
func (s *Source) ListTickers(ctx context.Context) ([]models.TickerInfo, error) {
	var markets []market
	if err := s.client.GetJSON(ctx, "/market/all", nil, &markets); err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	tickers := make([]models.TickerInfo, 0, len(markets))
	for _, m := range markets {
		if !strings.HasPrefix(m.Market, krwPrefix) {
			continue
		}
		symbol := strings.TrimPrefix(m.Market, krwPrefix)
		tickers = append(tickers, models.TickerInfo{
			MCVID:  MCVID(symbol),
			Ticker: symbol,
			Name:   m.EnglishName,
			KoName: m.KoreanName,
			Market: m.Market,
		})
	}
	return tickers, nil
}

// FetchRecent returns the daily candles ending on day (KST).
func (s *Source) FetchRecent(ctx context.Context, t models.TickerInfo, day time.Time) ([]models.Candle, error) {
	count := s.cfg.RecentDays
	if count <= 0 {
		count = 1
	}
	page, err := s.candles(ctx, t, day, count)
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(page))
	for _, c := range page {
		if c.date() <= day.Format(models.DateLayout) {
			candles = append(candles, toCandle(c))
		}
	}
	return history.Dedupe(candles), nil
}

// FetchHistory pages backwards from to, 200 candles at a time, until it passes from.
func (s *Source) FetchHistory(ctx context.Context, t models.TickerInfo, from, to time.Time) ([]models.Candle, error) {
	fromDay := from.Format(models.DateLayout)
	end := to

	var candles []models.Candle
	for page := 0; page < maxPages; page++ {
		batch, err := s.candles(ctx, t, end, pageSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		oldest := batch[0].date()
		for _, c := range batch {
			d := c.date()
			if d < oldest {
				oldest = d
			}
			if crawler.Within(d, from, to) {
				candles = append(candles, toCandle(c))
			}
		}

		if oldest <= fromDay || len(batch) < pageSize {
			break
		}
		next, err := time.Parse(models.DateLayout, oldest)
		if err != nil {
			return nil, fmt.Errorf("parse candle date %q: %w", oldest, err)
		}
		end = next.AddDate(0, 0, -1)
	}

	return history.Dedupe(candles), nil
}

// candles requests count daily candles ending on day at 23:59:59 KST.
// Upbit returns them newest first.
func (s *Source) candles(ctx context.Context, t models.TickerInfo, day time.Time, count int) ([]dayCandle, error) {
	m := t.Market
	if m == "" {
		m = krwPrefix + t.Ticker
	}

	y, mo, d := day.Date()
	to := time.Date(y, mo, d, 23, 59, 59, 0, kst)

	query := url.Values{}
	query.Set("market", m)
	query.Set("count", strconv.Itoa(count))
	query.Set("to", to.Format(time.RFC3339))

	var page []dayCandle
	if err := s.client.GetJSON(ctx, "/candles/days", query, &page); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", m, err)
	}
	return page, nil
}

func toCandle(c dayCandle) models.Candle {
	volume := crawler.Price(c.CandleAccTradeVolume, crawler.CryptoPricePlaces)
	if volume == nil {
		volume = models.Float(0)
	}
	return models.Candle{
		Date:   c.date(),
		Open:   crawler.Price(c.OpeningPrice, crawler.CryptoPricePlaces),
		High:   crawler.Price(c.HighPrice, crawler.CryptoPricePlaces),
		Low:    crawler.Price(c.LowPrice, crawler.CryptoPricePlaces),
		Close:  crawler.Price(c.TradePrice, crawler.CryptoPricePlaces),
		Volume: volume,
	}
}

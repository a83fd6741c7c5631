// Package drivers builds the vendor adapter of a configured source.
package drivers

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/crawler"
	"github.com/navid-fn/momentum/internal/drivers/coingecko"
	"github.com/navid-fn/momentum/internal/drivers/cryptocompare"
	"github.com/navid-fn/momentum/internal/drivers/upbit"
	"github.com/navid-fn/momentum/internal/drivers/yahoo"
)

// New returns the adapter for cfg.Name with its own rate-limited client.
func New(cfg configs.SourceConfig, logger *logrus.Logger) (crawler.Source, error) {
	client := crawler.NewHTTPClient(crawler.HTTPConfigFor(cfg), logger)

	switch cfg.Name {
	case configs.SourceCoinGecko:
		return coingecko.NewSource(cfg, client, logger), nil
	case configs.SourceCryptoCompare:
		return cryptocompare.NewSource(cfg, client, logger), nil
	case configs.SourceUpbit:
		return upbit.NewSource(cfg, client, logger), nil
	case configs.SourceYahooUS, configs.SourceYahooKR:
		return yahoo.NewSource(cfg, client, logger), nil
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Name)
	}
}

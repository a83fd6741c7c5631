package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/crawler"
	"github.com/navid-fn/momentum/internal/drivers"
	"github.com/navid-fn/momentum/internal/metrics"
	"github.com/navid-fn/momentum/internal/publisher"
	"github.com/navid-fn/momentum/internal/storage"
	"github.com/navid-fn/momentum/internal/updater"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -source <name> [-mode update|rebuild|fill]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nAvailable sources:\n")
	for _, s := range configs.Sources {
		fmt.Fprintf(os.Stderr, "  - %s\n", s)
	}
	fmt.Fprintf(os.Stderr, "\nModes:\n")
	fmt.Fprintf(os.Stderr, "  update   fetch yesterday for known tickers, backfill up to max_new_per_run new ones (default)\n")
	fmt.Fprintf(os.Stderr, "  rebuild  discard the catalog and backfill every ticker\n")
	fmt.Fprintf(os.Stderr, "  fill     backfill every ticker missing from the catalog\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  %s -source upbit\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s -source yahoo-us -mode fill\n", os.Args[0])
}

func main() {
	var source, modeName string

	flag.StringVar(&source, "source", "", "Source to update: coingecko, cryptocompare, upbit, yahoo-us, yahoo-kr (required)")
	flag.StringVar(&modeName, "mode", string(updater.ModeUpdate), "Run mode: update, rebuild, fill")
	flag.Usage = usage
	flag.Parse()

	if source == "" {
		fmt.Fprintf(os.Stderr, "Error: -source flag is required\n")
		usage()
		os.Exit(1)
	}

	mode, err := updater.ParseMode(modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		usage()
		os.Exit(1)
	}

	appConfig, err := configs.AppLoad()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := crawler.NewLogger(appConfig.LogLevel, appConfig.LogFormat)

	summary, err := run(context.Background(), appConfig, source, mode, logger)
	if err != nil {
		logger.Errorf("Update failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d updated, %d added, %d skipped, %d failed, %d deferred, %d tickers, %d records\n",
		source, summary.Updated, summary.Added, summary.Skipped, summary.Failed, summary.Deferred,
		summary.TotalTickers, summary.TotalRecords)
}

// run wires one source and executes a single pass. Publishers are closed
// and the signal handler released before it returns, error or not.
func run(parent context.Context, appConfig *configs.AppConfig, source string, mode updater.Mode, logger *logrus.Logger) (updater.Summary, error) {
	srcConfig, err := appConfig.Source(source)
	if err != nil {
		return updater.Summary{}, err
	}

	src, err := drivers.New(srcConfig, logger)
	if err != nil {
		return updater.Summary{}, fmt.Errorf("create source: %w", err)
	}
	logger.Infof("Starting %s run for source: %s", mode, src.Name())

	ctx, cancel := crawler.WithGracefulShutdown(parent, logger)
	defer cancel()

	store := storage.NewFileStore(srcConfig.CatalogPath, srcConfig.TickersPath)
	opts := []updater.Option{updater.WithMetrics(metrics.NewRecorder(appConfig.Metrics))}

	var publishers publisher.Multi
	if len(appConfig.Kafka.Brokers) > 0 {
		publishers = append(publishers, publisher.NewKafkaPublisher(publisher.NewKafkaWriter(appConfig.Kafka), logger))
		logger.Infof("Publishing to Kafka topic %s", appConfig.Kafka.Topic)
	}
	if appConfig.Redis.Addr != "" {
		rp, err := publisher.NewRedisPublisher(ctx, appConfig.Redis, logger)
		if err != nil {
			logger.Warnf("Redis cache disabled: %v", err)
		} else {
			publishers = append(publishers, rp)
		}
	}
	if len(publishers) > 0 {
		defer func() {
			if err := publishers.Close(); err != nil {
				logger.Errorf("Error closing publishers: %v", err)
			}
		}()
		opts = append(opts, updater.WithPublisher(publishers))
	}

	if appConfig.S3.Bucket != "" {
		mirror, err := storage.NewS3Mirror(appConfig.S3, logger)
		if err != nil {
			return updater.Summary{}, fmt.Errorf("create S3 mirror: %w", err)
		}
		opts = append(opts, updater.WithMirror(mirror, srcConfig.CatalogPath, srcConfig.TickersPath))
	}

	return updater.New(src, store, srcConfig, logger, opts...).Run(ctx, mode)
}

// Package metrics records run outcomes and pushes them to a Prometheus
// Pushgateway, since the updater exits before anything could scrape it.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/navid-fn/momentum/configs"
)

// Instrument outcomes.
const (
	OutcomeUpdated  = "updated"
	OutcomeAdded    = "added"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
	OutcomeDeferred = "deferred"
)

// Recorder holds the metrics of one source's run. The source is not a label:
// Push carries it as the Pushgateway grouping key.
type Recorder struct {
	registry *prometheus.Registry
	cfg      configs.MetricsConfig

	instruments    *prometheus.CounterVec
	catalogRecords prometheus.Gauge
	catalogTickers prometheus.Gauge
	runDuration    prometheus.Histogram
	lastSuccess    prometheus.Gauge
}

func NewRecorder(cfg configs.MetricsConfig) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cfg:      cfg,
		instruments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_instruments_total",
			Help: "Instruments processed per run by outcome",
		}, []string{"outcome"}),
		catalogRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "momentum_catalog_records",
			Help: "Candles stored in the catalog after the run",
		}),
		catalogTickers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "momentum_catalog_tickers",
			Help: "Series stored in the catalog after the run",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "momentum_run_duration_seconds",
			Help:    "Wall time of an updater run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
		}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "momentum_last_success_timestamp_seconds",
			Help: "Unix time of the last saved catalog",
		}),
	}
}

// Instruments adds n instruments with outcome.
func (r *Recorder) Instruments(outcome string, n int) {
	if n > 0 {
		r.instruments.WithLabelValues(outcome).Add(float64(n))
	}
}

// Catalog records the catalog totals after a save.
func (r *Recorder) Catalog(tickers, records int, savedAt time.Time) {
	r.catalogTickers.Set(float64(tickers))
	r.catalogRecords.Set(float64(records))
	r.lastSuccess.Set(float64(savedAt.Unix()))
}

func (r *Recorder) ObserveRun(d time.Duration) {
	r.runDuration.Observe(d.Seconds())
}

// Registry exposes the private registry, e.g. for a /metrics handler.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Enabled reports whether a Pushgateway is configured.
func (r *Recorder) Enabled() bool { return r.cfg.PushgatewayURL != "" }

// Push replaces the source's group on the Pushgateway. It is a no-op without one.
func (r *Recorder) Push(ctx context.Context, source string) error {
	if !r.Enabled() {
		return nil
	}
	err := push.New(r.cfg.PushgatewayURL, r.cfg.Job).
		Gatherer(r.registry).
		Grouping("source", source).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Package updater runs one ingestion pass of a source: it loads the catalog,
// fetches recent candles for known instruments and backfills new ones,
// recomputes indicators, and writes the catalog back.
package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/navid-fn/momentum/configs"
	"github.com/navid-fn/momentum/internal/crawler"
	"github.com/navid-fn/momentum/internal/history"
	"github.com/navid-fn/momentum/internal/indicator"
	"github.com/navid-fn/momentum/internal/metrics"
	"github.com/navid-fn/momentum/internal/models"
	"github.com/navid-fn/momentum/internal/publisher"
	"github.com/navid-fn/momentum/internal/runner"
	"github.com/navid-fn/momentum/internal/storage"
)

// Summary reports what a run did.
type Summary struct {
	RunID        string
	Mode         Mode
	Existing     int
	New          int
	Updated      int
	Added        int
	Skipped      int
	Failed       int
	Deferred     int
	TotalTickers int
	TotalRecords int
	Duration     time.Duration
}

type Updater struct {
	source    crawler.Source
	store     storage.CatalogStore
	cfg       configs.SourceConfig
	logger    *logrus.Logger
	mirror    storage.Mirror
	mirrored  []string
	publisher publisher.Publisher
	metrics   *metrics.Recorder
	now       func() time.Time
	runID     func() string
}

type Option func(*Updater)

// WithMirror uploads paths through m after every save.
func WithMirror(m storage.Mirror, paths ...string) Option {
	return func(u *Updater) {
		u.mirror = m
		u.mirrored = paths
	}
}

func WithPublisher(p publisher.Publisher) Option {
	return func(u *Updater) { u.publisher = p }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(u *Updater) { u.metrics = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) { u.now = now }
}

func New(source crawler.Source, store storage.CatalogStore, cfg configs.SourceConfig, logger *logrus.Logger, opts ...Option) *Updater {
	u := &Updater{
		source:    source,
		store:     store,
		cfg:       cfg,
		logger:    logger,
		publisher: publisher.Nop{},
		now:       time.Now,
		runID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// job is one instrument handed to a worker. history is shared with the
// catalog and must not be written by the worker.
type job struct {
	ticker  models.TickerInfo
	index   int
	history []models.Candle
}

type update struct {
	index   int
	history []models.Candle
}

// Run executes one pass. Setup failures (universe, catalog) and save
// failures are returned; instrument failures only show up in the Summary.
func (u *Updater) Run(ctx context.Context, mode Mode) (Summary, error) {
	start := u.now()
	sum := Summary{RunID: u.runID(), Mode: mode}
	name := u.source.Name()
	log := u.logger.WithFields(logrus.Fields{"source": name, "run_id": sum.RunID, "mode": mode})

	today := midnight(start)
	yesterday := today.AddDate(0, 0, -1)
	horizon := midnight(u.cfg.HistoryFrom(today))

	log.Info("Loading ticker universe...")
	tickers, err := u.source.ListTickers(ctx)
	if err != nil {
		return sum, fmt.Errorf("list tickers: %w", err)
	}
	valid, invalid := storage.ValidateTickers(storage.DedupeTickers(tickers))
	for _, inv := range invalid {
		log.WithError(inv.Err).Warnf("Skipping ticker %q (mcv_id %q)", inv.Ticker.Ticker, inv.Ticker.MCVID)
	}
	sum.Failed += len(invalid)

	catalog, err := u.loadCatalog(ctx, mode, horizon)
	if err != nil {
		return sum, err
	}

	index := catalog.Index()
	var existing, fresh []job
	for _, t := range valid {
		if i, ok := index[t.MCVID]; ok {
			existing = append(existing, job{ticker: t, index: i, history: catalog.Data[i].History})
			continue
		}
		fresh = append(fresh, job{ticker: t})
	}
	sum.Existing, sum.New = len(existing), len(fresh)
	log.Infof("Universe: %d tickers, %d known, %d new, %d invalid", len(tickers), len(existing), len(fresh), len(invalid))

	if mode == ModeUpdate && u.cfg.MaxNewPerRun > 0 && len(fresh) > u.cfg.MaxNewPerRun {
		sum.Deferred = len(fresh) - u.cfg.MaxNewPerRun
		fresh = fresh[:u.cfg.MaxNewPerRun]
		log.Infof("Backfilling %d new tickers this run, %d deferred", len(fresh), sum.Deferred)
	}

	var changed []int

	if mode == ModeUpdate && len(existing) > 0 {
		res := runner.Run(ctx, existing, func(ctx context.Context, j job) (update, error) {
			return u.updateExisting(ctx, j, yesterday)
		}, u.runnerOptions("update "+name))

		for _, up := range res.Values {
			catalog.Data[up.index].History = up.history
			changed = append(changed, up.index)
		}
		sum.Updated += res.Succeeded()
		sum.Skipped += res.Skipped
		sum.Failed += res.Failed()
	}

	if len(fresh) > 0 {
		res := runner.Run(ctx, fresh, func(ctx context.Context, j job) (models.Series, error) {
			return u.backfill(ctx, j, horizon, yesterday)
		}, u.runnerOptions("backfill "+name))

		added := make(map[string]models.Series, len(res.Values))
		for _, s := range res.Values {
			added[s.MCVID] = s
		}
		// Universe order, not completion order.
		for _, j := range fresh {
			if s, ok := added[j.ticker.MCVID]; ok {
				catalog.Data = append(catalog.Data, s)
				changed = append(changed, len(catalog.Data)-1)
			}
		}
		sum.Added += res.Succeeded()
		sum.Skipped += res.Skipped
		sum.Failed += res.Failed()
	}

	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("run interrupted, catalog not written: %w", err)
	}

	savedAt := u.now()
	catalog.GeneratedAt = savedAt.UTC().Format(time.RFC3339)
	// The cutoff is the backfill start and survives daily runs.
	if catalog.CutoffDate == "" {
		catalog.CutoffDate = horizon.Format(models.DateLayout)
	}
	catalog.RefreshTotals()
	sum.TotalTickers, sum.TotalRecords = catalog.TotalTickers, catalog.TotalRecords

	if err := u.store.Save(ctx, catalog); err != nil {
		return sum, fmt.Errorf("save catalog: %w", err)
	}
	if err := u.store.SaveTickers(ctx, models.TickerListFor(catalog)); err != nil {
		return sum, fmt.Errorf("save tickers: %w", err)
	}
	log.Infof("Saved catalog: %d tickers, %d records, cutoff %s", catalog.TotalTickers, catalog.TotalRecords, catalog.CutoffDate)

	u.afterSave(ctx, log, sum.RunID, catalog, changed, savedAt)

	sum.Duration = u.now().Sub(start)
	u.record(ctx, log, name, sum, savedAt)

	log.WithFields(logrus.Fields{
		"updated":  sum.Updated,
		"added":    sum.Added,
		"skipped":  sum.Skipped,
		"failed":   sum.Failed,
		"deferred": sum.Deferred,
	}).Infof("Run finished in %v", sum.Duration.Round(time.Millisecond))
	return sum, nil
}

func (u *Updater) loadCatalog(ctx context.Context, mode Mode, horizon time.Time) (*models.Catalog, error) {
	if mode == ModeRebuild {
		return models.NewCatalog(horizon), nil
	}

	catalog, err := u.store.Load(ctx)
	if errors.Is(err, storage.ErrCatalogNotFound) {
		if mode == ModeUpdate {
			return nil, fmt.Errorf("%w (run with mode %q to create it)", err, ModeRebuild)
		}
		return models.NewCatalog(horizon), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return catalog, nil
}

// updateExisting fetches day for a known instrument and returns its merged
// history. An empty fetch (holiday, weekend) is a skip.
func (u *Updater) updateExisting(ctx context.Context, j job, day time.Time) (update, error) {
	candles, err := u.source.FetchRecent(ctx, j.ticker, day)
	if errors.Is(err, crawler.ErrNoData) || (err == nil && len(candles) == 0) {
		return update{}, runner.ErrSkip
	}
	if err != nil {
		return update{}, err
	}

	merged := history.Merge(j.history, candles)
	indicator.Apply(merged)
	return update{index: j.index, history: merged}, nil
}

// backfill fetches the full window of a new instrument.
func (u *Updater) backfill(ctx context.Context, j job, from, to time.Time) (models.Series, error) {
	candles, err := u.source.FetchHistory(ctx, j.ticker, from, to)
	if errors.Is(err, crawler.ErrNoData) || (err == nil && len(candles) == 0) {
		return models.Series{}, runner.ErrSkip
	}
	if err != nil {
		return models.Series{}, err
	}

	h := history.Dedupe(candles)
	indicator.Apply(h)
	return j.ticker.NewSeries(h), nil
}

func (u *Updater) runnerOptions(desc string) runner.Options[job] {
	workers := u.cfg.Workers
	if workers <= 0 {
		workers = runner.DefaultWorkers
	}
	return runner.Options[job]{
		Workers: workers,
		Desc:    desc,
		Logger:  u.logger,
		Label:   func(j job) string { return j.ticker.MCVID },
	}
}

// afterSave mirrors and publishes. Sink failures are logged; the catalog is
// already durable at this point.
func (u *Updater) afterSave(ctx context.Context, log *logrus.Entry, runID string, catalog *models.Catalog, changed []int, now time.Time) {
	if u.mirror != nil && len(u.mirrored) > 0 {
		if err := u.mirror.Upload(ctx, u.mirrored...); err != nil {
			log.WithError(err).Error("Mirror upload failed")
		}
	}

	events := make([]publisher.Event, 0, len(changed))
	for _, i := range changed {
		if e, ok := publisher.NewEvent(runID, u.source.Name(), catalog.Data[i], now); ok {
			events = append(events, e)
		}
	}
	if err := u.publisher.Publish(ctx, events); err != nil {
		log.WithError(err).Error("Publishing events failed")
	}
}

func (u *Updater) record(ctx context.Context, log *logrus.Entry, source string, sum Summary, savedAt time.Time) {
	if u.metrics == nil {
		return
	}
	u.metrics.Instruments(metrics.OutcomeUpdated, sum.Updated)
	u.metrics.Instruments(metrics.OutcomeAdded, sum.Added)
	u.metrics.Instruments(metrics.OutcomeSkipped, sum.Skipped)
	u.metrics.Instruments(metrics.OutcomeFailed, sum.Failed)
	u.metrics.Instruments(metrics.OutcomeDeferred, sum.Deferred)
	u.metrics.Catalog(sum.TotalTickers, sum.TotalRecords, savedAt)
	u.metrics.ObserveRun(sum.Duration)
	if err := u.metrics.Push(ctx, source); err != nil {
		log.WithError(err).Warn("Metrics push failed")
	}
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

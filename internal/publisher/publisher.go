// Package publisher fans the latest candle of every updated series out to
// downstream sinks after the catalog has been saved.
package publisher

import (
	"context"
	"errors"
	"time"

	"github.com/navid-fn/momentum/internal/models"
)

// Event is one updated series: its newest candle with indicators.
type Event struct {
	RunID       string        `json:"run_id"`
	Source      string        `json:"source"`
	MCVID       string        `json:"mcv_id"`
	Ticker      string        `json:"ticker"`
	Candle      models.Candle `json:"candle"`
	PublishedAt time.Time     `json:"published_at"`
}

// NewEvent builds the event of s, or false when s has no candles.
func NewEvent(runID, source string, s models.Series, now time.Time) (Event, bool) {
	last, ok := s.Latest()
	if !ok {
		return Event{}, false
	}
	return Event{
		RunID:       runID,
		Source:      source,
		MCVID:       s.MCVID,
		Ticker:      s.Ticker,
		Candle:      last,
		PublishedAt: now.UTC(),
	}, true
}

type Publisher interface {
	Publish(ctx context.Context, events []Event) error
	Close() error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, events []Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, []Event) error { return nil }
func (Nop) Close() error                           { return nil }

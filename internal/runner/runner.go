// Package runner fans independent work items out over a bounded pool of goroutines.
//
// Workers only return values. The goroutine that called Run collects every
// outcome, so results, counters and progress lines are owned by one place
// and need no locking of their own.
package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool size used when Options.Workers is unset.
const DefaultWorkers = 10

// ErrSkip is returned by a task that had nothing to do (a closed market,
// an empty fetch). Skipped items are neither results nor failures.
var ErrSkip = errors.New("nothing to process")

// Options configures one Run.
type Options[In any] struct {
	// Workers bounds the number of tasks running at once.
	Workers int

	// Desc prefixes progress and failure log lines.
	Desc string

	// Logger receives progress and failures. Nil disables logging.
	Logger *logrus.Logger

	// Label names an item in failure logs. Defaults to its index.
	Label func(In) string
}

// Failure describes one item whose task returned an error or panicked.
type Failure struct {
	Index int
	Label string
	Err   error
}

// Result is what a Run produced. Values are in completion order.
type Result[Out any] struct {
	Values   []Out
	Failures []Failure
	Skipped  int
	Total    int
}

// Succeeded is the number of items that produced a value.
func (r Result[Out]) Succeeded() int { return len(r.Values) }

// Failed is the number of items that failed.
func (r Result[Out]) Failed() int { return len(r.Failures) }

type outcome[Out any] struct {
	index int
	value Out
	err   error
}

// Run calls fn once per item with at most opts.Workers calls in flight.
// A failing or panicking item is logged and recorded; it never stops the others.
func Run[In, Out any](ctx context.Context, items []In, fn func(context.Context, In) (Out, error), opts Options[In]) Result[Out] {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	label := opts.Label
	if label == nil {
		label = func(In) string { return "" }
	}

	res := Result[Out]{Total: len(items)}
	if len(items) == 0 {
		return res
	}

	outcomes := make(chan outcome[Out])
	go func() {
		var g errgroup.Group
		g.SetLimit(workers)
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				outcomes <- call(ctx, i, item, fn)
				return nil
			})
		}
		_ = g.Wait()
		close(outcomes)
	}()

	progress := newProgress(opts.Desc, len(items), opts.Logger)
	for o := range outcomes {
		switch {
		case o.err == nil:
			res.Values = append(res.Values, o.value)
		case errors.Is(o.err, ErrSkip):
			res.Skipped++
		default:
			name := label(items[o.index])
			if name == "" {
				name = "#" + strconv.Itoa(o.index)
			}
			res.Failures = append(res.Failures, Failure{Index: o.index, Label: name, Err: o.err})
			if opts.Logger != nil {
				opts.Logger.WithError(o.err).Warnf("[%s] %s failed", opts.Desc, name)
			}
		}
		progress.step(len(res.Values), len(res.Failures), res.Skipped)
	}

	return res
}

func call[In, Out any](ctx context.Context, index int, item In, fn func(context.Context, In) (Out, error)) (o outcome[Out]) {
	o.index = index
	defer func() {
		if r := recover(); r != nil {
			o.err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		o.err = err
		return o
	}
	o.value, o.err = fn(ctx, item)
	return o
}

// progress logs every tenth of the batch.
type progress struct {
	desc   string
	total  int
	every  int
	done   int
	logger *logrus.Logger
}

func newProgress(desc string, total int, logger *logrus.Logger) *progress {
	every := total / 10
	if every < 1 {
		every = 1
	}
	return &progress{desc: desc, total: total, every: every, logger: logger}
}

func (p *progress) step(ok, failed, skipped int) {
	p.done++
	if p.logger == nil {
		return
	}
	if p.done%p.every != 0 && p.done != p.total {
		return
	}
	p.logger.Infof("[%s] %d/%d (%d%%) ok=%d failed=%d skipped=%d",
		p.desc, p.done, p.total, p.done*100/p.total, ok, failed, skipped)
}

package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// tally accumulates outcomes from concurrent workers
type tally struct {
	mu     sync.Mutex
	counts Counts
}

func (t *tally) add(o Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch o {
	case OutcomeSucceeded:
		t.counts.Succeeded++
	case OutcomeSkipped:
		t.counts.Skipped++
	default:
		t.counts.Failed++
	}
}

func (t *tally) snapshot() Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts
}

// processParallel runs fn for every id with at most workerCount in flight.
// One item failing never stops the others; only context cancellation does.
func processParallel(ctx context.Context, job string, workerCount int, ids []int64, fn ItemFunc) (Counts, error) {
	if workerCount < 1 {
		workerCount = 1
	}

	t := &tally{counts: Counts{Total: len(ids)}}

	var g errgroup.Group
	g.SetLimit(workerCount)

	var cancelled error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}

		g.Go(func() error {
			outcome, err := processItem(ctx, fn, id)
			if err != nil {
				log.Warn().Err(err).
					Str("job", job).
					Int64("product_id", id).
					Msg("product processing failed")
				outcome = OutcomeFailed
			}
			t.add(outcome)
			return nil
		})
	}

	_ = g.Wait()

	return t.snapshot(), cancelled
}

// processItem isolates a single product so a panic is reported as a failure.
func processItem(ctx context.Context, fn ItemFunc, id int64) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Int64("product_id", id).
				Str("stack", string(debug.Stack())).
				Msgf("panic while processing product: %v", r)
			outcome = OutcomeFailed
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}

	return fn(ctx, id)
}

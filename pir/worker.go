package pir

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// span is the half-open range [Begin, End) of items handed to one worker.
type span struct {
	Begin, End int
}

func (s span) Len() int {
	return s.End - s.Begin
}

// partition splits total items into at most n contiguous spans of
// ceil(total/n) items; only the last span may be shorter. Empty spans are
// dropped, so fewer than n spans come back when total < n.
func partition(total, n int) []span {
	if total <= 0 || n <= 0 {
		return nil
	}
	size := (total + n - 1) / n
	spans := make([]span, 0, n)
	for i := 0; i < n; i++ {
		begin := i * size
		if begin >= total {
			break
		}
		spans = append(spans, span{begin, min(total, (i+1)*size)})
	}
	return spans
}

// runRound runs task once per span, each in its own goroutine, and waits for
// all of them. Results are indexed by span position, never by completion
// order. The first failure cancels the round context and is returned as a
// *WorkerError; the other results are discarded.
func runRound[T any](ctx context.Context, spans []span, task func(ctx context.Context, i int, s span) (T, error)) ([]T, error) {
	results := make([]T, len(spans))
	g, ctx := errgroup.WithContext(ctx)
	for i, s := range spans {
		i, s := i, s
		g.Go(func() error {
			res, err := task(ctx, i, s)
			if err != nil {
				return &WorkerError{Worker: i, Begin: s.Begin, End: s.End, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func concat(parts [][]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

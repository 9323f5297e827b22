package combinator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/on-the-ground/effect_ive_visual/visual"
	"github.com/on-the-ground/effect_ive_visual/visual/result"
)

// Succeed resolves with r right away.
func Succeed(r result.Result) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		return r, nil
	}
}

// Fail fails with err right away.
func Fail(err error) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		return nil, err
	}
}

// Sleep resolves with r after d, or returns the context error if ctx ends first.
func Sleep(d time.Duration, r result.Result) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return r, nil
		}
	}
}

// All runs cs one after another and collects their results into a Chunk.
// The first failure stops the rest from starting.
func All(cs ...visual.Computation) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		values := make([]result.Result, 0, len(cs))
		for _, c := range cs {
			r, err := c(ctx)
			if err != nil {
				return nil, err
			}
			values = append(values, r)
		}
		return result.NewChunk(values...), nil
	}
}

// AllConcurrent runs cs at the same time and collects their results into a
// Chunk in argument order. The first failure interrupts the others.
func AllConcurrent(cs ...visual.Computation) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		sv := supervise(ctx, cs)
		values := make([]result.Result, len(cs))
		for range cs {
			res := <-sv.results
			if res.err != nil {
				sv.stop(visual.ErrInterrupted)
				return nil, res.err
			}
			values[res.index] = res.value
		}
		sv.stop(nil)
		return result.NewChunk(values...), nil
	}
}

// Sequence runs cs in order and resolves with the last result.
func Sequence(cs ...visual.Computation) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		if len(cs) == 0 {
			return nil, ErrNoComputations
		}
		var last result.Result
		for _, c := range cs {
			r, err := c(ctx)
			if err != nil {
				return nil, err
			}
			last = r
		}
		return last, nil
	}
}

// FirstSuccessOf tries cs in order until one succeeds. When all fail it returns
// the last error. An interruption is returned as is without trying the rest.
func FirstSuccessOf(cs ...visual.Computation) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		if len(cs) == 0 {
			return nil, ErrNoComputations
		}
		var lastErr error
		for _, c := range cs {
			r, err := c(ctx)
			if err == nil {
				return r, nil
			}
			if ctx.Err() != nil || visual.IsInterruption(err) {
				return nil, err
			}
			lastErr = err
		}
		return nil, lastErr
	}
}

// Race runs cs at the same time and resolves with the first success. The
// losers are interrupted and joined before Race returns. When every child
// fails, the error wraps ErrAllFailed and each child error.
func Race(cs ...visual.Computation) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		if len(cs) == 0 {
			return nil, ErrNoComputations
		}
		sv := supervise(ctx, cs)
		errs := make([]error, len(cs))
		for range cs {
			res := <-sv.results
			if res.err == nil {
				sv.stop(visual.ErrInterrupted)
				return res.value, nil
			}
			errs[res.index] = res.err
		}
		sv.stop(nil)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAllFailed, errors.Join(errs...))
	}
}

// Timeout fails c with ErrTimeout when it has not settled after d. It settles
// at the deadline even if c ignores its context; c keeps running in the
// background until it returns.
func Timeout(c visual.Computation, d time.Duration) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		tctx, cancel := context.WithTimeoutCause(ctx, d, ErrTimeout)
		defer cancel()

		sv := supervise(tctx, []visual.Computation{c})
		select {
		case res := <-sv.results:
			if res.err == nil {
				return res.value, nil
			}
			if timedOut(ctx, tctx) {
				return nil, fmt.Errorf("%w after %s", ErrTimeout, d)
			}
			return nil, res.err
		case <-tctx.Done():
			if timedOut(ctx, tctx) {
				return nil, fmt.Errorf("%w after %s", ErrTimeout, d)
			}
			return nil, ctx.Err()
		}
	}
}

func timedOut(parent, tctx context.Context) bool {
	return parent.Err() == nil && errors.Is(context.Cause(tctx), ErrTimeout)
}

// Policy controls Retry.
type Policy struct {
	// Times is how many retries follow the first attempt.
	Times int
	// Delay before the first retry. Zero retries immediately.
	Delay time.Duration
	// Factor multiplies the delay after every retry. Values below 1 keep it fixed.
	Factor float64
	// MaxDelay caps the delay when positive.
	MaxDelay time.Duration
	// OnRetry is called before each retry with the 1-based attempt that failed.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (p Policy) delay(attempt int) time.Duration {
	if p.Delay <= 0 {
		return 0
	}
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}
	d := float64(p.Delay) * math.Pow(factor, float64(attempt-1))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}

// Retry re-runs c after a failure, up to p.Times more times. Interruptions are
// never retried.
func Retry(c visual.Computation, p Policy) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		attempts := p.Times + 1
		if attempts < 1 {
			attempts = 1
		}

		var lastErr error
		for attempt := 1; attempt <= attempts; attempt++ {
			r, err := c(ctx)
			if err == nil {
				return r, nil
			}
			lastErr = err
			if ctx.Err() != nil || visual.IsInterruption(err) || attempt == attempts {
				break
			}

			delay := p.delay(attempt)
			if p.OnRetry != nil {
				p.OnRetry(attempt, err, delay)
			}
			if delay > 0 {
				timer := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				case <-timer.C:
				}
			}
		}
		return nil, lastErr
	}
}

// Range emits the numbers start..end inclusive, one every interval, and
// resolves with all of them as a Chunk. onEmit, when set, sees each number as
// it is emitted.
func Range(start, end int, interval time.Duration, onEmit func(n int)) visual.Computation {
	return func(ctx context.Context) (result.Result, error) {
		values := make([]float64, 0)
		for n := start; n <= end; n++ {
			if n > start && interval > 0 {
				timer := time.NewTimer(interval)
				select {
				case <-ctx.Done():
					timer.Stop()
					return nil, ctx.Err()
				case <-timer.C:
				}
			} else if err := ctx.Err(); err != nil {
				return nil, err
			}
			values = append(values, float64(n))
			if onEmit != nil {
				onEmit(n)
			}
		}
		return result.Numbers(values...), nil
	}
}

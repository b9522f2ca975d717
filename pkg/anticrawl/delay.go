package anticrawl

import (
	"context"
	"time"
)

// DelayRange bounds the randomized pause inserted before each request.
type DelayRange struct {
	Min time.Duration `json:"min" yaml:"min"`
	Max time.Duration `json:"max" yaml:"max"`
}

// DelayScheduler draws inter-request delays. Bounds are immutable after
// construction, so concurrent callers draw independently without
// coordination; each draw affects only the waiting worker.
type DelayScheduler struct {
	bounds  DelayRange
	enabled bool
	rnd     Source
}

func newDelayScheduler(bounds DelayRange, enabled bool, rnd Source) *DelayScheduler {
	return &DelayScheduler{bounds: bounds, enabled: enabled, rnd: rnd}
}

// NextDelay returns a duration drawn uniformly from [Min, Max], or zero
// when the delay feature is disabled.
func (s *DelayScheduler) NextDelay() time.Duration {
	if !s.enabled {
		return 0
	}
	if s.bounds.Max == s.bounds.Min {
		return s.bounds.Min
	}
	return s.bounds.Min + time.Duration(s.rnd.Float64()*float64(s.bounds.Max-s.bounds.Min))
}

// Wait draws one delay and blocks until it elapses, returning the waited
// duration. Cancellation interrupts the wait immediately; nothing is spent
// or leaked, the caller simply gets the context error.
func (s *DelayScheduler) Wait(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	d := s.NextDelay()
	if d <= 0 {
		return 0, nil
	}
	select {
	case <-time.After(d):
		return d, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Enabled reports whether delays are being applied.
func (s *DelayScheduler) Enabled() bool {
	return s.enabled
}

// Bounds returns the configured delay range.
func (s *DelayScheduler) Bounds() DelayRange {
	return s.bounds
}

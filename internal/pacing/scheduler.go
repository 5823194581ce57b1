// Package pacing computes randomized delays between deliveries and provides
// the cancellable countdown every timed pause in a run goes through.
package pacing

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"prompt-feeder/internal/model"
)

// DefaultTick is the countdown granularity and the worst-case latency for
// noticing a cancelled context.
const DefaultTick = time.Second

type Scheduler struct {
	mu   sync.Mutex
	rng  *rand.Rand
	tick time.Duration
}

type Option func(*Scheduler)

// WithRand fixes the random source, mainly for tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Scheduler) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithTick overrides the countdown granularity.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		rng:  rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		tick: DefaultTick,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// JitteredDelay returns BaseDelay plus a uniform offset in [-Jitter, +Jitter],
// rounded to the millisecond. It does not clamp: a jitter larger than the
// base can yield zero or a negative delay.
func (s *Scheduler) JitteredDelay(p model.Profile) time.Duration {
	s.mu.Lock()
	u := s.rng.Float64()
	s.mu.Unlock()

	base := float64(p.BaseDelay.Milliseconds())
	jitter := float64(p.Jitter.Milliseconds())
	ms := math.Round(base + (u-0.5)*2*jitter)
	return time.Duration(ms) * time.Millisecond
}

// Wait blocks for up to d, calling onTick with the remaining time after each
// elapsed tick. It returns false as soon as ctx is done and true once the
// full duration has passed. Non-positive durations return immediately.
func (s *Scheduler) Wait(ctx context.Context, d time.Duration, onTick func(remaining time.Duration)) bool {
	if ctx.Err() != nil {
		return false
	}
	if d <= 0 {
		return true
	}

	deadline := time.NewTimer(d)
	defer deadline.Stop()
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	remaining := d
	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return ctx.Err() == nil
		case <-ticker.C:
			remaining -= s.tick
			if remaining <= 0 {
				continue
			}
			if onTick != nil {
				onTick(remaining)
			}
		}
	}
}

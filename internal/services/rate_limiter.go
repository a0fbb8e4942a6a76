package services

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"inkwell/internal/models"
)

const rateWindow = 60 * time.Second

// RateLimiter enforces per-(feature,provider) request pacing with a sliding
// 60-second window, behind a generous global admission limiter that protects
// the process as a whole.
type RateLimiter struct {
	global *rate.Limiter

	mu      sync.Mutex
	windows map[string][]time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a limiter with an empty window set.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		global:  rate.NewLimiter(rate.Limit(50), 100),
		windows: make(map[string][]time.Time),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// RateKey builds the window key for a feature/provider pair.
func RateKey(feature string, provider models.Provider) string {
	return feature + ":" + string(provider)
}

// WaitForSlot blocks until the key may issue another request under rpm
// requests per minute, returning the total time spent waiting. A limit of
// zero, negative, or non-finite disables limiting for the call.
func (l *RateLimiter) WaitForSlot(ctx context.Context, key string, rpm float64) (time.Duration, error) {
	if rpm <= 0 || math.IsNaN(rpm) || math.IsInf(rpm, 0) {
		return 0, nil
	}

	if err := l.global.Wait(ctx); err != nil {
		return 0, err
	}

	limit := int(rpm)
	if limit < 1 {
		limit = 1
	}

	var waited time.Duration
	for {
		l.mu.Lock()
		now := l.now()
		window := prune(l.windows[key], now)

		if len(window) < limit {
			l.windows[key] = append(window, now)
			l.mu.Unlock()
			return waited, nil
		}

		// The window is full; wait until the oldest timestamp slides out.
		delay := window[0].Add(rateWindow).Sub(now)
		l.windows[key] = window
		l.mu.Unlock()

		if delay <= 0 {
			continue
		}
		if err := l.sleep(ctx, delay); err != nil {
			return waited, err
		}
		waited += delay
	}
}

func prune(window []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-rateWindow)
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

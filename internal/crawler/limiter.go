package crawler

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Limiter blocks before each article fetch.
type Limiter interface {
	// Wait returns once the next request may proceed, or with the
	// context's error if it ends first.
	Wait(ctx context.Context) error
}

// LimiterFunc adapts a function to the Limiter interface.
type LimiterFunc func(ctx context.Context) error

// Wait calls f.
func (f LimiterFunc) Wait(ctx context.Context) error {
	return f(ctx)
}

// SleepFunc pauses for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

// JitterLimiter pauses for a uniformly random duration in [min, max]
// before every request.
type JitterLimiter struct {
	min    time.Duration
	max    time.Duration
	randN  func(n int64) int64
	sleep  SleepFunc
	last   time.Duration
	waited int
}

// JitterOption configures a JitterLimiter.
type JitterOption func(*JitterLimiter)

// WithRandom replaces the random source. randN must return a value in [0, n).
func WithRandom(randN func(n int64) int64) JitterOption {
	return func(l *JitterLimiter) {
		l.randN = randN
	}
}

// WithSleep replaces the sleep function.
func WithSleep(sleep SleepFunc) JitterOption {
	return func(l *JitterLimiter) {
		l.sleep = sleep
	}
}

// NewJitterLimiter creates a JitterLimiter. If maxDelay < minDelay,
// maxDelay is raised to minDelay.
func NewJitterLimiter(minDelay, maxDelay time.Duration, opts ...JitterOption) *JitterLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	l := &JitterLimiter{
		min:   minDelay,
		max:   maxDelay,
		randN: rand.Int64N,
		sleep: Sleep,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait sleeps for the next random delay.
func (l *JitterLimiter) Wait(ctx context.Context) error {
	d := l.min
	if span := int64(l.max - l.min); span > 0 {
		d += time.Duration(l.randN(span + 1))
	}
	l.last = d
	l.waited++
	return l.sleep(ctx, d)
}

// Last returns the delay chosen by the most recent Wait.
func (l *JitterLimiter) Last() time.Duration {
	return l.last
}

// Waits returns how many times Wait has been called.
func (l *JitterLimiter) Waits() int {
	return l.waited
}

// IntervalLimiter spaces requests at most one per interval using a
// token bucket of size one. The first request proceeds at once.
type IntervalLimiter struct {
	limiter *rate.Limiter
}

// NewIntervalLimiter creates an IntervalLimiter. A non-positive interval
// disables limiting.
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &IntervalLimiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the bucket has a token.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Sleep pauses for d, returning early with ctx's error if it ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ejfox/pinboard-news/config"
)

// Limiter paces outbound calls the way a free-tier API expects: a minimum
// interval between dispatches, a cap on concurrent in-flight calls, and a
// token reservoir refilled on a fixed schedule. One instance is shared by
// every pipeline invocation in the process so request concurrency cannot
// exceed the upstream budget.
type Limiter struct {
	interval *rate.Limiter
	sem      chan struct{}

	mu          sync.Mutex
	reservoir   int
	refillAmt   int
	refillEvery time.Duration
	lastRefill  time.Time

	now func() time.Time
}

func New(cfg *config.LimiterConfig) *Limiter {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	l := &Limiter{
		interval:    rate.NewLimiter(rate.Every(cfg.MinInterval), 1),
		sem:         make(chan struct{}, maxConcurrent),
		reservoir:   cfg.Reservoir,
		refillAmt:   cfg.RefillAmount,
		refillEvery: cfg.RefillInterval,
		now:         time.Now,
	}
	l.lastRefill = l.now()
	return l
}

// Schedule runs fn once a concurrency slot, a reservoir token and the
// minimum-interval gap are all available, blocking until then or until ctx
// is done.
func (l *Limiter) Schedule(ctx context.Context, fn func() error) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.sem }()

	if err := l.takeToken(ctx); err != nil {
		return err
	}
	if err := l.interval.Wait(ctx); err != nil {
		return err
	}
	return fn()
}

// Available reports the current reservoir size after crediting any refills
// due.
func (l *Limiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.reservoir
}

func (l *Limiter) takeToken(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refill()
		if l.reservoir > 0 {
			l.reservoir--
			l.mu.Unlock()
			return nil
		}
		wait := l.refillEvery - l.now().Sub(l.lastRefill)
		l.mu.Unlock()

		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// refill credits the reservoir for every full refill interval elapsed since
// the last credit. Caller holds mu.
func (l *Limiter) refill() {
	if l.refillEvery <= 0 {
		return
	}
	for l.now().Sub(l.lastRefill) >= l.refillEvery {
		l.reservoir += l.refillAmt
		l.lastRefill = l.lastRefill.Add(l.refillEvery)
	}
}

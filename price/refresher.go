package price

import (
	"context"
	"sync"
	"time"

	"github.com/Pavankumar07s/ETHF/logger"
)

// Refresher re-resolves the required amount on a fixed interval while the
// payer sits on the confirmation step. Each refresh fails soft: the last good
// quote stays in place and the error is handed to the caller's policy, which
// decides when repeated failures warrant aborting.
type Refresher struct {
	resolver *Resolver
	interval time.Duration
	log      logger.Logger

	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	failures int
	last     *Quote
}

func NewRefresher(resolver *Resolver, interval time.Duration, log logger.Logger) *Refresher {
	if log == nil {
		log = logger.NoopLogger{}
	}
	return &Refresher{resolver: resolver, interval: interval, log: log}
}

// Start resolves once immediately, then on every tick. onQuote receives each
// successful quote; onError receives each failure together with the count of
// consecutive failures so far. Start replaces any previous run: the old timer
// is stopped first so timers never stack.
func (f *Refresher) Start(
	ctx context.Context,
	chainID uint64, token string, usdCents int64,
	onQuote func(*Quote),
	onError func(err error, consecutive int),
) {
	f.Stop()

	f.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	f.stop = stop
	f.done = done
	f.failures = 0
	f.mu.Unlock()

	go func() {
		defer close(done)

		f.refresh(ctx, chainID, token, usdCents, onQuote, onError)

		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.refresh(ctx, chainID, token, usdCents, onQuote, onError)
			}
		}
	}()
}

func (f *Refresher) refresh(
	ctx context.Context,
	chainID uint64, token string, usdCents int64,
	onQuote func(*Quote),
	onError func(err error, consecutive int),
) {
	quote, err := f.resolver.RequiredAmount(ctx, chainID, token, usdCents)
	f.mu.Lock()
	if err != nil {
		f.failures++
		consecutive := f.failures
		f.mu.Unlock()
		f.log.Warn("price refresh failed", map[string]any{
			"chain": chainID, "token": token, "consecutive": consecutive,
		})
		if onError != nil {
			onError(err, consecutive)
		}
		return
	}
	f.failures = 0
	f.last = quote
	f.mu.Unlock()
	if onQuote != nil {
		onQuote(quote)
	}
}

// Last returns the most recent successful quote, or nil before the first one.
func (f *Refresher) Last() *Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

// Stop cancels the refresh loop and waits for it to exit. Safe to call when
// never started or already stopped.
func (f *Refresher) Stop() {
	f.mu.Lock()
	stop, done := f.stop, f.done
	f.stop, f.done = nil, nil
	f.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

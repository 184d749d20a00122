package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/metrics"
	"github.com/Pavankumar07s/ETHF/types"
)

// StatusEvent is emitted each time a tracked intent's resolved status
// changes, and once more when it reaches a terminal status.
type StatusEvent struct {
	UID       string
	OrderHash string
	Status    types.IntentStatus
}

// AutoRefresher keeps every tracked in-flight intent's status fresh. Each
// tracked intent gets its own polling goroutine; all of them share one rate
// limiter so a screenful of processing intents cannot stampede the venue.
type AutoRefresher struct {
	reconciler *Reconciler
	interval   time.Duration
	limiter    *rate.Limiter

	mu       sync.Mutex
	handlers map[string]*intentHandler
	stopped  bool

	events chan StatusEvent
	wg     sync.WaitGroup

	log logger.Logger
	met metrics.Recorder
}

type AutoRefresherOpts struct {
	Reconciler *Reconciler
	Interval   time.Duration
	Limiter    *rate.Limiter
	Logger     logger.Logger
	Metrics    metrics.Recorder
}

func NewAutoRefresher(opts AutoRefresherOpts) *AutoRefresher {
	if opts.Interval <= 0 {
		opts.Interval = types.DefaultStatusRefreshInterval
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Every(time.Second), 5)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NoopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	return &AutoRefresher{
		reconciler: opts.Reconciler,
		interval:   opts.Interval,
		limiter:    opts.Limiter,
		handlers:   make(map[string]*intentHandler),
		events:     make(chan StatusEvent, 32),
		log:        opts.Logger,
		met:        opts.Metrics,
	}
}

// Events is the channel status changes are delivered on. It is closed by
// Stop after the last handler exits.
func (a *AutoRefresher) Events() <-chan StatusEvent {
	return a.events
}

// Track starts refreshing the intent. Tracking an already tracked uid is a
// no-op, so re-rendering callers never stack duplicate pollers.
func (a *AutoRefresher) Track(uid, orderHash string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	if _, ok := a.handlers[uid]; ok {
		return
	}

	h := &intentHandler{
		uid:       uid,
		orderHash: orderHash,
		stopChan:  make(chan struct{}),
	}
	a.handlers[uid] = h
	a.wg.Add(1)
	go a.run(h)

	a.log.Debug("tracking intent status", map[string]any{"uid": uid, "orderHash": orderHash})
	a.met.SetGauge("tracked_intents", float64(len(a.handlers)), nil)
}

// Untrack stops refreshing the intent. Safe to call for untracked uids.
func (a *AutoRefresher) Untrack(uid string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.untrackLocked(uid)
}

func (a *AutoRefresher) untrackLocked(uid string) {
	h, ok := a.handlers[uid]
	if !ok {
		return
	}
	delete(a.handlers, uid)
	close(h.stopChan)
	a.log.Debug("stopped tracking intent status", map[string]any{"uid": uid})
	a.met.SetGauge("tracked_intents", float64(len(a.handlers)), nil)
}

// Stop halts every handler, waits for them to exit and closes the event
// channel. The refresher cannot be restarted.
func (a *AutoRefresher) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	for uid := range a.handlers {
		a.untrackLocked(uid)
	}
	a.mu.Unlock()

	a.wg.Wait()
	close(a.events)
}

type intentHandler struct {
	uid       string
	orderHash string
	stopChan  chan struct{}
	last      types.IntentStatus
}

func (a *AutoRefresher) run(h *intentHandler) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	// First poll happens immediately; waiting a full interval before the
	// first read leaves just-submitted intents stale on screen.
	if done := a.refresh(h); done {
		a.Untrack(h.uid)
		return
	}
	for {
		select {
		case <-ticker.C:
			if done := a.refresh(h); done {
				a.Untrack(h.uid)
				return
			}
		case <-h.stopChan:
			return
		}
	}
}

// refresh polls once and reports whether the intent reached a terminal
// status. Errors are logged and retried on the next tick.
func (a *AutoRefresher) refresh(h *intentHandler) bool {
	ctx, cancel := context.WithTimeout(context.Background(), a.interval)
	defer cancel()

	if err := a.limiter.Wait(ctx); err != nil {
		return false
	}

	status, err := a.reconciler.Resolve(ctx, h.orderHash)
	if err != nil {
		a.met.IncCounter("refresh_errors", nil)
		a.log.Warn("intent status refresh failed", map[string]any{
			"uid": h.uid, "orderHash": h.orderHash, "err": err.Error(),
		})
		return false
	}

	if status != h.last {
		h.last = status
		select {
		case a.events <- StatusEvent{UID: h.uid, OrderHash: h.orderHash, Status: status}:
		case <-h.stopChan:
			return true
		}
	}
	return status.Terminal()
}

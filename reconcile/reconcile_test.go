package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/Pavankumar07s/ETHF/fusion"
	"github.com/Pavankumar07s/ETHF/types"
)

// fakeSource serves scripted statuses per order hash.
type fakeSource struct {
	mu       sync.Mutex
	statuses map[string][]fusion.OrderState
	polls    map[string]int
	err      error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		statuses: map[string][]fusion.OrderState{},
		polls:    map[string]int{},
	}
}

func (f *fakeSource) OrderStatus(ctx context.Context, orderHash string) (*fusion.OrderStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	script := f.statuses[orderHash]
	i := f.polls[orderHash]
	f.polls[orderHash]++
	if len(script) == 0 {
		return &fusion.OrderStatus{OrderHash: orderHash, Status: fusion.OrderPending}, nil
	}
	if i >= len(script) {
		i = len(script) - 1
	}
	return &fusion.OrderStatus{OrderHash: orderHash, Status: script[i]}, nil
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		state fusion.OrderState
		want  types.IntentStatus
	}{
		{fusion.OrderExecuted, types.StatusCompleted},
		{fusion.OrderFilled, types.StatusCompleted},
		{"Executed", types.StatusCompleted},
		{fusion.OrderExpired, types.StatusFailed},
		{fusion.OrderRefunded, types.StatusFailed},
		{fusion.OrderCancelled, types.StatusFailed},
		{fusion.OrderPending, types.StatusProcessing},
		{"something-new", types.StatusProcessing},
		{"", types.StatusProcessing},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusFor(tc.state), "state %q", tc.state)
	}
}

func TestResolve_UnknownOrderIsProcessing(t *testing.T) {
	r := NewReconciler(newFakeSource(), nil)
	status, err := r.Resolve(context.Background(), "0xnever-seen")
	require.NoError(t, err)
	assert.Equal(t, types.StatusProcessing, status)
}

func TestResolve_PropagatesSourceErrors(t *testing.T) {
	source := newFakeSource()
	source.err = errors.New("venue unreachable")
	r := NewReconciler(source, nil)

	_, err := r.Resolve(context.Background(), "0xhash")
	assert.Error(t, err)
}

func newTestRefresher(source *fakeSource) *AutoRefresher {
	return NewAutoRefresher(AutoRefresherOpts{
		Reconciler: NewReconciler(source, nil),
		Interval:   10 * time.Millisecond,
		Limiter:    rate.NewLimiter(rate.Inf, 1),
	})
}

func TestAutoRefresher_EmitsChangesAndSelfUntracks(t *testing.T) {
	source := newFakeSource()
	source.statuses["0xa"] = []fusion.OrderState{
		fusion.OrderPending, fusion.OrderPending, fusion.OrderExecuted,
	}

	a := newTestRefresher(source)
	defer a.Stop()

	a.Track("uid-a", "0xa")

	var got []types.IntentStatus
	deadline := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-a.Events():
			assert.Equal(t, "uid-a", ev.UID)
			got = append(got, ev.Status)
		case <-deadline:
			t.Fatalf("timed out, events so far: %v", got)
		}
	}

	assert.Equal(t, []types.IntentStatus{types.StatusProcessing, types.StatusCompleted}, got)

	// The handler untracked itself on the terminal status; re-tracking works.
	assert.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		_, tracked := a.handlers["uid-a"]
		return !tracked
	}, time.Second, 5*time.Millisecond)
}

func TestAutoRefresher_TrackIsIdempotent(t *testing.T) {
	source := newFakeSource()
	a := newTestRefresher(source)
	defer a.Stop()

	a.Track("uid-b", "0xb")
	a.Track("uid-b", "0xb")
	a.Track("uid-b", "0xb")

	a.mu.Lock()
	count := len(a.handlers)
	a.mu.Unlock()
	assert.Equal(t, 1, count, "duplicate Track must not stack pollers")
}

func TestAutoRefresher_UntrackStopsPolling(t *testing.T) {
	source := newFakeSource()
	a := newTestRefresher(source)
	defer a.Stop()

	a.Track("uid-c", "0xc")
	// Let at least the immediate poll happen.
	assert.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.polls["0xc"] > 0
	}, time.Second, time.Millisecond)

	a.Untrack("uid-c")
	source.mu.Lock()
	after := source.polls["0xc"]
	source.mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	source.mu.Lock()
	final := source.polls["0xc"]
	source.mu.Unlock()
	assert.LessOrEqual(t, final, after+1, "at most one in-flight poll after Untrack")
}

func TestAutoRefresher_ErrorsAreRetried(t *testing.T) {
	source := newFakeSource()
	source.err = errors.New("down")
	a := newTestRefresher(source)
	defer a.Stop()

	a.Track("uid-d", "0xd")
	time.Sleep(50 * time.Millisecond)

	// Recovery: the next tick resolves and emits.
	source.mu.Lock()
	source.err = nil
	source.statuses["0xd"] = []fusion.OrderState{fusion.OrderFilled}
	source.mu.Unlock()

	select {
	case ev := <-a.Events():
		assert.Equal(t, types.StatusCompleted, ev.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no event after recovery")
	}
}

func TestAutoRefresher_StopClosesEvents(t *testing.T) {
	source := newFakeSource()
	a := newTestRefresher(source)

	a.Track("uid-e", "0xe")
	a.Stop()
	a.Stop() // idempotent

	// The channel drains then closes.
	for range a.Events() {
	}

	// Tracking after Stop is a no-op.
	a.Track("uid-f", "0xf")
	a.mu.Lock()
	defer a.mu.Unlock()
	assert.Empty(t, a.handlers)
}

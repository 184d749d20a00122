package price

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavankumar07s/ETHF/backend"
)

func TestRefresher_EmitsImmediatelyThenOnTicks(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "get-required-token-amount") {
			hits.Add(1)
		}
		priceHandler(w, r, "1", "10")
	}))
	defer srv.Close()

	f := NewRefresher(newResolver(srv), 20*time.Millisecond, nil)

	quotes := make(chan *Quote, 16)
	f.Start(context.Background(), 1, usdc, 1000,
		func(q *Quote) { quotes <- q }, nil)
	defer f.Stop()

	// The first quote arrives without waiting for a tick.
	select {
	case q := <-quotes:
		assert.Equal(t, "10", q.Amount.String())
	case <-time.After(time.Second):
		t.Fatal("no immediate quote")
	}

	// And later ticks keep refreshing.
	select {
	case <-quotes:
	case <-time.After(time.Second):
		t.Fatal("no periodic refresh")
	}

	assert.NotNil(t, f.Last())
}

func TestRefresher_FailSoftCountsConsecutive(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		priceHandler(w, r, "1", "10")
	}))
	defer srv.Close()

	f := NewRefresher(NewResolver(backend.NewClient(srv.URL, srv.Client(), nil), nil), 20*time.Millisecond, nil)

	type failure struct{ consecutive int }
	failures := make(chan failure, 16)
	quotes := make(chan *Quote, 16)
	f.Start(context.Background(), 1, usdc, 1000,
		func(q *Quote) { quotes <- q },
		func(err error, consecutive int) { failures <- failure{consecutive} })
	defer f.Stop()

	first := <-failures
	second := <-failures
	assert.Equal(t, 1, first.consecutive)
	assert.Equal(t, 2, second.consecutive)
	assert.Nil(t, f.Last(), "no quote yet while the feed is down")

	// Once the feed recovers the failure streak resets.
	fail.Store(false)
	select {
	case <-quotes:
	case <-time.After(time.Second):
		t.Fatal("no quote after recovery")
	}
	require.NotNil(t, f.Last())
}

func TestRefresher_StartReplacesPreviousRun(t *testing.T) {
	srv := priceServer(t, "1", "10", 6)
	defer srv.Close()

	f := NewRefresher(NewResolver(backend.NewClient(srv.URL, srv.Client(), nil), nil), 20*time.Millisecond, nil)
	var count atomic.Int32
	onQuote := func(*Quote) { count.Add(1) }

	f.Start(context.Background(), 1, usdc, 1000, onQuote, nil)
	f.Start(context.Background(), 1, usdc, 1000, onQuote, nil)
	time.Sleep(70 * time.Millisecond)
	f.Stop()

	stopped := count.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, count.Load(), "no refreshes after Stop")
}

func TestRefresher_StopIdempotent(t *testing.T) {
	srv := priceServer(t, "1", "10", 6)
	defer srv.Close()

	f := NewRefresher(NewResolver(backend.NewClient(srv.URL, srv.Client(), nil), nil), time.Minute, nil)
	f.Stop() // never started
	f.Start(context.Background(), 1, usdc, 1000, nil, nil)
	f.Stop()
	f.Stop()
}

func priceHandler(w http.ResponseWriter, r *http.Request, price, requiredAmount string) {
	if strings.Contains(r.URL.Path, "get-required-token-amount") {
		json.NewEncoder(w).Encode(map[string]any{"success": true, "requiredAmount": requiredAmount})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"success": true, "price": price,
		"token": map[string]any{"symbol": "TKN", "decimals": 6},
	})
}

package ethf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pavankumar07s/ETHF/payment"
	"github.com/Pavankumar07s/ETHF/types"
	"github.com/Pavankumar07s/ETHF/wallet"
)

const testPayer = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func newTestEngine(t *testing.T, backendURL string) (*ETHF, *wallet.FakeProvider) {
	t.Helper()
	provider := wallet.NewFakeProvider(testPayer, 1)
	e, err := New(&types.Config{
		BackendURL:   backendURL,
		Networks:     types.DefaultNetworks(),
		PollInterval: time.Millisecond,
	}, provider)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, provider
}

func TestNew_ValidatesConfig(t *testing.T) {
	_, err := New(&types.Config{}, wallet.NewFakeProvider(testPayer, 1))
	require.Error(t, err)
}

func TestNew_AppliesDefaults(t *testing.T) {
	e, _ := newTestEngine(t, "http://localhost:3001/api")

	assert.Equal(t, types.DefaultReceiver, e.config.Receiver)
	assert.Equal(t, types.DefaultMaxPollAttempts, e.config.MaxPollAttempts)
	assert.NotNil(t, e.Backend())
	assert.Len(t, e.Networks(), 8)
}

func TestPay_RejectsConcurrentAttemptsForSameOrder(t *testing.T) {
	// A backend that never resolves an order keeps the first attempt inside
	// its monitoring loop while the second attempt is made.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "pending"})
	}))
	defer srv.Close()

	e, _ := newTestEngine(t, srv.URL)
	require.NoError(t, e.begin("uuid-1"))

	_, err := e.PaySameChain(context.Background(), payment.SameChainRequest{
		MerchantOrderUUID: "uuid-1",
	})
	assert.Equal(t, types.ErrPaymentInProgress, types.ErrorCode(err))

	// A different order is unaffected, and finishing releases the slot.
	e.end("uuid-1")
	require.NoError(t, e.begin("uuid-1"))
	e.end("uuid-1")
}

func TestPay_GuardReleasedOnFailure(t *testing.T) {
	e, _ := newTestEngine(t, "http://localhost:3001/api")

	req := payment.SameChainRequest{
		ChainID: 1, InToken: "0xa", OutToken: "0xa", // same token fails validation
		Amount:            decimal.NewFromInt(1),
		MerchantOrderUUID: "uuid-2",
	}
	_, err := e.PaySameChain(context.Background(), req)
	assert.Equal(t, types.ErrSameTokenSwap, types.ErrorCode(err))

	// The failed attempt released the guard.
	_, err = e.PaySameChain(context.Background(), req)
	assert.Equal(t, types.ErrSameTokenSwap, types.ErrorCode(err))
}

func TestPay_GuardIsPerOrder(t *testing.T) {
	e, _ := newTestEngine(t, "http://localhost:3001/api")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	require.NoError(t, e.begin("uuid-a"))
	for i, uid := range []string{"uuid-a", "uuid-b"} {
		i, uid := i, uid
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = e.begin(uid)
		}()
	}
	wg.Wait()

	assert.Equal(t, types.ErrPaymentInProgress, types.ErrorCode(errs[0]))
	assert.NoError(t, errs[1])
}

func TestCheckOrderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "Executed"})
	}))
	defer srv.Close()

	e, _ := newTestEngine(t, srv.URL)
	status, err := e.CheckOrderStatus(context.Background(), "0xdone")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, status)
}

func TestNewPriceRefresher_IndependentInstances(t *testing.T) {
	e, _ := newTestEngine(t, "http://localhost:3001/api")
	a := e.NewPriceRefresher()
	b := e.NewPriceRefresher()
	assert.NotSame(t, a, b)
	a.Stop()
	b.Stop()
}

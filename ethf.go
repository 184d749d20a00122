// Package ethf is a payment engine that lets a payer settle a merchant's
// fixed USD-denominated payment intent in any ERC-20 token on any supported
// EVM chain, swapping or bridging through an intent-based settlement network.
package ethf

import (
	"context"
	"net/http"
	"sync"

	"github.com/Pavankumar07s/ETHF/backend"
	"github.com/Pavankumar07s/ETHF/erc20"
	"github.com/Pavankumar07s/ETHF/fusion"
	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/metrics"
	"github.com/Pavankumar07s/ETHF/payment"
	"github.com/Pavankumar07s/ETHF/price"
	"github.com/Pavankumar07s/ETHF/reconcile"
	"github.com/Pavankumar07s/ETHF/types"
	"github.com/Pavankumar07s/ETHF/wallet"
)

// ETHF is the main struct that wires the wallet, the merchant backend and
// the settlement network into the payment flows.
type ETHF struct {
	config   *types.Config
	provider wallet.Provider

	httpClient *http.Client
	log        logger.Logger
	met        metrics.Recorder
	callers    erc20.CallerFactory

	backend     *backend.Client
	settlement  *fusion.Client
	coordinator *wallet.SwitchCoordinator
	allowance   *erc20.AllowanceManager
	resolver    *price.Resolver
	sameChain   *payment.SameChainSubmitter
	crossChain  *payment.CrossChainSubmitter
	reconciler  *reconcile.Reconciler
	refresher   *reconcile.AutoRefresher

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New creates an ETHF instance from the configuration and a wallet provider.
// The configuration is validated and missing knobs get their defaults before
// anything is wired.
func New(config *types.Config, provider wallet.Provider, opts ...Option) (*ETHF, error) {
	if config == nil {
		config = &types.Config{Networks: types.DefaultNetworks()}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &ETHF{
		config:   config,
		provider: provider,
		log:      logger.NoopLogger{},
		met:      metrics.NoopRecorder{},
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.httpClient == nil {
		e.httpClient = &http.Client{Timeout: config.DefaultTimeout}
	}
	if e.callers == nil {
		e.callers = erc20.NewRPCCallerFactory(config.Networks)
	}

	e.backend = backend.NewClient(config.BackendURL, e.httpClient, e.log)
	e.settlement = fusion.NewClient(config.BackendURL, e.httpClient, e.log)
	e.coordinator = wallet.NewSwitchCoordinator(provider, config.Networks, e.log)
	e.allowance = erc20.NewAllowanceManager(provider, config.ApprovalSettleDelay, e.log)
	e.resolver = price.NewResolver(e.backend, e.log)
	e.reconciler = reconcile.NewReconciler(e.settlement, e.log)
	e.refresher = reconcile.NewAutoRefresher(reconcile.AutoRefresherOpts{
		Reconciler: e.reconciler,
		Interval:   config.StatusRefreshInterval,
		Logger:     e.log,
		Metrics:    e.met,
	})

	e.sameChain = payment.NewSameChainSubmitter(payment.SameChainOpts{
		Provider:     provider,
		Coordinator:  e.coordinator,
		Callers:      e.callers,
		Allowance:    e.allowance,
		Settlement:   e.settlement,
		Mappings:     e.backend,
		Receiver:     config.Receiver,
		PollInterval: config.PollInterval,
		MaxAttempts:  config.MaxPollAttempts,
		Logger:       e.log,
		Metrics:      e.met,
	})
	e.crossChain = payment.NewCrossChainSubmitter(payment.CrossChainOpts{
		Provider:     provider,
		Coordinator:  e.coordinator,
		Callers:      e.callers,
		Allowance:    e.allowance,
		Settlement:   e.settlement,
		Mappings:     e.backend,
		Networks:     config.Networks,
		Receiver:     config.Receiver,
		PollInterval: config.PollInterval,
		MaxAttempts:  config.MaxPollAttempts,
		Logger:       e.log,
		Metrics:      e.met,
	})

	return e, nil
}

// PaySameChain swaps the payer's token into the intent's output token on one
// chain and blocks until the fill resolves or the monitoring window closes.
// Only one attempt per merchant order may run at a time.
func (e *ETHF) PaySameChain(ctx context.Context, req payment.SameChainRequest) (*payment.Result, error) {
	if err := e.begin(req.MerchantOrderUUID); err != nil {
		return nil, err
	}
	defer e.end(req.MerchantOrderUUID)
	return e.sameChain.Pay(ctx, req)
}

// PayCrossChain bridges the payer's token on the source chain into the
// intent's output token on the destination chain. Monitoring behaves exactly
// as in PaySameChain unless the request opts out.
func (e *ETHF) PayCrossChain(ctx context.Context, req payment.CrossChainRequest) (*payment.Result, error) {
	if err := e.begin(req.MerchantOrderUUID); err != nil {
		return nil, err
	}
	defer e.end(req.MerchantOrderUUID)
	return e.crossChain.Pay(ctx, req)
}

// CheckOrderStatus resolves the intent status implied by an order's current
// settlement state. Unknown orders resolve to processing.
func (e *ETHF) CheckOrderStatus(ctx context.Context, orderHash string) (types.IntentStatus, error) {
	return e.reconciler.Resolve(ctx, orderHash)
}

// RequiredAmount resolves how much of the given token settles the intent's
// USD amount right now, rounded to the token's display precision.
func (e *ETHF) RequiredAmount(ctx context.Context, chainID uint64, token string, usdCents int64) (*price.Quote, error) {
	return e.resolver.RequiredAmount(ctx, chainID, token, usdCents)
}

// NewPriceRefresher returns a refresher that re-resolves the required amount
// on the configured interval. Each call returns an independent refresher so
// concurrent checkout sessions do not share timers.
func (e *ETHF) NewPriceRefresher() *price.Refresher {
	return price.NewRefresher(e.resolver, e.config.PriceRefreshInterval, e.log)
}

// StatusRefresher is the background poller that keeps tracked in-flight
// intents' statuses fresh.
func (e *ETHF) StatusRefresher() *reconcile.AutoRefresher {
	return e.refresher
}

// Backend exposes the merchant backend client for intent CRUD.
func (e *ETHF) Backend() *backend.Client {
	return e.backend
}

// Networks returns the configured network registry.
func (e *ETHF) Networks() map[uint64]types.NetworkConfig {
	return e.config.Networks
}

// Close stops the background status refresher.
func (e *ETHF) Close() {
	e.refresher.Stop()
}

func (e *ETHF) begin(uid string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.inFlight[uid]; ok {
		return types.NewPaymentError(types.ErrPaymentInProgress, "a payment for order %s is already running", uid)
	}
	e.inFlight[uid] = struct{}{}
	return nil
}

func (e *ETHF) end(uid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, uid)
}

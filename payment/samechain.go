package payment

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Pavankumar07s/ETHF/erc20"
	"github.com/Pavankumar07s/ETHF/fusion"
	"github.com/Pavankumar07s/ETHF/logger"
	"github.com/Pavankumar07s/ETHF/metrics"
	"github.com/Pavankumar07s/ETHF/types"
	"github.com/Pavankumar07s/ETHF/wallet"
)

// SameChainRequest asks for a swap of the payer's input token into the
// merchant's output token on a single chain.
type SameChainRequest struct {
	ChainID           uint64
	InToken           string
	OutToken          string
	Amount            decimal.Decimal
	MerchantOrderUUID string
}

// SameChainSubmitter walks a same-chain payment attempt through
// network→balance→quote→allowance→placement and then blocks monitoring the
// fill until a terminal state or the attempt cap.
type SameChainSubmitter struct {
	provider    wallet.Provider
	coordinator *wallet.SwitchCoordinator
	callers     erc20.CallerFactory
	allowance   *erc20.AllowanceManager
	settlement  SettlementClient
	mappings    MappingRecorder
	receiver    string

	pollInterval time.Duration
	maxAttempts  int

	log logger.Logger
	met metrics.Recorder
}

type SameChainOpts struct {
	Provider     wallet.Provider
	Coordinator  *wallet.SwitchCoordinator
	Callers      erc20.CallerFactory
	Allowance    *erc20.AllowanceManager
	Settlement   SettlementClient
	Mappings     MappingRecorder
	Receiver     string
	PollInterval time.Duration
	MaxAttempts  int
	Logger       logger.Logger
	Metrics      metrics.Recorder
}

func NewSameChainSubmitter(opts SameChainOpts) *SameChainSubmitter {
	if opts.Logger == nil {
		opts.Logger = logger.NoopLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = types.DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = types.DefaultMaxPollAttempts
	}
	return &SameChainSubmitter{
		provider:     opts.Provider,
		coordinator:  opts.Coordinator,
		callers:      opts.Callers,
		allowance:    opts.Allowance,
		settlement:   opts.Settlement,
		mappings:     opts.Mappings,
		receiver:     opts.Receiver,
		pollInterval: opts.PollInterval,
		maxAttempts:  opts.MaxAttempts,
		log:          opts.Logger,
		met:          opts.Metrics,
	}
}

func (req *SameChainRequest) validate() error {
	if strings.EqualFold(req.InToken, req.OutToken) {
		return types.NewPaymentError(types.ErrSameTokenSwap, "input and output token are the same; nothing to swap")
	}
	if req.Amount.LessThan(minTokenAmount) {
		return types.NewPaymentError(types.ErrAmountTooSmall, "amount too small: minimum is %s", minTokenAmount)
	}
	return nil
}

// Pay executes one same-chain payment attempt. The spend authorization
// target is the settlement address supplied by the quote, never a constant.
// The order mapping is posted only after successful placement, since
// same-chain orders only receive a hash at placement time. A mapping failure
// does not fail the payment: the settlement order exists independent of
// backend bookkeeping.
func (s *SameChainSubmitter) Pay(ctx context.Context, req SameChainRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	fields := map[string]any{"chain": req.ChainID, "uuid": req.MerchantOrderUUID}
	labels := map[string]string{"chain": strconv.FormatUint(req.ChainID, 10)}

	if err := s.coordinator.EnsureChain(ctx, req.ChainID); err != nil {
		return nil, err
	}
	s.log.Debug("same-chain state", withState(fields, StateNetworkReady))

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil || len(accounts) == 0 {
		return nil, types.NewPaymentError(types.ErrNoWalletProvider, "wallet returned no accounts: %v", err)
	}
	payer := accounts[0]

	caller, err := s.callers.CallerFor(ctx, req.ChainID)
	if err != nil {
		return nil, err
	}
	token := erc20.NewToken(req.InToken, caller)
	decimals, err := token.Decimals(ctx)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrNetwork, "read token decimals: %v", err)
	}
	amountUnits := amountToUnits(req.Amount, decimals)

	balance, err := token.BalanceOf(ctx, common.HexToAddress(payer))
	if err != nil {
		return nil, types.NewPaymentError(types.ErrNetwork, "read balance: %v", err)
	}
	if balance.Cmp(amountUnits) < 0 {
		return nil, types.NewPaymentError(
			types.ErrInsufficientBalance,
			"insufficient balance: required %s, available %s", amountUnits, balance,
		)
	}
	s.log.Debug("same-chain state", withState(fields, StateBalanceChecked))

	quoteStart := time.Now()
	quote, err := s.settlement.GetQuote(ctx, fusion.QuoteParams{
		ChainID:        req.ChainID,
		FromToken:      req.InToken,
		ToToken:        req.OutToken,
		Amount:         amountUnits,
		WalletAddress:  payer,
		Receiver:       s.receiver,
		EnableEstimate: true,
	})
	if err != nil {
		return nil, err
	}
	s.met.ObserveLatency("quote", time.Since(quoteStart), labels)
	s.log.Debug("same-chain state", withState(fields, StateQuoted))

	// The quote names the spender; authorize it.
	if err := s.allowance.EnsureAllowance(
		ctx, token,
		common.HexToAddress(payer),
		common.HexToAddress(quote.SettlementAddress),
		amountUnits,
	); err != nil {
		return nil, err
	}
	s.log.Debug("same-chain state", withState(fields, StateAllowanceReady))

	placed, err := s.settlement.PlaceOrder(ctx, fusion.PlaceOrderParams{
		ChainID:       req.ChainID,
		FromToken:     req.InToken,
		ToToken:       req.OutToken,
		Amount:        amountUnits.String(),
		WalletAddress: payer,
		Receiver:      s.receiver,
		Preset:        fusion.PresetFast,
		QuoteID:       quote.QuoteID,
	})
	if err != nil {
		return nil, err
	}
	s.met.IncCounter("orders_submitted", labels)
	s.log.Info("order placed", map[string]any{"orderHash": placed.OrderHash, "uuid": req.MerchantOrderUUID})

	// Bookkeeping only; the placed order exists regardless.
	if err := s.mappings.RecordMapping(ctx, types.OrderMapping{
		MerchantOrderUUID: req.MerchantOrderUUID,
		OrderHash:         placed.OrderHash,
		QuoteID:           quote.QuoteID,
		Secrets:           []string{},
	}); err != nil {
		s.met.IncCounter("mapping_failures", labels)
		s.log.Error("order mapping record failed", map[string]any{
			"orderHash": placed.OrderHash, "uuid": req.MerchantOrderUUID, "err": err.Error(),
		})
	}

	s.log.Debug("same-chain state", withState(fields, StateMonitoring))
	st, err := monitorOrder(ctx, placed.OrderHash, s.pollInterval, s.maxAttempts,
		func(ctx context.Context) (*fusion.OrderStatus, error) {
			return s.settlement.SameChainOrderStatus(ctx, req.ChainID, placed.OrderHash)
		})
	if err != nil {
		s.met.IncCounter(counterFor(err), labels)
		return &Result{
			MerchantOrderUUID: req.MerchantOrderUUID,
			OrderHash:         placed.OrderHash,
			QuoteID:           quote.QuoteID,
			State:             stateFor(err),
		}, err
	}

	s.met.IncCounter("orders_filled", labels)
	return &Result{
		MerchantOrderUUID: req.MerchantOrderUUID,
		OrderHash:         placed.OrderHash,
		QuoteID:           quote.QuoteID,
		State:             StateFilled,
		Status:            st.Status,
		Fills:             st.Fills,
	}, nil
}

func withState(fields map[string]any, state State) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["state"] = string(state)
	return out
}

func stateFor(err error) State {
	switch types.ErrorCode(err) {
	case types.ErrOrderExpired:
		return StateExpired
	case types.ErrOrderCancelled:
		return StateCancelled
	case types.ErrMonitoringTimedOut:
		return StateTimedOut
	default:
		return StateMonitoring
	}
}

func counterFor(err error) string {
	switch types.ErrorCode(err) {
	case types.ErrOrderExpired:
		return "orders_expired"
	case types.ErrOrderCancelled:
		return "orders_cancelled"
	case types.ErrMonitoringTimedOut:
		return "orders_timed_out"
	default:
		return "orders_failed"
	}
}

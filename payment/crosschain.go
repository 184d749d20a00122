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

// CrossChainRequest asks for a bridge of the payer's input token on one
// chain into the merchant's output token on another.
type CrossChainRequest struct {
	SrcChainID        uint64
	DstChainID        uint64
	InToken           string
	OutToken          string
	Amount            decimal.Decimal
	MerchantOrderUUID string

	// SkipMonitoring opts out of the blocking fill monitor, treating
	// submission as success and leaving reconciliation to the background
	// status refresher. Both submitter variants expose the same monitoring
	// contract; callers choose, the variants do not silently differ.
	SkipMonitoring bool
}

// CrossChainSubmitter walks a cross-chain payment attempt:
// network→allowance→quote→secrets→order→mapping→submission. The mapping is
// recorded before submission because resolvers can claim fills
// asynchronously and the backend needs the secrets to ever settle; losing
// them after a fill is unrecoverable, while an orphaned mapping is merely
// stale.
type CrossChainSubmitter struct {
	provider    wallet.Provider
	coordinator *wallet.SwitchCoordinator
	callers     erc20.CallerFactory
	allowance   *erc20.AllowanceManager
	settlement  SettlementClient
	mappings    MappingRecorder
	networks    map[uint64]types.NetworkConfig
	receiver    string

	pollInterval time.Duration
	maxAttempts  int

	log logger.Logger
	met metrics.Recorder
}

type CrossChainOpts struct {
	Provider     wallet.Provider
	Coordinator  *wallet.SwitchCoordinator
	Callers      erc20.CallerFactory
	Allowance    *erc20.AllowanceManager
	Settlement   SettlementClient
	Mappings     MappingRecorder
	Networks     map[uint64]types.NetworkConfig
	Receiver     string
	PollInterval time.Duration
	MaxAttempts  int
	Logger       logger.Logger
	Metrics      metrics.Recorder
}

func NewCrossChainSubmitter(opts CrossChainOpts) *CrossChainSubmitter {
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
	return &CrossChainSubmitter{
		provider:     opts.Provider,
		coordinator:  opts.Coordinator,
		callers:      opts.Callers,
		allowance:    opts.Allowance,
		settlement:   opts.Settlement,
		mappings:     opts.Mappings,
		networks:     opts.Networks,
		receiver:     opts.Receiver,
		pollInterval: opts.PollInterval,
		maxAttempts:  opts.MaxAttempts,
		log:          opts.Logger,
		met:          opts.Metrics,
	}
}

func (req *CrossChainRequest) validate() error {
	if req.SrcChainID == req.DstChainID && strings.EqualFold(req.InToken, req.OutToken) {
		return types.NewPaymentError(types.ErrSameTokenSwap, "source and destination asset are identical; nothing to bridge")
	}
	if req.Amount.LessThan(minTokenAmount) {
		return types.NewPaymentError(types.ErrAmountTooSmall, "amount too small: minimum is %s", minTokenAmount)
	}
	return nil
}

// Pay executes one cross-chain payment attempt.
func (s *CrossChainSubmitter) Pay(ctx context.Context, req CrossChainRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	network, ok := s.networks[req.SrcChainID]
	if !ok {
		return nil, types.NewPaymentError(types.ErrUnsupportedChain, "no network configuration for chain %d", req.SrcChainID)
	}
	if network.SettlementContract == "" {
		return nil, types.NewPaymentError(types.ErrUnsupportedChain, "no settlement contract on chain %d", req.SrcChainID)
	}

	fields := map[string]any{
		"srcChain": req.SrcChainID, "dstChain": req.DstChainID, "uuid": req.MerchantOrderUUID,
	}
	labels := map[string]string{"chain": strconv.FormatUint(req.SrcChainID, 10)}

	if err := s.coordinator.EnsureChain(ctx, req.SrcChainID); err != nil {
		return nil, err
	}
	s.log.Debug("cross-chain state", withState(fields, StateNetworkReady))

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil || len(accounts) == 0 {
		return nil, types.NewPaymentError(types.ErrNoWalletProvider, "wallet returned no accounts: %v", err)
	}
	payer := accounts[0]

	caller, err := s.callers.CallerFor(ctx, req.SrcChainID)
	if err != nil {
		return nil, err
	}
	token := erc20.NewToken(req.InToken, caller)
	decimals, err := token.Decimals(ctx)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrNetwork, "read token decimals: %v", err)
	}
	amountUnits := amountToUnits(req.Amount, decimals)

	// Cross-chain orders always spend through the chain's limit-order
	// settlement contract.
	if err := s.allowance.EnsureAllowance(
		ctx, token,
		common.HexToAddress(payer),
		common.HexToAddress(network.SettlementContract),
		amountUnits,
	); err != nil {
		return nil, err
	}
	s.log.Debug("cross-chain state", withState(fields, StateAllowanceReady))

	quoteStart := time.Now()
	quote, err := s.settlement.GetCrossQuote(ctx, fusion.CrossQuoteParams{
		SrcChainID:     req.SrcChainID,
		DstChainID:     req.DstChainID,
		SrcToken:       req.InToken,
		DstToken:       req.OutToken,
		Amount:         amountUnits,
		WalletAddress:  payer,
		EnableEstimate: true,
	})
	if err != nil {
		return nil, err
	}
	s.met.ObserveLatency("quote", time.Since(quoteStart), labels)
	s.log.Debug("cross-chain state", withState(fields, StateQuoted))

	secrets, err := fusion.GenerateSecrets(quote.SecretsCount())
	if err != nil {
		return nil, types.NewPaymentError(types.ErrOrderPlacementFailed, "generate secrets: %v", err)
	}
	hashLock, secretHashes, err := fusion.BuildHashLock(secrets)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrOrderPlacementFailed, "build hashlock: %v", err)
	}
	s.log.Debug("cross-chain state", withState(fields, StateSecretsGenerated))

	hashStrings := make([]string, len(secretHashes))
	for i, h := range secretHashes {
		hashStrings[i] = h.Hex()
	}
	order := &fusion.CrossOrder{
		Maker:        payer,
		Receiver:     s.receiver,
		SrcChainID:   req.SrcChainID,
		DstChainID:   req.DstChainID,
		SrcToken:     req.InToken,
		DstToken:     req.OutToken,
		Amount:       amountUnits.String(),
		HashLock:     hashLock.Hex(),
		SecretHashes: hashStrings,
		Preset:       fusion.PresetFast,
		QuoteID:      quote.QuoteID,
	}
	orderHash, err := order.Hash()
	if err != nil {
		return nil, types.NewPaymentError(types.ErrOrderPlacementFailed, "derive order hash: %v", err)
	}
	s.log.Debug("cross-chain state", withState(fields, StateOrderConstructed))

	// Record the mapping before submission: the secrets must be recoverable
	// even if this process dies right after the order hits the network.
	// Best effort; aborting a flow the user already signed off on is worse
	// than a missing mapping row.
	if err := s.mappings.RecordMapping(ctx, types.OrderMapping{
		MerchantOrderUUID: req.MerchantOrderUUID,
		OrderHash:         orderHash,
		QuoteID:           quote.QuoteID,
		Secrets:           secrets,
	}); err != nil {
		s.met.IncCounter("mapping_failures", labels)
		s.log.Error("order mapping record failed before submit", map[string]any{
			"orderHash": orderHash, "uuid": req.MerchantOrderUUID, "err": err.Error(),
		})
	} else {
		s.log.Debug("cross-chain state", withState(fields, StateMappingRecorded))
	}

	if err := s.settlement.SubmitOrder(ctx, req.SrcChainID, order, quote.QuoteID, hashStrings); err != nil {
		return nil, err
	}
	s.met.IncCounter("orders_submitted", labels)
	s.log.Info("cross-chain order submitted", map[string]any{
		"orderHash": orderHash, "uuid": req.MerchantOrderUUID, "secrets": len(secrets),
	})

	result := &Result{
		MerchantOrderUUID: req.MerchantOrderUUID,
		OrderHash:         orderHash,
		QuoteID:           quote.QuoteID,
		State:             StateSubmitted,
	}
	if req.SkipMonitoring {
		return result, nil
	}

	s.log.Debug("cross-chain state", withState(fields, StateMonitoring))
	st, err := monitorOrder(ctx, orderHash, s.pollInterval, s.maxAttempts,
		func(ctx context.Context) (*fusion.OrderStatus, error) {
			return s.settlement.OrderStatus(ctx, orderHash)
		})
	if err != nil {
		s.met.IncCounter(counterFor(err), labels)
		result.State = stateFor(err)
		return result, err
	}

	s.met.IncCounter("orders_filled", labels)
	result.State = StateFilled
	result.Status = st.Status
	result.Fills = st.Fills
	return result, nil
}

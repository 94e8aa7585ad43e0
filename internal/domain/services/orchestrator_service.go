package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/dex-gateway/internal/domain/entities"
	"github.com/bimakw/dex-gateway/internal/infrastructure/dex"
)

// ActionKind classifies a user-initiated orchestrated action.
type ActionKind string

const (
	ActionSwap            ActionKind = "swap"
	ActionAddLiquidity    ActionKind = "addLiquidity"
	ActionRemoveLiquidity ActionKind = "removeLiquidity"
	ActionCreateToken     ActionKind = "createToken"
)

// ActionState is a stage of the per-action state machine.
type ActionState string

const (
	StateIdle                 ActionState = "idle"
	StateValidating           ActionState = "validating"
	StateAwaitingApproval     ActionState = "awaitingApproval"
	StateSubmitting           ActionState = "submitting"
	StateAwaitingConfirmation ActionState = "awaitingConfirmation"
	StateSucceeded            ActionState = "succeeded"
	StateFailed               ActionState = "failed"
)

// active reports whether the state blocks a new action of the same kind.
func (s ActionState) active() bool {
	switch s {
	case StateValidating, StateAwaitingApproval, StateSubmitting, StateAwaitingConfirmation:
		return true
	}
	return false
}

// ActionStatus is the observable snapshot of one (account, kind) action.
type ActionStatus struct {
	Account   common.Address `json:"account"`
	Kind      ActionKind     `json:"kind"`
	State     ActionState    `json:"state"`
	TxHash    *common.Hash   `json:"txHash,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// OrchestratorConfig carries the policy knobs that trade user protection
// against false rejection. They are configuration, not hardcoded policy.
type OrchestratorConfig struct {
	ChainID           int64
	SlippageBps       uint64        // min-amount bound, default 100 (1%)
	RatioToleranceBps uint64        // add-liquidity ratio tolerance, default 10 (0.1%)
	MaxInputBps       uint64        // swap input guardrail, default 9000 (90%)
	Deadline          time.Duration // on-chain deadline window, default 15m
}

func (c *OrchestratorConfig) applyDefaults() {
	if c.SlippageBps == 0 {
		c.SlippageBps = 100
	}
	if c.RatioToleranceBps == 0 {
		c.RatioToleranceBps = 10
	}
	if c.MaxInputBps == 0 {
		c.MaxInputBps = 9000
	}
	if c.Deadline <= 0 {
		c.Deadline = 15 * time.Minute
	}
}

// Orchestrator sequences allowance checks, approval transactions, and
// the swap/liquidity submissions. One action per (account, kind) may be
// in flight at a time: interleaving approvals for the same spender is
// unsafe, so a concurrent attempt is rejected, never queued.
type Orchestrator struct {
	cfg      OrchestratorConfig
	registry *RegistryService
	pairs    *PairService
	pairAPI  dex.PairAPI
	erc20    dex.ERC20API
	router   dex.RouterAPI
	factory  dex.TokenFactoryAPI
	waiter   ReceiptWaiter
	tracker  *TrackerService
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	actions map[actionKey]ActionStatus
}

type actionKey struct {
	account common.Address
	kind    ActionKind
}

// ReceiptWaiter blocks until a submitted transaction is mined.
type ReceiptWaiter interface {
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(
	cfg OrchestratorConfig,
	registry *RegistryService,
	pairs *PairService,
	pairAPI dex.PairAPI,
	erc20 dex.ERC20API,
	router dex.RouterAPI,
	factory dex.TokenFactoryAPI,
	waiter ReceiptWaiter,
	tracker *TrackerService,
	logger *zap.Logger,
) *Orchestrator {
	cfg.applyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		pairs:    pairs,
		pairAPI:  pairAPI,
		erc20:    erc20,
		router:   router,
		factory:  factory,
		waiter:   waiter,
		tracker:  tracker,
		logger:   logger,
		now:      time.Now,
		actions:  make(map[actionKey]ActionStatus),
	}
}

// Status returns the last observed status for (account, kind).
func (o *Orchestrator) Status(account common.Address, kind ActionKind) (ActionStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.actions[actionKey{account, kind}]
	return st, ok
}

// SwapRequest describes a user-initiated token swap.
type SwapRequest struct {
	Account  common.Address
	TokenIn  common.Address
	TokenOut common.Address
	AmountIn *big.Int
}

// SwapResult is the outcome of a confirmed swap.
type SwapResult struct {
	TxHash       common.Hash    `json:"txHash"`
	Quote        entities.Quote `json:"quote"`
	AmountOutMin *big.Int       `json:"amountOutMin"`
}

// Swap runs the full swap sequence: validate, quote, approve, submit,
// confirm. It blocks until the swap reaches a terminal state. Failures
// leave the state machine in Failed with the reason; there is no
// automatic retry.
func (o *Orchestrator) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	key, err := o.begin(req.Account, ActionSwap)
	if err != nil {
		return nil, err
	}

	result, err := o.runSwap(ctx, key, req)
	if err != nil {
		o.fail(key, err)
		return nil, err
	}
	o.succeed(key, result.TxHash)
	return result, nil
}

func (o *Orchestrator) runSwap(ctx context.Context, key actionKey, req SwapRequest) (*SwapResult, error) {
	if err := validateTokenPair(req.TokenIn, req.TokenOut); err != nil {
		return nil, err
	}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amountIn must be positive", entities.ErrInvalidInput)
	}

	state, err := o.pairs.Resolve(ctx, req.TokenIn, req.TokenOut)
	if err != nil {
		return nil, err
	}
	if !state.Exists() || !state.HasLiquidity() {
		return nil, fmt.Errorf("%w: no liquidity pool for pair", entities.ErrInvalidInput)
	}

	if err := entities.CheckMaxInput(req.AmountIn, state.ReserveA, o.cfg.MaxInputBps); err != nil {
		return nil, err
	}

	quote, err := entities.ComputeQuote(req.AmountIn, state.ReserveA, state.ReserveB)
	if err != nil {
		return nil, err
	}

	if err := o.ensureApprovals(ctx, key, req.Account, []tokenSpend{
		{token: req.TokenIn, amount: req.AmountIn},
	}); err != nil {
		return nil, err
	}

	o.setState(key, StateSubmitting, nil)
	amountOutMin := entities.ApplySlippage(quote.AmountOut, o.cfg.SlippageBps)
	deadline := o.deadline()

	hash, err := o.router.SwapExactTokensForTokens(ctx, req.AmountIn, amountOutMin,
		[]common.Address{req.TokenIn, req.TokenOut}, req.Account, deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSubmissionFailed, err)
	}

	if err := o.confirm(ctx, key, hash, entities.TxKindSwap, req.Account); err != nil {
		return nil, err
	}

	o.refreshPair(ctx, req.TokenIn, req.TokenOut)
	return &SwapResult{TxHash: hash, Quote: quote, AmountOutMin: amountOutMin}, nil
}

// AddLiquidityRequest describes a user-initiated liquidity deposit.
type AddLiquidityRequest struct {
	Account common.Address
	TokenA  common.Address
	TokenB  common.Address
	AmountA *big.Int
	AmountB *big.Int
}

// LiquidityResult is the outcome of a confirmed liquidity change.
type LiquidityResult struct {
	TxHash common.Hash `json:"txHash"`
}

// AddLiquidity runs the add-liquidity sequence. When the pool already
// has reserves, the proposed amountA/amountB ratio must match the pool
// price within the configured tolerance; a mismatch fails with the
// price-implied suggested amount instead of silently correcting.
func (o *Orchestrator) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (*LiquidityResult, error) {
	key, err := o.begin(req.Account, ActionAddLiquidity)
	if err != nil {
		return nil, err
	}

	result, err := o.runAddLiquidity(ctx, key, req)
	if err != nil {
		o.fail(key, err)
		return nil, err
	}
	o.succeed(key, result.TxHash)
	return result, nil
}

func (o *Orchestrator) runAddLiquidity(ctx context.Context, key actionKey, req AddLiquidityRequest) (*LiquidityResult, error) {
	if err := validateTokenPair(req.TokenA, req.TokenB); err != nil {
		return nil, err
	}
	if req.AmountA == nil || req.AmountA.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amountA must be positive", entities.ErrInvalidInput)
	}
	if req.AmountB == nil || req.AmountB.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amountB must be positive", entities.ErrInvalidInput)
	}

	state, err := o.pairs.Resolve(ctx, req.TokenA, req.TokenB)
	if err != nil {
		return nil, err
	}

	// An empty or absent pool accepts any ratio: the deposit defines the
	// initial price.
	if state.HasLiquidity() {
		if err := checkRatio(req.AmountA, req.AmountB, state.ReserveA, state.ReserveB, o.cfg.RatioToleranceBps); err != nil {
			return nil, err
		}
	}

	if err := o.ensureApprovals(ctx, key, req.Account, []tokenSpend{
		{token: req.TokenA, amount: req.AmountA},
		{token: req.TokenB, amount: req.AmountB},
	}); err != nil {
		return nil, err
	}

	o.setState(key, StateSubmitting, nil)
	hash, err := o.router.AddLiquidity(ctx, req.TokenA, req.TokenB,
		req.AmountA, req.AmountB,
		entities.ApplySlippage(req.AmountA, o.cfg.SlippageBps),
		entities.ApplySlippage(req.AmountB, o.cfg.SlippageBps),
		req.Account, o.deadline())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSubmissionFailed, err)
	}

	if err := o.confirm(ctx, key, hash, entities.TxKindAddLiquidity, req.Account); err != nil {
		return nil, err
	}

	o.refreshPair(ctx, req.TokenA, req.TokenB)
	return &LiquidityResult{TxHash: hash}, nil
}

// RemoveLiquidityRequest describes a user-initiated liquidity withdrawal.
type RemoveLiquidityRequest struct {
	Account   common.Address
	TokenA    common.Address
	TokenB    common.Address
	Liquidity *big.Int
}

// RemoveLiquidity burns LP tokens and withdraws both sides of the pool.
// The LP token itself goes through the same approval protocol as any
// other token: the pair contract is the token, the router the spender.
func (o *Orchestrator) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (*LiquidityResult, error) {
	key, err := o.begin(req.Account, ActionRemoveLiquidity)
	if err != nil {
		return nil, err
	}

	result, err := o.runRemoveLiquidity(ctx, key, req)
	if err != nil {
		o.fail(key, err)
		return nil, err
	}
	o.succeed(key, result.TxHash)
	return result, nil
}

func (o *Orchestrator) runRemoveLiquidity(ctx context.Context, key actionKey, req RemoveLiquidityRequest) (*LiquidityResult, error) {
	if err := validateTokenPair(req.TokenA, req.TokenB); err != nil {
		return nil, err
	}
	if req.Liquidity == nil || req.Liquidity.Sign() <= 0 {
		return nil, fmt.Errorf("%w: liquidity must be positive", entities.ErrInvalidInput)
	}

	state, err := o.pairs.Resolve(ctx, req.TokenA, req.TokenB)
	if err != nil {
		return nil, err
	}
	if !state.Exists() {
		return nil, fmt.Errorf("%w: no liquidity pool for pair", entities.ErrInvalidInput)
	}
	pairAddr := *state.PairAddress

	amountAMin, amountBMin := o.withdrawalBounds(ctx, pairAddr, req.Liquidity, state)

	if err := o.ensureApprovals(ctx, key, req.Account, []tokenSpend{
		{token: pairAddr, amount: req.Liquidity},
	}); err != nil {
		return nil, err
	}

	o.setState(key, StateSubmitting, nil)
	hash, err := o.router.RemoveLiquidity(ctx, req.TokenA, req.TokenB,
		req.Liquidity, amountAMin, amountBMin, req.Account, o.deadline())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSubmissionFailed, err)
	}

	if err := o.confirm(ctx, key, hash, entities.TxKindRemoveLiquidity, req.Account); err != nil {
		return nil, err
	}

	o.refreshPair(ctx, req.TokenA, req.TokenB)
	return &LiquidityResult{TxHash: hash}, nil
}

// withdrawalBounds derives min-amount bounds for a withdrawal from the
// account's pro-rata share of the reserves. An unknown LP supply leaves
// the bounds at zero rather than guessing.
func (o *Orchestrator) withdrawalBounds(ctx context.Context, pair common.Address, liquidity *big.Int, state entities.PairState) (*big.Int, *big.Int) {
	zero := big.NewInt(0)
	if !state.HasLiquidity() {
		return zero, zero
	}

	supply, err := o.pairAPI.TotalSupply(ctx, pair)
	if err != nil || supply == nil || supply.Sign() == 0 {
		return zero, zero
	}

	expectedA := new(big.Int).Mul(liquidity, state.ReserveA)
	expectedA.Div(expectedA, supply)
	expectedB := new(big.Int).Mul(liquidity, state.ReserveB)
	expectedB.Div(expectedB, supply)

	return entities.ApplySlippage(expectedA, o.cfg.SlippageBps),
		entities.ApplySlippage(expectedB, o.cfg.SlippageBps)
}

// CreateTokenRequest describes minting a new ERC20 through the factory.
type CreateTokenRequest struct {
	Account       common.Address
	Name          string
	Symbol        string
	InitialSupply *big.Int
}

// CreateToken mints a new token through the factory and, once confirmed,
// refreshes the registry so the token becomes discoverable.
func (o *Orchestrator) CreateToken(ctx context.Context, req CreateTokenRequest) (*LiquidityResult, error) {
	key, err := o.begin(req.Account, ActionCreateToken)
	if err != nil {
		return nil, err
	}

	result, err := o.runCreateToken(ctx, key, req)
	if err != nil {
		o.fail(key, err)
		return nil, err
	}
	o.succeed(key, result.TxHash)
	return result, nil
}

func (o *Orchestrator) runCreateToken(ctx context.Context, key actionKey, req CreateTokenRequest) (*LiquidityResult, error) {
	if req.Name == "" || req.Symbol == "" {
		return nil, fmt.Errorf("%w: token name and symbol are required", entities.ErrInvalidInput)
	}
	if req.InitialSupply == nil || req.InitialSupply.Sign() <= 0 {
		return nil, fmt.Errorf("%w: initial supply must be positive", entities.ErrInvalidInput)
	}

	o.setState(key, StateSubmitting, nil)
	hash, err := o.factory.CreateToken(ctx, req.Name, req.Symbol, req.InitialSupply)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSubmissionFailed, err)
	}

	if err := o.confirm(ctx, key, hash, entities.TxKindCreateToken, req.Account); err != nil {
		return nil, err
	}

	if _, err := o.registry.Discover(ctx); err != nil {
		o.logger.Warn("registry refresh after token creation", zap.Error(err))
	}
	return &LiquidityResult{TxHash: hash}, nil
}

// --- shared sequence steps ---

type tokenSpend struct {
	token  common.Address
	amount *big.Int
}

// ensureApprovals brings on-chain allowances up to the required spends.
// Tokens already sufficiently approved are skipped: no redundant approval
// transaction is ever submitted. Approvals for distinct tokens run
// concurrently, but each must individually confirm before the dependent
// transaction is submitted.
func (o *Orchestrator) ensureApprovals(ctx context.Context, key actionKey, account common.Address, spends []tokenSpend) error {
	o.setState(key, StateAwaitingApproval, nil)
	spender := o.router.Address()

	g, gctx := errgroup.WithContext(ctx)
	for _, spend := range spends {
		g.Go(func() error {
			allowance, err := o.erc20.Allowance(gctx, spend.token, account, spender)
			if err != nil {
				return fmt.Errorf("%w: read allowance: %v", entities.ErrApprovalFailed, err)
			}
			if allowance.Cmp(spend.amount) >= 0 {
				return nil
			}

			hash, err := o.erc20.Approve(gctx, spend.token, spender, spend.amount)
			if err != nil {
				return fmt.Errorf("%w: %v", entities.ErrApprovalFailed, err)
			}
			o.tracker.Add(gctx, entities.TxRecord{
				Hash:    hash,
				Status:  entities.TxPending,
				Kind:    entities.TxKindApprove,
				ChainID: o.cfg.ChainID,
				Account: account,
			})

			receipt, err := o.waiter.WaitForReceipt(gctx, hash)
			if err != nil {
				return fmt.Errorf("%w: %v", entities.ErrApprovalFailed, err)
			}
			if receipt.Status != types.ReceiptStatusSuccessful {
				o.tracker.UpdateStatus(gctx, hash, entities.TxReverted)
				return fmt.Errorf("%w: approval reverted for %s", entities.ErrApprovalFailed, spend.token.Hex())
			}
			o.tracker.UpdateStatus(gctx, hash, entities.TxSuccess)
			return nil
		})
	}
	return g.Wait()
}

// confirm records the submitted hash and waits for its terminal status.
func (o *Orchestrator) confirm(ctx context.Context, key actionKey, hash common.Hash, kind string, account common.Address) error {
	o.tracker.Add(ctx, entities.TxRecord{
		Hash:    hash,
		Status:  entities.TxPending,
		Kind:    kind,
		ChainID: o.cfg.ChainID,
		Account: account,
	})
	o.setState(key, StateAwaitingConfirmation, &hash)

	receipt, err := o.waiter.WaitForReceipt(ctx, hash)
	if err != nil {
		// The transaction may still confirm; the tracker keeps it pending
		// and the startup reconciliation will settle it.
		return fmt.Errorf("wait for receipt %s: %w", hash.Hex(), err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		o.tracker.UpdateStatus(ctx, hash, entities.TxReverted)
		return fmt.Errorf("%w: %s", entities.ErrTransactionReverted, hash.Hex())
	}

	o.tracker.UpdateStatus(ctx, hash, entities.TxSuccess)
	return nil
}

func (o *Orchestrator) refreshPair(ctx context.Context, tokenA, tokenB common.Address) {
	if _, err := o.pairs.Resolve(ctx, tokenA, tokenB); err != nil {
		o.logger.Warn("pair refresh after confirmation",
			zap.String("tokenA", tokenA.Hex()),
			zap.String("tokenB", tokenB.Hex()),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) deadline() *big.Int {
	return big.NewInt(o.now().Add(o.cfg.Deadline).Unix())
}

// --- state machine bookkeeping ---

func (o *Orchestrator) begin(account common.Address, kind ActionKind) (actionKey, error) {
	key := actionKey{account, kind}

	o.mu.Lock()
	defer o.mu.Unlock()

	if st, ok := o.actions[key]; ok && st.State.active() {
		return actionKey{}, entities.ErrActionInProgress
	}
	o.actions[key] = ActionStatus{
		Account:   account,
		Kind:      kind,
		State:     StateValidating,
		UpdatedAt: o.now(),
	}
	return key, nil
}

func (o *Orchestrator) setState(key actionKey, state ActionState, hash *common.Hash) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.actions[key]
	st.State = state
	if hash != nil {
		st.TxHash = hash
	}
	st.UpdatedAt = o.now()
	o.actions[key] = st
}

func (o *Orchestrator) succeed(key actionKey, hash common.Hash) {
	o.setState(key, StateSucceeded, &hash)
}

func (o *Orchestrator) fail(key actionKey, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.actions[key]
	st.State = StateFailed
	st.Reason = err.Error()
	st.UpdatedAt = o.now()
	o.actions[key] = st

	o.logger.Warn("action failed",
		zap.String("account", key.account.Hex()),
		zap.String("kind", string(key.kind)),
		zap.Error(err),
	)
}

// --- validation helpers ---

func validateTokenPair(tokenA, tokenB common.Address) error {
	if tokenA == (common.Address{}) || tokenB == (common.Address{}) {
		return fmt.Errorf("%w: token selection is required", entities.ErrInvalidInput)
	}
	if tokenA == tokenB {
		return fmt.Errorf("%w: tokens must be distinct", entities.ErrInvalidInput)
	}
	return nil
}

// checkRatio verifies the proposed deposit ratio against the pool price.
// The suggested amountB is the price-implied value for the proposed
// amountA; deviation is measured against it in basis points.
func checkRatio(amountA, amountB, reserveA, reserveB *big.Int, toleranceBps uint64) error {
	suggested := new(big.Int).Mul(amountA, reserveB)
	suggested.Div(suggested, reserveA)
	if suggested.Sign() == 0 {
		return &entities.RatioMismatchError{
			AmountA:          amountA,
			AmountB:          amountB,
			SuggestedAmountB: suggested,
			DeviationBps:     10000,
			ToleranceBps:     toleranceBps,
		}
	}

	diff := new(big.Int).Sub(amountB, suggested)
	diff.Abs(diff)
	deviation := new(big.Int).Mul(diff, big.NewInt(10000))
	deviation.Div(deviation, suggested)

	// Compare in big.Int: narrowing first would wrap for extreme
	// mismatches and let them pass.
	if deviation.Cmp(new(big.Int).SetUint64(toleranceBps)) > 0 {
		return &entities.RatioMismatchError{
			AmountA:          amountA,
			AmountB:          amountB,
			SuggestedAmountB: suggested,
			DeviationBps:     clampBps(deviation),
			ToleranceBps:     toleranceBps,
		}
	}
	return nil
}

// clampBps caps a reported deviation at 10000 so the user-facing value
// is never a narrowed wrap of a huge mismatch.
func clampBps(deviation *big.Int) uint64 {
	if deviation.Cmp(big.NewInt(10000)) > 0 {
		return 10000
	}
	return deviation.Uint64()
}

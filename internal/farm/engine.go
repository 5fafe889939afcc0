/*

This file contains the farm engine: the single entry point for
stake/unstake/claim and for pool administration. Each operation
settles the relevant pool, reads and writes the caller's account,
mints pending rewards through the minter, and emits one event.

Every entry point runs under one mutex, so operations execute one at a
time against the shared ledger. Every failure path is checked before
the first ledger or custody mutation: an aborted operation leaves no
partial effects and emits no event.

*/

package farm

import (
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sip-protocol/farmd/internal/custody"
	"github.com/sip-protocol/farmd/internal/events"
	"github.com/sip-protocol/farmd/internal/ledger"
	"github.com/sip-protocol/farmd/internal/logger"
	"github.com/sip-protocol/farmd/internal/minter"
	"github.com/sip-protocol/farmd/internal/rewardmath"
	"github.com/sip-protocol/farmd/internal/types"
)

var (
	ErrInsufficientBalance = errors.New("unstake amount exceeds staked balance")
	ErrNoPendingRewards    = errors.New("no pending rewards to claim")
	ErrZeroStake           = errors.New("stake amount is zero")
	ErrUnauthorizedAdmin   = errors.New("admin capability is not recognized")
	ErrTooManyPools        = errors.New("too many pools requested in one call")
	ErrDenomMismatch       = errors.New("principal coin denom does not match the staked asset")
)

// Clock supplies the external monotonically non-decreasing timestamp
// (unix milliseconds) settlement runs against.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// Engine orchestrates the ledger, the custody vault, and the minter.
type Engine struct {
	mu sync.Mutex

	ledger    *ledger.Ledger
	vault     *custody.Vault
	minter    *minter.Minter
	minterCap *types.MinterCap

	adminID string
	sink    events.Sink
	clock   Clock
	logger  zerolog.Logger
}

// Config holds the collaborators wired into a new engine.
type Config struct {
	Ledger    *ledger.Ledger
	Vault     *custody.Vault
	Minter    *minter.Minter
	MinterCap *types.MinterCap
	AdminCap  *types.AdminCap
	Sink      events.Sink
	Clock     Clock
}

// New creates a farm engine with dependency injection.
func New(cfg Config) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("farm engine configuration validation failed: %w", err)
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.Discard{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		ledger:    cfg.Ledger,
		vault:     cfg.Vault,
		minter:    cfg.Minter,
		minterCap: cfg.MinterCap,
		adminID:   cfg.AdminCap.ID(),
		sink:      sink,
		clock:     clock,
		logger:    logger.GetForComponent("farm_engine"),
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.Ledger == nil {
		return fmt.Errorf("ledger cannot be nil")
	}
	if cfg.Vault == nil {
		return fmt.Errorf("custody vault cannot be nil")
	}
	if cfg.Minter == nil {
		return fmt.Errorf("minter cannot be nil")
	}
	if cfg.MinterCap == nil {
		return fmt.Errorf("minter capability cannot be nil")
	}
	if cfg.AdminCap == nil {
		return fmt.Errorf("admin capability cannot be nil")
	}
	return nil
}

func (e *Engine) validateAdmin(cap *types.AdminCap) error {
	if cap == nil || cap.ID() != e.adminID {
		return ErrUnauthorizedAdmin
	}
	return nil
}

func (e *Engine) emit(event types.Event) {
	event.TraceID = uuid.New().String()
	event.Timestamp = time.UnixMilli(e.clock.Now()).UTC()
	e.sink.Emit(event)
}

// Stake deposits a principal coin into a pool for addr. When referral
// names a distinct address that has never interacted with this pool,
// it is credited 5% of the staked amount as a referral bonus and the
// staker's reward-accruing balance grows by the remaining 95%; the
// pool's TotalStaked and the custody deposit always cover the full
// amount. Rewards pending from an earlier stake are minted to addr.
func (e *Engine) Stake(idx types.PoolIndex, addr string, coin sdk.Coin, referral string) (sdk.Coin, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	zero := sdk.NewCoin(e.minter.Denom(), sdkmath.ZeroInt())

	// Immutable checks first.
	pool, err := e.ledger.Pool(idx)
	if err != nil {
		return zero, err
	}
	if coin.Denom != e.vault.Denom() {
		return zero, fmt.Errorf("%w: got %s, want %s", ErrDenomMismatch, coin.Denom, e.vault.Denom())
	}
	if coin.Amount.IsNil() || !coin.Amount.IsPositive() {
		return zero, ErrZeroStake
	}

	now := e.clock.Now()
	if err := e.ledger.Settle(idx, now); err != nil {
		return zero, err
	}

	params := e.ledger.Params()
	amount := coin.Amount

	// Referral bonus applies only on the referee's first touch of the
	// pool, and never to self-referrals.
	payReferral := false
	if referral != "" && referral != addr {
		if _, exists := e.ledger.Account(idx, referral); !exists {
			payReferral = true
		}
	}

	account := e.ledger.EnsureAccount(idx, addr)
	pending := rewardmath.PendingReward(account.Balance, pool.AccruedRewardPerShare, account.RewardsPaid)

	reward := zero
	if pending.IsPositive() {
		reward, err = e.minter.Mint(pending, e.minterCap)
		if err != nil {
			return zero, err
		}
	}

	// Point of no return: mutations below cannot fail.
	creditable := amount
	if payReferral {
		bonus := rewardmath.BpsShare(amount, params.ReferralShareBps)
		e.ledger.CreditReferral(idx, referral, bonus)
		creditable = amount.Sub(bonus)
	}
	pool.TotalStaked = pool.TotalStaked.Add(amount)
	account.Balance = account.Balance.Add(creditable)
	account.RewardsPaid = rewardmath.AccruedOnBalance(account.Balance, pool.AccruedRewardPerShare)
	if err := e.vault.Deposit(coin); err != nil {
		// Denom and sign were validated above; a failure here is a bug.
		e.logger.Error().Err(err).Msg("custody deposit rejected after validation")
		return zero, err
	}

	e.emit(types.Event{
		Kind:      types.EventStake,
		PoolIndex: idx,
		AssetID:   pool.AssetID,
		Account:   addr,
		Amount:    amount,
		Reward:    reward.Amount,
	})
	return reward, nil
}

// Unstake withdraws amount of principal from a pool and mints the
// pending rewards. Returns the reward coin and the withdrawn
// principal.
func (e *Engine) Unstake(idx types.PoolIndex, addr string, amount sdkmath.Int) (sdk.Coin, sdk.Coin, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	zero := sdk.NewCoin(e.minter.Denom(), sdkmath.ZeroInt())
	zeroPrincipal := sdk.NewCoin(e.vault.Denom(), sdkmath.ZeroInt())

	pool, err := e.ledger.Pool(idx)
	if err != nil {
		return zero, zeroPrincipal, err
	}

	// Balance checks precede settlement so a rejected unstake leaves
	// the ledger byte-identical, clock included.
	account, ok := e.ledger.Account(idx, addr)
	if !ok || amount.GT(account.Balance) {
		return zero, zeroPrincipal, fmt.Errorf("%w: pool %d, account %s", ErrInsufficientBalance, idx, addr)
	}
	if amount.GT(e.vault.Balance()) {
		return zero, zeroPrincipal, fmt.Errorf("%w (custody)", ErrInsufficientBalance)
	}

	if err := e.ledger.Settle(idx, e.clock.Now()); err != nil {
		return zero, zeroPrincipal, err
	}

	pending := rewardmath.PendingReward(account.Balance, pool.AccruedRewardPerShare, account.RewardsPaid)
	reward := zero
	if pending.IsPositive() {
		reward, err = e.minter.Mint(pending, e.minterCap)
		if err != nil {
			return zero, zeroPrincipal, err
		}
	}

	principal, err := e.vault.Withdraw(amount)
	if err != nil {
		return zero, zeroPrincipal, err
	}
	pool.TotalStaked = pool.TotalStaked.Sub(amount)
	account.Balance = account.Balance.Sub(amount)
	account.RewardsPaid = rewardmath.AccruedOnBalance(account.Balance, pool.AccruedRewardPerShare)

	e.emit(types.Event{
		Kind:      types.EventUnstake,
		PoolIndex: idx,
		AssetID:   pool.AssetID,
		Account:   addr,
		Amount:    amount,
		Reward:    reward.Amount,
	})
	return reward, principal, nil
}

// ClaimRewards mints the caller's pending rewards for one pool. No
// principal moves.
func (e *Engine) ClaimRewards(idx types.PoolIndex, addr string) (sdk.Coin, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	zero := sdk.NewCoin(e.minter.Denom(), sdkmath.ZeroInt())

	pool, err := e.ledger.Pool(idx)
	if err != nil {
		return zero, err
	}
	now := e.clock.Now()
	if err := e.ledger.Settle(idx, now); err != nil {
		return zero, err
	}

	account, ok := e.ledger.Account(idx, addr)
	if !ok {
		return zero, ErrNoPendingRewards
	}
	pending := rewardmath.PendingReward(account.Balance, pool.AccruedRewardPerShare, account.RewardsPaid)
	if pending.IsZero() {
		return zero, ErrNoPendingRewards
	}

	reward, err := e.minter.Mint(pending, e.minterCap)
	if err != nil {
		return zero, err
	}
	account.RewardsPaid = rewardmath.AccruedOnBalance(account.Balance, pool.AccruedRewardPerShare)

	e.emit(types.Event{
		Kind:      types.EventClaim,
		PoolIndex: idx,
		AssetID:   pool.AssetID,
		Account:   addr,
		Reward:    reward.Amount,
	})
	return reward, nil
}

// ClaimReferralBonus mints the caller's unclaimed referral bonus for
// one pool and resets the unclaimed counter. The lifetime accumulator
// is untouched.
func (e *Engine) ClaimReferralBonus(idx types.PoolIndex, addr string) (sdk.Coin, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	zero := sdk.NewCoin(e.minter.Denom(), sdkmath.ZeroInt())

	pool, err := e.ledger.Pool(idx)
	if err != nil {
		return zero, err
	}
	account, ok := e.ledger.Account(idx, addr)
	if !ok || account.UnclaimedBonus.IsZero() {
		return zero, ErrNoPendingRewards
	}

	reward, err := e.minter.Mint(account.UnclaimedBonus, e.minterCap)
	if err != nil {
		return zero, err
	}
	account.UnclaimedBonus = sdkmath.ZeroInt()

	e.emit(types.Event{
		Kind:      types.EventClaim,
		PoolIndex: idx,
		AssetID:   pool.AssetID,
		Account:   addr,
		Reward:    reward.Amount,
	})
	return reward, nil
}

// UpdatePool settles one pool to the current time. Pure maintenance,
// callable by anyone, idempotent.
func (e *Engine) UpdatePool(idx types.PoolIndex) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Settle(idx, e.clock.Now())
}

// UpdateAllPools settles every registered pool to the current time.
func (e *Engine) UpdateAllPools() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.SettleAll(e.clock.Now())
}

/*

This file contains the pool and account ledger: an arena of Pool
records indexed by PoolIndex, each owning a map from participant
address to Account. Settlement (advancing reward-per-share to a given
timestamp) lives here; orchestration of stake/unstake/claim lives in
the farm engine.

Accounts hold no back-pointer to their pool; lookups are always by the
(pool index, participant address) key pair.

*/

package ledger

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/sip-protocol/farmd/internal/rewardmath"
	"github.com/sip-protocol/farmd/internal/types"
)

var (
	ErrPoolAlreadyExists = errors.New("pool already registered for asset")
	ErrPoolNotFound      = errors.New("pool not found")
	ErrClockRegression   = errors.New("settlement timestamp precedes last settled timestamp")
)

// Ledger is the in-memory staking ledger. It is not safe for
// concurrent use; the farm engine serializes access.
type Ledger struct {
	params      types.FarmParameters
	pools       []*types.Pool
	byAsset     map[types.AssetID]types.PoolIndex
	accounts    map[types.PoolIndex]map[string]*types.Account
	totalWeight sdkmath.Int
}

// New constructs a ledger whose reward-token pool is pinned at the
// reserved index with zero weight. The reward pool's weight is always
// derived from the other pools' weights by rebalanceRewardPool, so it
// starts (and stays) at zero until another pool is registered.
func New(params types.FarmParameters, rewardAsset types.AssetID, now int64) *Ledger {
	l := &Ledger{
		params:      params,
		byAsset:     make(map[types.AssetID]types.PoolIndex),
		accounts:    make(map[types.PoolIndex]map[string]*types.Account),
		totalWeight: sdkmath.ZeroInt(),
	}
	l.registerPool(rewardAsset, sdkmath.ZeroInt(), now)
	return l
}

// Params returns the global emission parameters.
func (l *Ledger) Params() types.FarmParameters {
	return l.params
}

// SetEmissionRate replaces the global emission rate. The caller must
// settle all pools to the change timestamp first so elapsed time
// accrues at the old rate.
func (l *Ledger) SetEmissionRate(rate sdkmath.Int) {
	l.params.EmissionRatePerMs = rate
}

// TotalWeight is the sum of every pool's allocation weight.
func (l *Ledger) TotalWeight() sdkmath.Int {
	return l.totalWeight
}

// PoolCount reports how many pools are registered, the reward pool
// included.
func (l *Ledger) PoolCount() int {
	return len(l.pools)
}

// Pool returns the pool record at idx.
func (l *Ledger) Pool(idx types.PoolIndex) (*types.Pool, error) {
	if int(idx) >= len(l.pools) {
		return nil, fmt.Errorf("%w: index %d", ErrPoolNotFound, idx)
	}
	return l.pools[idx], nil
}

// PoolByAsset resolves an asset identity to its pool.
func (l *Ledger) PoolByAsset(asset types.AssetID) (*types.Pool, error) {
	idx, ok := l.byAsset[asset]
	if !ok {
		return nil, fmt.Errorf("%w: asset %s", ErrPoolNotFound, asset)
	}
	return l.pools[idx], nil
}

// AddPool registers a new pool for an asset that has none yet. Every
// pool is settled to now before the weight change so elapsed time
// accrues under the old weights, and the reward pool is rebalanced
// afterwards.
func (l *Ledger) AddPool(asset types.AssetID, weight sdkmath.Int, now int64) (types.PoolIndex, error) {
	if _, ok := l.byAsset[asset]; ok {
		return 0, fmt.Errorf("%w: %s", ErrPoolAlreadyExists, asset)
	}
	if err := l.SettleAll(now); err != nil {
		return 0, err
	}
	idx := l.registerPool(asset, weight, now)
	l.totalWeight = l.totalWeight.Add(weight)
	l.rebalanceRewardPool()
	return idx, nil
}

func (l *Ledger) registerPool(asset types.AssetID, weight sdkmath.Int, now int64) types.PoolIndex {
	settledAt := now
	if l.params.GenesisTime > settledAt {
		settledAt = l.params.GenesisTime
	}
	idx := types.PoolIndex(len(l.pools))
	l.pools = append(l.pools, &types.Pool{
		AssetID:               asset,
		PoolIndex:             idx,
		AllocationWeight:      weight,
		LastSettledAt:         settledAt,
		AccruedRewardPerShare: sdkmath.LegacyZeroDec(),
		TotalStaked:           sdkmath.ZeroInt(),
	})
	l.byAsset[asset] = idx
	l.accounts[idx] = make(map[string]*types.Account)
	return idx
}

// SetAllocation changes a pool's emission weight. All pools are
// settled to now first, then the reward pool's own weight is
// recomputed from the new total.
func (l *Ledger) SetAllocation(idx types.PoolIndex, weight sdkmath.Int, now int64) error {
	pool, err := l.Pool(idx)
	if err != nil {
		return err
	}
	if err := l.SettleAll(now); err != nil {
		return err
	}
	l.totalWeight = l.totalWeight.Sub(pool.AllocationWeight).Add(weight)
	pool.AllocationWeight = weight
	l.rebalanceRewardPool()
	return nil
}

// rebalanceRewardPool forces the reward-token pool's weight to
// floor(sum_of_other_weights / divisor) and recomputes the total.
// Runs after every add-pool and every reweight.
func (l *Ledger) rebalanceRewardPool() {
	rewardPool := l.pools[types.RewardPoolIndex]
	others := l.totalWeight.Sub(rewardPool.AllocationWeight)
	rewardPool.AllocationWeight = others.Quo(sdkmath.NewInt(l.params.RewardPoolWeightDivisor))
	l.totalWeight = others.Add(rewardPool.AllocationWeight)
}

// Settle advances a pool's reward accounting to now. Idempotent:
// settling twice at the same timestamp is a no-op the second time.
// Before the genesis timestamp nothing accrues. A pool with zero
// weight or zero stake only advances its clock; the elapsed emission
// is forfeited, not banked.
func (l *Ledger) Settle(idx types.PoolIndex, now int64) error {
	pool, err := l.Pool(idx)
	if err != nil {
		return err
	}
	if now == pool.LastSettledAt || l.params.GenesisTime > now {
		return nil
	}
	if now < pool.LastSettledAt {
		return fmt.Errorf("%w: pool %d settled at %d, got %d", ErrClockRegression, idx, pool.LastSettledAt, now)
	}
	elapsed := now - pool.LastSettledAt
	if pool.AllocationWeight.IsZero() || pool.TotalStaked.IsZero() {
		pool.LastSettledAt = now
		return nil
	}
	reward, err := rewardmath.PoolReward(elapsed, l.params.EmissionRatePerMs, pool.AllocationWeight, l.totalWeight)
	if err != nil {
		return err
	}
	delta, err := rewardmath.PerShareDelta(reward, pool.TotalStaked)
	if err != nil {
		return err
	}
	pool.AccruedRewardPerShare = pool.AccruedRewardPerShare.Add(delta)
	pool.LastSettledAt = now
	return nil
}

// SettleAll settles every registered pool to now.
func (l *Ledger) SettleAll(now int64) error {
	for idx := range l.pools {
		if err := l.Settle(types.PoolIndex(idx), now); err != nil {
			return err
		}
	}
	return nil
}

// Account returns the account record for (idx, addr), if one exists.
func (l *Ledger) Account(idx types.PoolIndex, addr string) (*types.Account, bool) {
	accounts, ok := l.accounts[idx]
	if !ok {
		return nil, false
	}
	account, ok := accounts[addr]
	return account, ok
}

// EnsureAccount returns the account record for (idx, addr), creating
// an empty one on first use.
func (l *Ledger) EnsureAccount(idx types.PoolIndex, addr string) *types.Account {
	if account, ok := l.Account(idx, addr); ok {
		return account
	}
	account := types.NewAccount()
	l.accounts[idx][addr] = account
	return account
}

// CreditReferral adds a referral bonus to an account: both the
// lifetime accumulator and the unclaimed counter grow, and the
// referral count increments.
func (l *Ledger) CreditReferral(idx types.PoolIndex, addr string, bonus sdkmath.Int) {
	account := l.EnsureAccount(idx, addr)
	account.ReferralBonusAccumulated = account.ReferralBonusAccumulated.Add(bonus)
	account.UnclaimedBonus = account.UnclaimedBonus.Add(bonus)
	account.ReferralCount++
}

// Pending is the read-only reward projection against the pool's
// current accumulator. It does NOT settle first, so it can trail the
// mutating paths; ProjectedPending gives the live value.
func (l *Ledger) Pending(idx types.PoolIndex, addr string) sdkmath.Int {
	pool, err := l.Pool(idx)
	if err != nil {
		return sdkmath.ZeroInt()
	}
	account, ok := l.Account(idx, addr)
	if !ok || account.Balance.IsZero() || pool.TotalStaked.IsZero() {
		return sdkmath.ZeroInt()
	}
	return rewardmath.PendingReward(account.Balance, pool.AccruedRewardPerShare, account.RewardsPaid)
}

// ProjectedPending is Pending against a hypothetically settled
// accumulator at now. Nothing is mutated.
func (l *Ledger) ProjectedPending(idx types.PoolIndex, addr string, now int64) (sdkmath.Int, error) {
	pool, err := l.Pool(idx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	account, ok := l.Account(idx, addr)
	if !ok || account.Balance.IsZero() || pool.TotalStaked.IsZero() {
		return sdkmath.ZeroInt(), nil
	}
	perShare := pool.AccruedRewardPerShare
	if now > pool.LastSettledAt && l.params.GenesisTime <= now &&
		!pool.AllocationWeight.IsZero() && !pool.TotalStaked.IsZero() {
		reward, err := rewardmath.PoolReward(now-pool.LastSettledAt, l.params.EmissionRatePerMs, pool.AllocationWeight, l.totalWeight)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		delta, err := rewardmath.PerShareDelta(reward, pool.TotalStaked)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		perShare = perShare.Add(delta)
	}
	return rewardmath.PendingReward(account.Balance, perShare, account.RewardsPaid), nil
}

/*

This file contains the core ledger records for the farm: per-asset pools,
per-(pool,account) staking positions, and the global emission parameters.

*/

package types

import (
	sdkmath "cosmossdk.io/math"
)

// PoolIndex is the stable identity of a pool, assigned at registration
// time and never reused.
type PoolIndex uint64

// RewardPoolIndex is the reserved index of the reward token's own pool.
// It is created when the ledger is constructed, before any other pool.
const RewardPoolIndex PoolIndex = 0

// Pool is the per-asset staking record. One pool exists per supported
// asset, keyed by asset identity.
type Pool struct {
	AssetID   AssetID   `json:"asset_id"`
	PoolIndex PoolIndex `json:"pool_index"`

	// AllocationWeight is this pool's share of the global emission.
	// Mutable by admin action only.
	AllocationWeight sdkmath.Int `json:"allocation_weight"`

	// LastSettledAt is the unix-millisecond timestamp the pool was last
	// settled to. Monotonically non-decreasing.
	LastSettledAt int64 `json:"last_settled_at"`

	// AccruedRewardPerShare is the cumulative reward earned per unit
	// staked, as an 18-decimal fixed point. Monotonically non-decreasing.
	AccruedRewardPerShare sdkmath.LegacyDec `json:"accrued_reward_per_share"`

	// TotalStaked is the custody-equivalent amount staked in this pool.
	// Note: because referral bonuses are carved out of reward-accruing
	// principal (not custody), TotalStaked may exceed the sum of account
	// balances by the sum of referral cuts.
	TotalStaked sdkmath.Int `json:"total_staked"`
}

// Account is a per-(pool,participant) staking position. Created lazily
// on first stake, never deleted; zero-balance accounts persist.
type Account struct {
	// Balance is the reward-accruing staked principal. Independent of
	// any custody balance.
	Balance sdkmath.Int `json:"balance"`

	// RewardsPaid is the balance-scaled reward-per-share already
	// credited to this account. Pending reward is always
	// balance*pool.AccruedRewardPerShare - RewardsPaid.
	RewardsPaid sdkmath.LegacyDec `json:"rewards_paid"`

	ReferralBonusAccumulated sdkmath.Int `json:"referral_bonus_accumulated"`
	UnclaimedBonus           sdkmath.Int `json:"unclaimed_bonus"`
	ReferralCount            uint64      `json:"referral_count"`
}

// NewAccount returns an empty account positioned at the given
// reward-per-share checkpoint base.
func NewAccount() *Account {
	return &Account{
		Balance:                  sdkmath.ZeroInt(),
		RewardsPaid:              sdkmath.LegacyZeroDec(),
		ReferralBonusAccumulated: sdkmath.ZeroInt(),
		UnclaimedBonus:           sdkmath.ZeroInt(),
	}
}

// FarmParameters holds the global emission state shared by every pool.
type FarmParameters struct {
	// EmissionRatePerMs is the number of reward base units emitted per
	// millisecond across all pools combined.
	EmissionRatePerMs sdkmath.Int `json:"emission_rate_per_ms"`

	// GenesisTime is the unix-millisecond timestamp before which no
	// emission accrues.
	GenesisTime int64 `json:"genesis_time"`

	// ReferralShareBps is the referral bonus, in basis points of the
	// staked amount (500 = 5%).
	ReferralShareBps int64 `json:"referral_share_bps"`

	// RewardPoolWeightDivisor pins the reward token's own pool at
	// floor(sum_of_other_weights / divisor) after every reweight.
	RewardPoolWeightDivisor int64 `json:"reward_pool_weight_divisor"`

	RewardDenom string `json:"reward_denom"`
	StakeDenom  string `json:"stake_denom"`
}

// PoolOverview is the batched front-end projection of one pool, with
// the queried account's balance (zero when the account never staked).
type PoolOverview struct {
	PoolIndex        PoolIndex   `json:"pool_index"`
	AssetID          AssetID     `json:"asset_id"`
	AllocationWeight sdkmath.Int `json:"allocation_weight"`
	TotalStaked      sdkmath.Int `json:"total_staked"`
	AccountBalance   sdkmath.Int `json:"account_balance"`
}

// MaxOverviewPools caps how many pools one batched getter call may
// project.
const MaxOverviewPools = 5

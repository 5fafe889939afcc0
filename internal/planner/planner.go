/*

This file contains the stake planner: given the projected pool yields
and an amount a participant wants to stake, pick the pool that pays the
most and estimate the daily reward the new position would earn after
dilution by its own principal.

*/

package planner

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/sip-protocol/farmd/internal/analyzer"
	"github.com/sip-protocol/farmd/internal/logger"
	"github.com/sip-protocol/farmd/internal/types"
)

var plannerLogger = logger.GetForComponent("stake_planner")

var (
	ErrZeroPlanAmount = errors.New("plan amount is zero")
	ErrNoPoolsToPlan  = errors.New("no pools available to plan against")
)

// StakePlan is a recommendation for where to stake an amount.
type StakePlan struct {
	PoolIndex types.PoolIndex `json:"pool_index"`
	AssetID   types.AssetID   `json:"asset_id"`
	Amount    sdkmath.Int     `json:"amount"`

	// ExpectedRewardPerDay is the share of the pool's daily emission the
	// new position would earn, accounting for the dilution the stake
	// itself causes: emission * amount / (staked + amount).
	ExpectedRewardPerDay sdkmath.Int `json:"expected_reward_per_day"`
}

// PlanStake picks the highest-yield pool for amount and projects its
// daily reward there.
func PlanStake(yields []analyzer.PoolYield, amount sdkmath.Int) (StakePlan, error) {
	if amount.IsNil() || amount.IsZero() {
		return StakePlan{}, ErrZeroPlanAmount
	}
	if len(yields) == 0 {
		return StakePlan{}, ErrNoPoolsToPlan
	}

	top, err := analyzer.SelectTopPools(yields, 1)
	if err != nil {
		return StakePlan{}, fmt.Errorf("failed to rank pools: %w", err)
	}

	var best analyzer.PoolYield
	for _, y := range yields {
		if y.PoolIndex == top[0] {
			best = y
			break
		}
	}

	diluted := best.TotalStaked.Add(amount)
	expected := best.EmissionPerDay.Mul(amount).Quo(diluted)

	plannerLogger.Info().
		Uint64("pool_index", uint64(best.PoolIndex)).
		Str("amount", amount.String()).
		Str("expected_reward_per_day", expected.String()).
		Msg("Stake plan computed")

	return StakePlan{
		PoolIndex:            best.PoolIndex,
		AssetID:              best.AssetID,
		Amount:               amount,
		ExpectedRewardPerDay: expected,
	}, nil
}

/*

This file contains the per-pool yield projection: given a pool record,
the global allocation weight, and the emission parameters, compute the
pool's daily emission and the daily reward per staked token.

*/

package analyzer

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/sip-protocol/farmd/internal/logger"
	"github.com/sip-protocol/farmd/internal/rewardmath"
	"github.com/sip-protocol/farmd/internal/types"
	"github.com/sip-protocol/farmd/internal/utils"
)

var yieldLogger = logger.GetForComponent("pool_analyzer")

var ErrZeroTotalWeight = errors.New("total allocation weight is zero")

const millisecondsPerDay = 24 * 60 * 60 * 1000

// PoolYield is the projected emission of one pool over a day.
type PoolYield struct {
	PoolIndex types.PoolIndex `json:"pool_index"`
	AssetID   types.AssetID   `json:"asset_id"`

	// EmissionPerDay is the pool's share of one day of global emission,
	// in reward base units.
	EmissionPerDay sdkmath.Int `json:"emission_per_day"`

	// TotalStaked mirrors the pool record at projection time.
	TotalStaked sdkmath.Int `json:"total_staked"`

	// RewardPerTokenPerDay is EmissionPerDay divided by the staked
	// total; zero when the pool is empty.
	RewardPerTokenPerDay float64 `json:"reward_per_token_per_day"`
}

// CalculatePoolYield projects one pool's daily emission at the current
// weights. The reward-per-token figure is a display value only; ledger
// accounting never consumes it.
func CalculatePoolYield(pool types.Pool, totalWeight sdkmath.Int, params types.FarmParameters) (PoolYield, error) {
	if totalWeight.IsZero() {
		return PoolYield{}, ErrZeroTotalWeight
	}

	emission, err := rewardmath.PoolReward(millisecondsPerDay, params.EmissionRatePerMs, pool.AllocationWeight, totalWeight)
	if err != nil {
		return PoolYield{}, fmt.Errorf("failed to project pool %d emission: %w", pool.PoolIndex, err)
	}

	result := PoolYield{
		PoolIndex:      pool.PoolIndex,
		AssetID:        pool.AssetID,
		EmissionPerDay: emission,
		TotalStaked:    pool.TotalStaked,
	}

	if !pool.TotalStaked.IsZero() {
		emissionFloat, err := utils.SDKIntToFloat64(emission, 0)
		if err != nil {
			return PoolYield{}, fmt.Errorf("failed to convert pool %d emission: %w", pool.PoolIndex, err)
		}
		stakedFloat, err := utils.SDKIntToFloat64(pool.TotalStaked, 0)
		if err != nil {
			return PoolYield{}, fmt.Errorf("failed to convert pool %d staked total: %w", pool.PoolIndex, err)
		}
		result.RewardPerTokenPerDay = emissionFloat / stakedFloat
	}

	yieldLogger.Debug().
		Uint64("pool_index", uint64(pool.PoolIndex)).
		Str("emission_per_day", emission.String()).
		Float64("reward_per_token_per_day", result.RewardPerTokenPerDay).
		Msg("Projected pool yield")

	return result, nil
}

// CalculatePoolYields projects every pool in the slice.
func CalculatePoolYields(pools []types.Pool, totalWeight sdkmath.Int, params types.FarmParameters) ([]PoolYield, error) {
	out := make([]PoolYield, 0, len(pools))
	for _, pool := range pools {
		result, err := CalculatePoolYield(pool, totalWeight, params)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}

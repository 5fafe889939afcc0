/*

This file contains the function for ranking pools by projected yield
and selecting the best ones for display and stake planning.

*/

package analyzer

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sip-protocol/farmd/internal/logger"
	"github.com/sip-protocol/farmd/internal/types"
)

var poolSelectorLogger = logger.GetForComponent("pool_selector")

var ErrNoValidPools = errors.New("no pools with valid yields found")

// SelectTopPools ranks pools by daily reward per staked token,
// descending, and returns the indices of the best maxPools. Empty pools
// rank by daily emission instead, after every non-empty pool.
func SelectTopPools(yields []PoolYield, maxPools int) ([]types.PoolIndex, error) {
	if len(yields) == 0 {
		poolSelectorLogger.Error().Msg("Input yields slice is empty")
		return nil, ErrNoValidPools
	}
	if maxPools <= 0 {
		poolSelectorLogger.Error().Int("maxPools", maxPools).Msg("maxPools must be positive")
		return nil, errors.New("maxPools must be positive")
	}

	for _, y := range yields {
		if math.IsNaN(y.RewardPerTokenPerDay) || math.IsInf(y.RewardPerTokenPerDay, 0) {
			poolSelectorLogger.Error().
				Uint64("pool_index", uint64(y.PoolIndex)).
				Float64("reward_per_token_per_day", y.RewardPerTokenPerDay).
				Msg("Pool has invalid yield")
			return nil, fmt.Errorf("pool %d has invalid yield: %f", y.PoolIndex, y.RewardPerTokenPerDay)
		}
	}

	ranked := make([]PoolYield, len(yields))
	copy(ranked, yields)
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.RewardPerTokenPerDay != b.RewardPerTokenPerDay {
			return a.RewardPerTokenPerDay > b.RewardPerTokenPerDay
		}
		return a.EmissionPerDay.GT(b.EmissionPerDay)
	})

	count := maxPools
	if count > len(ranked) {
		count = len(ranked)
	}

	selected := make([]types.PoolIndex, count)
	for i := 0; i < count; i++ {
		selected[i] = ranked[i].PoolIndex
		poolSelectorLogger.Debug().
			Int("rank", i+1).
			Uint64("pool_index", uint64(ranked[i].PoolIndex)).
			Float64("reward_per_token_per_day", ranked[i].RewardPerTokenPerDay).
			Msg("Selected pool")
	}
	return selected, nil
}

package planner

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/sip-protocol/farmd/internal/analyzer"
)

func TestPlanStakePicksHighestYieldAndDilutes(t *testing.T) {
	yields := []analyzer.PoolYield{
		{
			PoolIndex:            1,
			AssetID:              "uatom",
			EmissionPerDay:       sdkmath.NewInt(64_800_000),
			TotalStaked:          sdkmath.NewInt(1_000_000),
			RewardPerTokenPerDay: 64.8,
		},
		{
			PoolIndex:            2,
			AssetID:              "uosmo",
			EmissionPerDay:       sdkmath.NewInt(21_600_000),
			TotalStaked:          sdkmath.NewInt(10_000),
			RewardPerTokenPerDay: 2160,
		},
	}

	plan, err := PlanStake(yields, sdkmath.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, yields[1].PoolIndex, plan.PoolIndex)
	require.Equal(t, yields[1].AssetID, plan.AssetID)
	// The stake doubles the pool, so the position earns half the
	// emission: 21.6M * 10k / 20k.
	require.Equal(t, sdkmath.NewInt(10_800_000), plan.ExpectedRewardPerDay)
}

func TestPlanStakeZeroAmount(t *testing.T) {
	_, err := PlanStake(nil, sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrZeroPlanAmount)
}

func TestPlanStakeNoPools(t *testing.T) {
	_, err := PlanStake(nil, sdkmath.NewInt(1))
	require.ErrorIs(t, err, ErrNoPoolsToPlan)
}

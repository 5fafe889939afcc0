/*

This file contains the default emission parameters for the farm.

These values are used when no active parameter row exists in the
database at startup; the chosen set is then saved and activated.

*/

package config

import (
	sdkmath "cosmossdk.io/math"

	"github.com/sip-protocol/farmd/internal/types"
)

// DefaultFarmParameters provides a baseline emission configuration.
var DefaultFarmParameters = types.FarmParameters{
	// 5 base units per millisecond, 432M per day across all pools.
	EmissionRatePerMs: sdkmath.NewInt(5),

	// Emission starts immediately unless overridden; 0 means "from the
	// beginning of the epoch", which every live timestamp is after.
	GenesisTime: 0,

	// 5% of each referred stake is carved out for the referrer.
	ReferralShareBps: 500,

	// The reward token's own pool is pinned at one third of the sum of
	// all other pool weights.
	RewardPoolWeightDivisor: 3,

	RewardDenom: "usip",
	StakeDenom:  "usip",
}

// FarmParametersFromEnv builds the boot parameters from the loaded
// environment configuration, falling back to the defaults for any
// field the environment leaves at its zero value.
func FarmParametersFromEnv() (types.FarmParameters, error) {
	params := DefaultFarmParameters

	if EmissionRatePerMs != "" {
		rate, ok := sdkmath.NewIntFromString(EmissionRatePerMs)
		if !ok {
			return types.FarmParameters{}, &InvalidParameterError{Name: "FARMD_EMISSION_RATE_PER_MS", Value: EmissionRatePerMs}
		}
		params.EmissionRatePerMs = rate
	}
	if GenesisTimeMs > 0 {
		params.GenesisTime = int64(GenesisTimeMs)
	}
	if RewardDenom != "" {
		params.RewardDenom = RewardDenom
	}
	if StakeDenom != "" {
		params.StakeDenom = StakeDenom
	}
	return params, nil
}

// InvalidParameterError reports an environment value that failed to parse.
type InvalidParameterError struct {
	Name  string
	Value string
}

func (e *InvalidParameterError) Error() string {
	return "invalid value for " + e.Name + ": " + e.Value
}

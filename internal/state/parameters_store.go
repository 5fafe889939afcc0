// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"

	"github.com/sip-protocol/farmd/internal/types"
)

// SaveFarmParameters inserts a new parameter version and, when activate
// is set, makes it the single active row.
func SaveFarmParameters(params types.FarmParameters, activate bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if activate {
		if _, err := tx.Exec(`UPDATE emission_parameters SET is_active = FALSE WHERE is_active;`); err != nil {
			return 0, fmt.Errorf("failed to deactivate previous parameters: %w", err)
		}
	}

	query := `
		INSERT INTO emission_parameters (
			version, is_active, emission_rate_per_ms, genesis_time,
			referral_share_bps, reward_pool_weight_divisor, reward_denom, stake_denom
		) VALUES (
			COALESCE((SELECT MAX(version) FROM emission_parameters), 0) + 1,
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING params_id;
	`

	var paramsID int64
	err = tx.QueryRow(
		query,
		activate, params.EmissionRatePerMs.String(), params.GenesisTime,
		params.ReferralShareBps, params.RewardPoolWeightDivisor,
		params.RewardDenom, params.StakeDenom,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to save farm parameters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit farm parameters: %w", err)
	}

	log.Info().
		Int64("params_id", paramsID).
		Bool("active", activate).
		Str("emission_rate_per_ms", params.EmissionRatePerMs.String()).
		Msg("Farm parameters saved to database")

	return paramsID, nil
}

// LoadActiveFarmParameters returns the active parameter row. The
// boolean is false when none has been activated yet.
func LoadActiveFarmParameters() (types.FarmParameters, bool, error) {
	if DB == nil {
		return types.FarmParameters{}, false, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT emission_rate_per_ms, genesis_time, referral_share_bps,
		       reward_pool_weight_divisor, reward_denom, stake_denom
		FROM emission_parameters
		WHERE is_active
		ORDER BY activated_at DESC
		LIMIT 1;
	`

	var (
		rate   string
		params types.FarmParameters
	)
	err := DB.QueryRow(query).Scan(
		&rate, &params.GenesisTime, &params.ReferralShareBps,
		&params.RewardPoolWeightDivisor, &params.RewardDenom, &params.StakeDenom,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FarmParameters{}, false, nil
	}
	if err != nil {
		return types.FarmParameters{}, false, fmt.Errorf("failed to load farm parameters: %w", err)
	}

	emissionRate, ok := sdkmath.NewIntFromString(rate)
	if !ok {
		return types.FarmParameters{}, false, fmt.Errorf("invalid emission rate in database: %q", rate)
	}
	params.EmissionRatePerMs = emissionRate
	return params, true, nil
}

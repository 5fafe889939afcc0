package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// AdminAddress is the identity that holds the farm's admin capability.
	AdminAddress string

	// RewardDenom is the denomination minted as staking rewards.
	RewardDenom string
	// StakeDenom is the denomination accepted into custody on stake.
	StakeDenom string

	// EmissionRatePerMs is the reward base units emitted per millisecond,
	// as a decimal string (parsed into a big integer downstream).
	EmissionRatePerMs string
	// GenesisTimeMs is the unix-millisecond timestamp emission starts at.
	GenesisTimeMs uint64

	// SnapshotIntervalMinutes is how often the ledger is checkpointed to
	// the database.
	SnapshotIntervalMinutes uint64
	// SnapshotRetention is how many checkpoints to keep before pruning.
	SnapshotRetention uint64
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	AdminAddress, err = getEnv("FARMD_ADMIN_ADDRESS")
	if err != nil {
		return err
	}

	RewardDenom, err = getEnv("FARMD_REWARD_DENOM")
	if err != nil {
		return err
	}

	StakeDenom, err = getEnv("FARMD_STAKE_DENOM")
	if err != nil {
		return err
	}

	EmissionRatePerMs, err = getEnv("FARMD_EMISSION_RATE_PER_MS")
	if err != nil {
		return err
	}

	GenesisTimeMs, err = getEnvAsUint64("FARMD_GENESIS_TIME_MS")
	if err != nil {
		return err
	}

	SnapshotIntervalMinutes, err = getEnvAsUint64("FARMD_SNAPSHOT_INTERVAL_MINUTES")
	if err != nil {
		return err
	}

	SnapshotRetention, err = getEnvAsUint64("FARMD_SNAPSHOT_RETENTION")
	if err != nil {
		return err
	}

	log.Debug().
		Str("AdminAddress", AdminAddress).
		Str("RewardDenom", RewardDenom).
		Str("StakeDenom", StakeDenom).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

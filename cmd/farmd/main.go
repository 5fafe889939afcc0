package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/sip-protocol/farmd/internal/config"
	"github.com/sip-protocol/farmd/internal/custody"
	"github.com/sip-protocol/farmd/internal/farm"
	"github.com/sip-protocol/farmd/internal/ledger"
	"github.com/sip-protocol/farmd/internal/logger"
	"github.com/sip-protocol/farmd/internal/minter"
	"github.com/sip-protocol/farmd/internal/state"
	"github.com/sip-protocol/farmd/internal/types"
	"github.com/sip-protocol/farmd/internal/web"
)

// main is the entry point for the farm daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Farm daemon starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load emission parameters: the active database row wins, otherwise
	// the environment (with defaults) is saved and activated.
	params, found, err := state.LoadActiveFarmParameters()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load farm parameters")
	}
	if !found {
		params, err = config.FarmParametersFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build farm parameters from environment")
		}
		if _, err := state.SaveFarmParameters(params, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial farm parameters")
		}
	}
	log.Info().Msg("Farm parameters loaded successfully.")

	// Rebuild the ledger and custody vault from the latest snapshot, or
	// start fresh. The snapshot's own parameters and custody balance are
	// authoritative once one exists: a restored ledger without its
	// backing funds could never pay a withdrawal again.
	var (
		farmLedger *ledger.Ledger
		vault      *custody.Vault
	)
	snapshot, restored, err := state.LoadLatestFarmSnapshot()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load farm snapshot")
	}
	if restored {
		params = snapshot.Params
		farmLedger = ledger.Restore(snapshot)
		backing := snapshot.Custody
		if backing.IsNil() {
			// Snapshots persisted before the custody field carry none;
			// the staked totals are custody-equivalent.
			backing = snapshot.StakedTotal()
		}
		vault = custody.RestoreVault(params.StakeDenom, backing)
		log.Info().
			Int("pools", len(snapshot.Pools)).
			Int("accounts", len(snapshot.Accounts)).
			Str("custody", vault.Balance().String()).
			Msg("Ledger restored from snapshot")
	} else {
		farmLedger = ledger.New(params, types.AssetID(params.RewardDenom), time.Now().UnixMilli())
		vault = custody.NewVault(params.StakeDenom)
		log.Info().Msg("Ledger initialized at genesis")
	}

	// --- 2. Capability and Engine Wiring ---
	sink := state.EventStore{}
	adminCap := types.NewAdminCap()
	rewardMinter := minter.New(params.RewardDenom, adminCap, sink)
	minterCap, err := rewardMinter.AddMinter(adminCap, config.AdminAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to allowlist the farm engine as a minter")
	}

	engine, err := farm.New(farm.Config{
		Ledger:    farmLedger,
		Vault:     vault,
		Minter:    rewardMinter,
		MinterCap: minterCap,
		AdminCap:  adminCap,
		Sink:      sink,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create farm engine")
	}
	log.Info().Msg("Farm engine created successfully")

	// --- 3. Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, engine)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting farm web API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 4. Snapshot Loop ---
	interval := time.Duration(config.SnapshotIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Str("interval", interval.String()).Msg("Starting snapshot loop")
	for {
		select {
		case <-ticker.C:
			saveSnapshot(engine)
		case sig := <-stop:
			log.Info().Str("signal", sig.String()).Msg("Shutting down, taking final snapshot")
			saveSnapshot(engine)
			return
		}
	}
}

func saveSnapshot(engine *farm.Engine) {
	if _, err := state.SaveFarmSnapshot(engine.Snapshot()); err != nil {
		log.Error().Err(err).Msg("Failed to save farm snapshot")
		return
	}
	keep := int(config.SnapshotRetention)
	if keep <= 0 {
		keep = 24
	}
	if _, err := state.PruneFarmSnapshots(keep); err != nil {
		log.Error().Err(err).Msg("Failed to prune old snapshots")
	}
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}

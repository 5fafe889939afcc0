// ./internal/state/snapshot_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sip-protocol/farmd/internal/ledger"
)

// SaveFarmSnapshot persists a full ledger snapshot as one JSONB row.
func SaveFarmSnapshot(snapshot ledger.Snapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	ledgerJSON, err := json.Marshal(snapshot)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal ledger snapshot: %w", err)
	}

	query := `
		INSERT INTO farm_snapshots (pool_count, account_count, ledger)
		VALUES ($1, $2, $3)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err = DB.QueryRow(query, len(snapshot.Pools), len(snapshot.Accounts), ledgerJSON).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save farm snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("pools", len(snapshot.Pools)).
		Int("accounts", len(snapshot.Accounts)).
		Msg("Farm snapshot saved to database")

	return snapshotID, nil
}

// LoadLatestFarmSnapshot returns the most recent snapshot. The boolean
// is false when no snapshot has ever been saved.
func LoadLatestFarmSnapshot() (ledger.Snapshot, bool, error) {
	if DB == nil {
		return ledger.Snapshot{}, false, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT ledger FROM farm_snapshots
		ORDER BY taken_at DESC, snapshot_id DESC
		LIMIT 1;
	`

	var ledgerJSON []byte
	err := DB.QueryRow(query).Scan(&ledgerJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Snapshot{}, false, nil
	}
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("failed to load farm snapshot: %w", err)
	}

	var snapshot ledger.Snapshot
	if err := json.Unmarshal(ledgerJSON, &snapshot); err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("failed to unmarshal ledger snapshot: %w", err)
	}
	return snapshot, true, nil
}

// PruneFarmSnapshots deletes all but the newest keep snapshots.
func PruneFarmSnapshots(keep int) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if keep < 1 {
		keep = 1
	}

	query := `
		DELETE FROM farm_snapshots
		WHERE snapshot_id NOT IN (
			SELECT snapshot_id FROM farm_snapshots
			ORDER BY taken_at DESC, snapshot_id DESC
			LIMIT $1
		);
	`
	result, err := DB.Exec(query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune farm snapshots: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	return deleted, nil
}

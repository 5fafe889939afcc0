// ./internal/state/event_store.go
package state

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sip-protocol/farmd/internal/types"
)

// EventStore persists engine and router events to the farm_events
// table. It satisfies the events.Sink contract: Emit never fails the
// caller, a write error is logged and dropped.
type EventStore struct{}

// Emit writes one event row. Core logic never observes the outcome.
func (EventStore) Emit(event types.Event) {
	if DB == nil {
		log.Warn().Str("kind", string(event.Kind)).Msg("Dropping event: database not initialized")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("kind", string(event.Kind)).Msg("Failed to marshal event payload")
		return
	}

	query := `
		INSERT INTO farm_events (kind, trace_id, emitted_at, payload)
		VALUES ($1, $2, $3, $4);
	`
	if _, err := DB.Exec(query, string(event.Kind), event.TraceID, event.Timestamp, payload); err != nil {
		log.Error().Err(err).Str("kind", string(event.Kind)).Msg("Failed to persist event")
	}
}

// RecentEvents returns up to limit events, newest first.
func RecentEvents(limit int) ([]types.Event, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT payload FROM farm_events
		ORDER BY emitted_at DESC, event_id DESC
		LIMIT $1;
	`
	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []types.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		var event types.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
		}
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return out, nil
}

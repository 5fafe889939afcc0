/*

This file contains the structured events emitted by the farm engine,
the minter, and the router. Events are a pure side channel: core logic
never branches on whether emission succeeded.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// EventKind discriminates the event payloads in the audit log.
type EventKind string

const (
	EventStake           EventKind = "stake"
	EventUnstake         EventKind = "unstake"
	EventClaim           EventKind = "claim"
	EventAddPool         EventKind = "add_pool"
	EventSetAllocation   EventKind = "set_allocation_points"
	EventSetEmissionRate EventKind = "set_emission_rate"
	EventMinterAdded     EventKind = "minter_added"
	EventMinterRemoved   EventKind = "minter_removed"
	EventNewAdmin        EventKind = "new_admin"
	EventSwapRoute       EventKind = "swap_route"
)

// Event is one entry in the notification side channel. TraceID ties
// together every event emitted by a single logical operation.
type Event struct {
	Kind      EventKind `json:"kind"`
	TraceID   string    `json:"trace_id"`
	Timestamp time.Time `json:"timestamp"`

	PoolIndex PoolIndex `json:"pool_index,omitempty"`
	AssetID   AssetID   `json:"asset_id,omitempty"`
	Account   string    `json:"account,omitempty"`

	Amount sdkmath.Int `json:"amount,omitempty"`
	Reward sdkmath.Int `json:"reward,omitempty"`

	// Reweighting / emission changes.
	AllocationWeight sdkmath.Int `json:"allocation_weight,omitempty"`
	EmissionRate     sdkmath.Int `json:"emission_rate,omitempty"`

	// Minter allowlist changes and admin rotation.
	Identity string `json:"identity,omitempty"`

	// Swap routing audit.
	Route     []AssetID   `json:"route,omitempty"`
	Curves    []CurveKind `json:"curves,omitempty"`
	AmountIn  sdkmath.Int `json:"amount_in,omitempty"`
	AmountOut sdkmath.Int `json:"amount_out,omitempty"`
}

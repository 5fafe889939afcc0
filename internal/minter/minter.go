/*

This file contains the reward-token minter. Minting is gated by an
allowlist of authorized minter identities; allowlist changes require
the admin capability registered at construction and emit
MinterAdded/MinterRemoved notifications.

A minter capability is only honored while it is the capability most
recently issued for its holder AND the holder is still allowlisted, so
a removed-then-readded holder cannot mint with a stale capability.

*/

package minter

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"

	"github.com/sip-protocol/farmd/internal/events"
	"github.com/sip-protocol/farmd/internal/types"
)

var (
	ErrUnauthorizedAdmin  = errors.New("admin capability is not recognized")
	ErrUnauthorizedMinter = errors.New("minter capability is not allowlisted")
	ErrNegativeMint       = errors.New("mint amount is negative")
	ErrAlreadyAllowlisted = errors.New("identity is already allowlisted")
	ErrNotAllowlisted     = errors.New("identity is not allowlisted")
)

// Minter mints the protocol reward token for allowlisted identities.
// Not safe for concurrent use; callers serialize access.
type Minter struct {
	denom       string
	adminID     string
	allowlist   map[string]string // holder -> issued capability id
	totalMinted sdkmath.Int
	sink        events.Sink
	clock       func() time.Time
}

// New creates a minter for denom, administered by the given capability.
func New(denom string, admin *types.AdminCap, sink events.Sink) *Minter {
	if sink == nil {
		sink = events.Discard{}
	}
	return &Minter{
		denom:       denom,
		adminID:     admin.ID(),
		allowlist:   make(map[string]string),
		totalMinted: sdkmath.ZeroInt(),
		sink:        sink,
		clock:       time.Now,
	}
}

// Denom returns the reward denom this minter issues.
func (m *Minter) Denom() string {
	return m.denom
}

// TotalMinted returns the cumulative supply minted so far.
func (m *Minter) TotalMinted() sdkmath.Int {
	return m.totalMinted
}

// IsAllowlisted reports whether an identity may currently mint.
func (m *Minter) IsAllowlisted(holder string) bool {
	_, ok := m.allowlist[holder]
	return ok
}

func (m *Minter) validateAdmin(cap *types.AdminCap) error {
	if cap == nil || cap.ID() != m.adminID {
		return ErrUnauthorizedAdmin
	}
	return nil
}

// TransferAdmin rotates the administering capability. The old
// capability stops being honored.
func (m *Minter) TransferAdmin(current *types.AdminCap) (*types.AdminCap, error) {
	if err := m.validateAdmin(current); err != nil {
		return nil, err
	}
	next := types.NewAdminCap()
	m.adminID = next.ID()
	return next, nil
}

// AddMinter allowlists an identity and issues its minter capability.
func (m *Minter) AddMinter(cap *types.AdminCap, holder string) (*types.MinterCap, error) {
	if err := m.validateAdmin(cap); err != nil {
		return nil, err
	}
	if _, ok := m.allowlist[holder]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAllowlisted, holder)
	}
	mcap := types.NewMinterCap(holder)
	m.allowlist[holder] = mcap.ID()
	m.sink.Emit(types.Event{
		Kind:      types.EventMinterAdded,
		TraceID:   uuid.New().String(),
		Timestamp: m.clock(),
		Identity:  holder,
	})
	return mcap, nil
}

// RemoveMinter drops an identity from the allowlist. Capabilities
// issued to it stop being honored.
func (m *Minter) RemoveMinter(cap *types.AdminCap, holder string) error {
	if err := m.validateAdmin(cap); err != nil {
		return err
	}
	if _, ok := m.allowlist[holder]; !ok {
		return fmt.Errorf("%w: %s", ErrNotAllowlisted, holder)
	}
	delete(m.allowlist, holder)
	m.sink.Emit(types.Event{
		Kind:      types.EventMinterRemoved,
		TraceID:   uuid.New().String(),
		Timestamp: m.clock(),
		Identity:  holder,
	})
	return nil
}

// Mint issues amount of the reward denom to the caller holding an
// allowlisted capability. Minting is otherwise unconstrained.
func (m *Minter) Mint(amount sdkmath.Int, cap *types.MinterCap) (sdk.Coin, error) {
	if amount.IsNegative() {
		return sdk.Coin{}, fmt.Errorf("%w: %s", ErrNegativeMint, amount)
	}
	issued, ok := m.allowlist[cap.Holder()]
	if !ok || issued != cap.ID() {
		return sdk.Coin{}, fmt.Errorf("%w: %s", ErrUnauthorizedMinter, cap.Holder())
	}
	m.totalMinted = m.totalMinted.Add(amount)
	return sdk.NewCoin(m.denom, amount), nil
}

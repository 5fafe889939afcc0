/*

This file contains the capability tokens gating privileged operations.

A capability is an unforgeable proof-of-authority object: it is
validated by comparing its private id against the id currently
registered with the component it unlocks, never by consulting an
ambient admin flag. Transferring authority issues a fresh capability
and invalidates the old one.

*/

package types

import (
	"github.com/google/uuid"
)

// AdminCap authorizes farm administration (pool registration,
// reweighting, emission changes, custody withdrawal).
type AdminCap struct {
	id string
}

// NewAdminCap mints a fresh admin capability with a random identity.
func NewAdminCap() *AdminCap {
	return &AdminCap{id: uuid.New().String()}
}

// ID returns the capability's identity for registration checks.
func (c *AdminCap) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// MinterCap authorizes minting reward tokens. It is bound to the
// identity it was issued for and only valid while that identity is on
// the minter allowlist.
type MinterCap struct {
	id     string
	holder string
}

// NewMinterCap issues a minter capability for the given holder identity.
func NewMinterCap(holder string) *MinterCap {
	return &MinterCap{id: uuid.New().String(), holder: holder}
}

// ID returns the capability's identity.
func (c *MinterCap) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Holder returns the identity the capability was issued for.
func (c *MinterCap) Holder() string {
	if c == nil {
		return ""
	}
	return c.holder
}

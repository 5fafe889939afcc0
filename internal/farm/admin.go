/*

This file contains the admin-gated engine operations. Each one
validates the caller's admin capability before touching any state.

*/

package farm

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sip-protocol/farmd/internal/types"
)

// AddPool registers a staking pool for a new asset and emits an
// AddPool event. The reward pool's weight is rebalanced as part of
// registration.
func (e *Engine) AddPool(cap *types.AdminCap, asset types.AssetID, weight sdkmath.Int) (types.PoolIndex, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateAdmin(cap); err != nil {
		return 0, err
	}
	idx, err := e.ledger.AddPool(asset, weight, e.clock.Now())
	if err != nil {
		return 0, err
	}
	e.emit(types.Event{
		Kind:             types.EventAddPool,
		PoolIndex:        idx,
		AssetID:          asset,
		AllocationWeight: weight,
	})
	return idx, nil
}

// SetAllocation changes a pool's emission weight and rebalances the
// reward pool.
func (e *Engine) SetAllocation(cap *types.AdminCap, idx types.PoolIndex, weight sdkmath.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateAdmin(cap); err != nil {
		return err
	}
	if err := e.ledger.SetAllocation(idx, weight, e.clock.Now()); err != nil {
		return err
	}
	pool, err := e.ledger.Pool(idx)
	if err != nil {
		return err
	}
	e.emit(types.Event{
		Kind:             types.EventSetAllocation,
		PoolIndex:        idx,
		AssetID:          pool.AssetID,
		AllocationWeight: weight,
	})
	return nil
}

// SetEmissionRate replaces the global emission rate. Every pool is
// settled to the change timestamp first so elapsed time accrues at the
// old rate.
func (e *Engine) SetEmissionRate(cap *types.AdminCap, rate sdkmath.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateAdmin(cap); err != nil {
		return err
	}
	if err := e.ledger.SettleAll(e.clock.Now()); err != nil {
		return err
	}
	e.ledger.SetEmissionRate(rate)
	e.emit(types.Event{
		Kind:         types.EventSetEmissionRate,
		EmissionRate: rate,
	})
	return nil
}

// AdminWithdrawCustody moves backing funds out of the custody vault.
func (e *Engine) AdminWithdrawCustody(cap *types.AdminCap, amount sdkmath.Int) (sdk.Coin, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateAdmin(cap); err != nil {
		return sdk.Coin{}, err
	}
	return e.vault.Withdraw(amount)
}

// TransferAdminCap rotates the engine's admin capability. The old
// capability stops being honored; the new one is returned to its
// holder. Emits a NewAdmin event.
func (e *Engine) TransferAdminCap(cap *types.AdminCap) (*types.AdminCap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.validateAdmin(cap); err != nil {
		return nil, err
	}
	next := types.NewAdminCap()
	e.adminID = next.ID()
	e.emit(types.Event{
		Kind:     types.EventNewAdmin,
		Identity: next.ID(),
	})
	return next, nil
}

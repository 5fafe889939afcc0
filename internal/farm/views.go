/*

This file contains the read-only projections the engine exposes to the
web API: pool info, pending rewards, the batched front-end overview,
and ledger snapshots for persistence. Projections take the same lock
as mutations but never write.

*/

package farm

import (
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/sip-protocol/farmd/internal/ledger"
	"github.com/sip-protocol/farmd/internal/types"
)

// PoolCount reports how many pools are registered.
func (e *Engine) PoolCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.PoolCount()
}

// PoolInfo returns a copy of one pool record.
func (e *Engine) PoolInfo(idx types.PoolIndex) (types.Pool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pool, err := e.ledger.Pool(idx)
	if err != nil {
		return types.Pool{}, err
	}
	return *pool, nil
}

// AccountInfo returns a copy of one account record, or a zero account
// when the participant never staked in the pool.
func (e *Engine) AccountInfo(idx types.PoolIndex, addr string) (types.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.ledger.Pool(idx); err != nil {
		return types.Account{}, err
	}
	account, ok := e.ledger.Account(idx, addr)
	if !ok {
		return *types.NewAccount(), nil
	}
	return *account, nil
}

// Pending is the stale read-only reward projection (no settlement).
func (e *Engine) Pending(idx types.PoolIndex, addr string) sdkmath.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Pending(idx, addr)
}

// ProjectedPending is the live reward projection at the current clock.
func (e *Engine) ProjectedPending(idx types.PoolIndex, addr string) (sdkmath.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ProjectedPending(idx, addr, e.clock.Now())
}

// Overview is the batched front-end getter: per requested pool, the
// allocation weight, the total staked, and the account's balance (zero
// when it never staked). At most MaxOverviewPools pools per call.
func (e *Engine) Overview(addr string, idxs []types.PoolIndex) ([]types.PoolOverview, error) {
	if len(idxs) > types.MaxOverviewPools {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyPools, len(idxs), types.MaxOverviewPools)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]types.PoolOverview, 0, len(idxs))
	for _, idx := range idxs {
		pool, err := e.ledger.Pool(idx)
		if err != nil {
			return nil, err
		}
		balance := sdkmath.ZeroInt()
		if account, ok := e.ledger.Account(idx, addr); ok {
			balance = account.Balance
		}
		out = append(out, types.PoolOverview{
			PoolIndex:        pool.PoolIndex,
			AssetID:          pool.AssetID,
			AllocationWeight: pool.AllocationWeight,
			TotalStaked:      pool.TotalStaked,
			AccountBalance:   balance,
		})
	}
	return out, nil
}

// Pools returns copies of every pool record.
func (e *Engine) Pools() []types.Pool {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.Pool, 0, e.ledger.PoolCount())
	for idx := 0; idx < e.ledger.PoolCount(); idx++ {
		pool, err := e.ledger.Pool(types.PoolIndex(idx))
		if err != nil {
			continue
		}
		out = append(out, *pool)
	}
	return out
}

// TotalWeight returns the sum of all pool allocation weights.
func (e *Engine) TotalWeight() sdkmath.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TotalWeight()
}

// Params returns the global emission parameters.
func (e *Engine) Params() types.FarmParameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Params()
}

// CustodyBalance returns the pooled backing balance.
func (e *Engine) CustodyBalance() sdkmath.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vault.Balance()
}

// Snapshot deep-copies the ledger state for persistence, stamping in
// the custody balance so a restored farm can still pay withdrawals.
func (e *Engine) Snapshot() ledger.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.ledger.Snapshot()
	snap.Custody = e.vault.Balance()
	return snap
}

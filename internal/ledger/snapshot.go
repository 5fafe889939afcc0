package ledger

import (
	"sort"

	sdkmath "cosmossdk.io/math"
	"github.com/sip-protocol/farmd/internal/types"
)

// AccountEntry is one (pool, participant) position in a snapshot.
type AccountEntry struct {
	PoolIndex types.PoolIndex `json:"pool_index"`
	Address   string          `json:"address"`
	Account   types.Account   `json:"account"`
}

// Snapshot is a deep copy of the full ledger state, used both for
// durability and for state-equality checks around failed operations.
// Custody is the backing vault balance at snapshot time; the ledger
// itself never reads it, but a restored ledger is only withdrawable if
// the vault comes back with it.
type Snapshot struct {
	Params      types.FarmParameters `json:"params"`
	TotalWeight sdkmath.Int          `json:"total_weight"`
	Custody     sdkmath.Int          `json:"custody"`
	Pools       []types.Pool         `json:"pools"`
	Accounts    []AccountEntry       `json:"accounts"`
}

// StakedTotal sums TotalStaked across every pool. Used as the custody
// fallback for snapshots persisted before the custody field existed.
func (s Snapshot) StakedTotal() sdkmath.Int {
	total := sdkmath.ZeroInt()
	for _, pool := range s.Pools {
		total = total.Add(pool.TotalStaked)
	}
	return total
}

// Snapshot copies the entire ledger state. Account entries are sorted
// by (pool index, address) so two snapshots of equal state compare
// equal.
func (l *Ledger) Snapshot() Snapshot {
	snap := Snapshot{
		Params:      l.params,
		TotalWeight: l.totalWeight,
		Custody:     sdkmath.ZeroInt(),
		Pools:       make([]types.Pool, 0, len(l.pools)),
	}
	for _, pool := range l.pools {
		snap.Pools = append(snap.Pools, *pool)
	}
	for idx := range l.pools {
		poolIdx := types.PoolIndex(idx)
		for addr, account := range l.accounts[poolIdx] {
			snap.Accounts = append(snap.Accounts, AccountEntry{
				PoolIndex: poolIdx,
				Address:   addr,
				Account:   *account,
			})
		}
	}
	sort.Slice(snap.Accounts, func(i, j int) bool {
		if snap.Accounts[i].PoolIndex != snap.Accounts[j].PoolIndex {
			return snap.Accounts[i].PoolIndex < snap.Accounts[j].PoolIndex
		}
		return snap.Accounts[i].Address < snap.Accounts[j].Address
	})
	return snap
}

// Restore rebuilds a ledger from a snapshot.
func Restore(snap Snapshot) *Ledger {
	l := &Ledger{
		params:      snap.Params,
		byAsset:     make(map[types.AssetID]types.PoolIndex),
		accounts:    make(map[types.PoolIndex]map[string]*types.Account),
		totalWeight: snap.TotalWeight,
	}
	for i := range snap.Pools {
		pool := snap.Pools[i]
		l.pools = append(l.pools, &pool)
		l.byAsset[pool.AssetID] = pool.PoolIndex
		l.accounts[pool.PoolIndex] = make(map[string]*types.Account)
	}
	for _, entry := range snap.Accounts {
		account := entry.Account
		l.accounts[entry.PoolIndex][entry.Address] = &account
	}
	return l
}

package farm

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/sip-protocol/farmd/internal/custody"
	"github.com/sip-protocol/farmd/internal/events"
	"github.com/sip-protocol/farmd/internal/ledger"
	"github.com/sip-protocol/farmd/internal/minter"
	"github.com/sip-protocol/farmd/internal/types"
)

type manualClock struct {
	now int64
}

func (c *manualClock) Now() int64 {
	return c.now
}

type fixture struct {
	engine *Engine
	admin  *types.AdminCap
	clock  *manualClock
	sink   *events.Recorder
	mint   *minter.Minter
	pool   types.PoolIndex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	params := types.FarmParameters{
		EmissionRatePerMs:       sdkmath.NewInt(5),
		GenesisTime:             0,
		ReferralShareBps:        500,
		RewardPoolWeightDivisor: 3,
		RewardDenom:             "usip",
		StakeDenom:              "uatom",
	}
	admin := types.NewAdminCap()
	sink := events.NewRecorder(0)
	mint := minter.New("usip", admin, events.Discard{})
	mcap, err := mint.AddMinter(admin, "farm-engine")
	require.NoError(t, err)

	clock := &manualClock{}
	engine, err := New(Config{
		Ledger:    ledger.New(params, "SIP", 0),
		Vault:     custody.NewVault("uatom"),
		Minter:    mint,
		MinterCap: mcap,
		AdminCap:  admin,
		Sink:      sink,
		Clock:     clock,
	})
	require.NoError(t, err)

	idx, err := engine.AddPool(admin, "ATOM", sdkmath.NewInt(1000))
	require.NoError(t, err)
	return &fixture{engine: engine, admin: admin, clock: clock, sink: sink, mint: mint, pool: idx}
}

func stakeCoin(amount int64) sdk.Coin {
	return sdk.NewCoin("uatom", sdkmath.NewInt(amount))
}

func TestStakeAccruesAndClaims(t *testing.T) {
	f := newFixture(t)

	reward, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)
	require.True(t, reward.Amount.IsZero())

	// Weight 1000 of total 1333, rate 5/ms, 100ms elapsed.
	f.clock.now = 100
	claimed, err := f.engine.ClaimRewards(f.pool, "alice")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(375), claimed.Amount)
	require.Equal(t, "usip", claimed.Denom)
	require.Equal(t, sdkmath.NewInt(375), f.mint.TotalMinted())

	// Immediately claiming again yields nothing.
	_, err = f.engine.ClaimRewards(f.pool, "alice")
	require.ErrorIs(t, err, ErrNoPendingRewards)
}

func TestStakeMintsPendingBeforeBalanceGrows(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)

	// The second stake must be rewarded for the first 100ms on the
	// original balance only.
	f.clock.now = 100
	reward, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(375), reward.Amount)

	account, err := f.engine.AccountInfo(f.pool, "alice")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(2000), account.Balance)
}

func TestStakeReferralSplitsPrincipal(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "bob")
	require.NoError(t, err)

	alice, err := f.engine.AccountInfo(f.pool, "alice")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(950), alice.Balance)

	bob, err := f.engine.AccountInfo(f.pool, "bob")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(50), bob.UnclaimedBonus)
	require.Equal(t, sdkmath.NewInt(50), bob.ReferralBonusAccumulated)
	require.Equal(t, uint64(1), bob.ReferralCount)

	pool, err := f.engine.PoolInfo(f.pool)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), pool.TotalStaked)
	require.Equal(t, sdkmath.NewInt(1000), f.engine.CustodyBalance())
}

func TestReferralOnlyOnFirstInteraction(t *testing.T) {
	f := newFixture(t)

	// Bob already has an account in this pool.
	_, err := f.engine.Stake(f.pool, "bob", stakeCoin(100), "")
	require.NoError(t, err)

	_, err = f.engine.Stake(f.pool, "alice", stakeCoin(1000), "bob")
	require.NoError(t, err)

	alice, err := f.engine.AccountInfo(f.pool, "alice")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), alice.Balance)

	bob, err := f.engine.AccountInfo(f.pool, "bob")
	require.NoError(t, err)
	require.True(t, bob.UnclaimedBonus.IsZero())
}

func TestSelfReferralIgnored(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "alice")
	require.NoError(t, err)

	alice, err := f.engine.AccountInfo(f.pool, "alice")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), alice.Balance)
	require.True(t, alice.UnclaimedBonus.IsZero())
}

func TestClaimReferralBonus(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "bob")
	require.NoError(t, err)

	bonus, err := f.engine.ClaimReferralBonus(f.pool, "bob")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(50), bonus.Amount)

	bob, err := f.engine.AccountInfo(f.pool, "bob")
	require.NoError(t, err)
	require.True(t, bob.UnclaimedBonus.IsZero())
	require.Equal(t, sdkmath.NewInt(50), bob.ReferralBonusAccumulated)

	_, err = f.engine.ClaimReferralBonus(f.pool, "bob")
	require.ErrorIs(t, err, ErrNoPendingRewards)
}

func TestUnstakeRoundTrip(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)

	// Same timestamp: principal comes back whole, zero reward.
	reward, principal, err := f.engine.Unstake(f.pool, "alice", sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.True(t, reward.Amount.IsZero())
	require.Equal(t, sdkmath.NewInt(1000), principal.Amount)
	require.Equal(t, "uatom", principal.Denom)

	account, err := f.engine.AccountInfo(f.pool, "alice")
	require.NoError(t, err)
	require.True(t, account.Balance.IsZero())

	pool, err := f.engine.PoolInfo(f.pool)
	require.NoError(t, err)
	require.True(t, pool.TotalStaked.IsZero())
	require.True(t, f.engine.CustodyBalance().IsZero())
}

func TestUnstakeMintsPending(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)

	f.clock.now = 100
	reward, principal, err := f.engine.Unstake(f.pool, "alice", sdkmath.NewInt(400))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(375), reward.Amount)
	require.Equal(t, sdkmath.NewInt(400), principal.Amount)
}

func TestFailedUnstakeLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)

	f.clock.now = 100
	require.NoError(t, f.engine.UpdateAllPools())
	before := f.engine.Snapshot()
	emitted := len(f.sink.Events)

	f.clock.now = 200
	_, _, err = f.engine.Unstake(f.pool, "alice", sdkmath.NewInt(1001))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	require.Equal(t, before, f.engine.Snapshot())
	require.Len(t, f.sink.Events, emitted)
}

func TestRestoredFarmPaysWithdrawals(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)
	f.clock.now = 100

	// Simulate a restart: rebuild the ledger and the vault from the
	// snapshot, wire a fresh engine around them.
	snap := f.engine.Snapshot()
	require.Equal(t, sdkmath.NewInt(1000), snap.Custody)

	admin := types.NewAdminCap()
	mint := minter.New("usip", admin, events.Discard{})
	mcap, err := mint.AddMinter(admin, "farm-engine")
	require.NoError(t, err)
	clock := &manualClock{now: 100}
	engine, err := New(Config{
		Ledger:    ledger.Restore(snap),
		Vault:     custody.RestoreVault("uatom", snap.Custody),
		Minter:    mint,
		MinterCap: mcap,
		AdminCap:  admin,
		Clock:     clock,
	})
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), engine.CustodyBalance())

	// Principal staked before the restart withdraws, rewards included.
	reward, principal, err := engine.Unstake(f.pool, "alice", sdkmath.NewInt(400))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(375), reward.Amount)
	require.Equal(t, sdkmath.NewInt(400), principal.Amount)
	require.Equal(t, sdkmath.NewInt(600), engine.CustodyBalance())
}

func TestConservationWithoutReferrals(t *testing.T) {
	f := newFixture(t)

	moves := []struct {
		addr    string
		stake   int64
		unstake int64
	}{
		{"alice", 1000, 0},
		{"bob", 400, 0},
		{"alice", 0, 250},
		{"carol", 90, 0},
		{"bob", 0, 400},
		{"alice", 700, 0},
	}
	for i, move := range moves {
		f.clock.now = int64(i * 50)
		if move.stake > 0 {
			_, err := f.engine.Stake(f.pool, move.addr, stakeCoin(move.stake), "")
			require.NoError(t, err)
		}
		if move.unstake > 0 {
			_, _, err := f.engine.Unstake(f.pool, move.addr, sdkmath.NewInt(move.unstake))
			require.NoError(t, err)
		}
	}

	pool, err := f.engine.PoolInfo(f.pool)
	require.NoError(t, err)
	sum := sdkmath.ZeroInt()
	for _, entry := range f.engine.Snapshot().Accounts {
		if entry.PoolIndex == f.pool {
			sum = sum.Add(entry.Account.Balance)
		}
	}
	require.Equal(t, pool.TotalStaked, sum)
	require.Equal(t, pool.TotalStaked, f.engine.CustodyBalance())
}

func TestPendingNeverNegative(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)
	for _, now := range []int64{13, 13, 77, 150} {
		f.clock.now = now
		require.NoError(t, f.engine.UpdatePool(f.pool))
		require.False(t, f.engine.Pending(f.pool, "alice").IsNegative())
		_, err := f.engine.Stake(f.pool, "alice", stakeCoin(10), "")
		require.NoError(t, err)
		require.False(t, f.engine.Pending(f.pool, "alice").IsNegative())
	}
}

func TestStakeZeroAmount(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(0), "")
	require.ErrorIs(t, err, ErrZeroStake)
}

func TestStakeWrongDenom(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Stake(f.pool, "alice", sdk.NewCoin("uosmo", sdkmath.NewInt(10)), "")
	require.ErrorIs(t, err, ErrDenomMismatch)
}

func TestAdminGating(t *testing.T) {
	f := newFixture(t)
	intruder := types.NewAdminCap()

	_, err := f.engine.AddPool(intruder, "OSMO", sdkmath.NewInt(100))
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)
	require.ErrorIs(t, f.engine.SetAllocation(intruder, f.pool, sdkmath.NewInt(1)), ErrUnauthorizedAdmin)
	require.ErrorIs(t, f.engine.SetEmissionRate(intruder, sdkmath.NewInt(1)), ErrUnauthorizedAdmin)
	_, err = f.engine.AdminWithdrawCustody(intruder, sdkmath.NewInt(1))
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)
	_, err = f.engine.TransferAdminCap(intruder)
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)
}

func TestTransferAdminCapRotates(t *testing.T) {
	f := newFixture(t)

	next, err := f.engine.TransferAdminCap(f.admin)
	require.NoError(t, err)

	// The old capability is dead, the new one works.
	_, err = f.engine.AddPool(f.admin, "OSMO", sdkmath.NewInt(100))
	require.ErrorIs(t, err, ErrUnauthorizedAdmin)
	_, err = f.engine.AddPool(next, "OSMO", sdkmath.NewInt(100))
	require.NoError(t, err)
}

func TestSetEmissionRateSettlesFirst(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)

	// The first 100ms accrue at rate 5, the next 100 at rate 10.
	f.clock.now = 100
	require.NoError(t, f.engine.SetEmissionRate(f.admin, sdkmath.NewInt(10)))
	f.clock.now = 200

	claimed, err := f.engine.ClaimRewards(f.pool, "alice")
	require.NoError(t, err)
	// 375 at the old rate plus 100*10*1000/1333 = 750 at the new rate.
	require.Equal(t, sdkmath.NewInt(1125), claimed.Amount)
}

func TestOverviewBatchedGetter(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)

	overview, err := f.engine.Overview("alice", []types.PoolIndex{types.RewardPoolIndex, f.pool})
	require.NoError(t, err)
	require.Len(t, overview, 2)
	require.Equal(t, sdkmath.NewInt(333), overview[0].AllocationWeight)
	require.True(t, overview[0].AccountBalance.IsZero())
	require.Equal(t, sdkmath.NewInt(1000), overview[1].TotalStaked)
	require.Equal(t, sdkmath.NewInt(1000), overview[1].AccountBalance)

	_, err = f.engine.Overview("alice", make([]types.PoolIndex, 6))
	require.ErrorIs(t, err, ErrTooManyPools)
}

func TestEventsEmittedWithTraceIDs(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Stake(f.pool, "alice", stakeCoin(1000), "")
	require.NoError(t, err)
	f.clock.now = 100
	_, _, err = f.engine.Unstake(f.pool, "alice", sdkmath.NewInt(1000))
	require.NoError(t, err)

	var kinds []types.EventKind
	for _, event := range f.sink.Events {
		require.NotEmpty(t, event.TraceID)
		kinds = append(kinds, event.Kind)
	}
	require.Equal(t, []types.EventKind{types.EventAddPool, types.EventStake, types.EventUnstake}, kinds)
}

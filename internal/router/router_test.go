package router

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/sip-protocol/farmd/internal/events"
	"github.com/sip-protocol/farmd/internal/simulations"
	"github.com/sip-protocol/farmd/internal/types"
)

// fakeExecutor scripts pool existence and quotes, and counts the
// expensive calls so tests can assert on short-circuiting.
type fakeExecutor struct {
	deployed map[types.CurveKind]bool

	volatileOut sdkmath.Int
	stableOut   sdkmath.Int

	reserveReads   int
	volatileQuotes int
	stableQuotes   int

	sellFirstCalls  int
	sellSecondCalls int
}

func (f *fakeExecutor) PoolExists(_ types.Pair, kind types.CurveKind) bool {
	return f.deployed[kind]
}

func (f *fakeExecutor) Reserves(types.Pair, types.CurveKind) (sdkmath.Int, sdkmath.Int, error) {
	f.reserveReads++
	return sdkmath.NewInt(1000), sdkmath.NewInt(1000), nil
}

func (f *fakeExecutor) QuoteVolatile(_, _, _ sdkmath.Int) (sdkmath.Int, error) {
	f.volatileQuotes++
	return f.volatileOut, nil
}

func (f *fakeExecutor) QuoteStable(_, _, _ sdkmath.Int) (sdkmath.Int, error) {
	f.stableQuotes++
	return f.stableOut, nil
}

func (f *fakeExecutor) SwapSellFirst(pair types.Pair, _ types.CurveKind, coinIn sdk.Coin, _ sdkmath.Int) (sdk.Coin, error) {
	f.sellFirstCalls++
	return sdk.NewCoin(string(pair.Second), coinIn.Amount), nil
}

func (f *fakeExecutor) SwapSellSecond(pair types.Pair, _ types.CurveKind, coinIn sdk.Coin, _ sdkmath.Int) (sdk.Coin, error) {
	f.sellSecondCalls++
	return sdk.NewCoin(string(pair.First), coinIn.Amount), nil
}

func newFakeRouter(t *testing.T, fake *fakeExecutor) *Router {
	t.Helper()
	r, err := New(Config{Executor: fake})
	require.NoError(t, err)
	return r
}

var testPair = types.Pair{First: "ATOM", Second: "USDC"}

func TestPreferVolatileOnlyVolatileDeployed(t *testing.T) {
	fake := &fakeExecutor{deployed: map[types.CurveKind]bool{types.CurveVolatile: true}}
	r := newFakeRouter(t, fake)

	volatile, err := r.PreferVolatile(testPair, sdkmath.NewInt(100), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.True(t, volatile)
	require.Zero(t, fake.volatileQuotes+fake.stableQuotes+fake.reserveReads)
}

func TestPreferVolatileOnlyStableSkipsPricing(t *testing.T) {
	fake := &fakeExecutor{deployed: map[types.CurveKind]bool{types.CurveStable: true}}
	r := newFakeRouter(t, fake)

	volatile, err := r.PreferVolatile(testPair, sdkmath.NewInt(100), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.False(t, volatile)
	// The existence check decided alone: no pricing ran at all.
	require.Zero(t, fake.volatileQuotes+fake.stableQuotes+fake.reserveReads)
}

func TestPreferVolatileNeitherDeployed(t *testing.T) {
	fake := &fakeExecutor{deployed: map[types.CurveKind]bool{}}
	r := newFakeRouter(t, fake)

	_, err := r.PreferVolatile(testPair, sdkmath.NewInt(100), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrNoPoolDeployed)
}

func TestPreferVolatileComparesQuotes(t *testing.T) {
	fake := &fakeExecutor{
		deployed:    map[types.CurveKind]bool{types.CurveVolatile: true, types.CurveStable: true},
		volatileOut: sdkmath.NewInt(90),
		stableOut:   sdkmath.NewInt(99),
	}
	r := newFakeRouter(t, fake)

	volatile, err := r.PreferVolatile(testPair, sdkmath.NewInt(100), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.False(t, volatile)
	require.Equal(t, 1, fake.volatileQuotes)
	require.Equal(t, 1, fake.stableQuotes)
}

func TestPreferVolatileTieFavorsVolatile(t *testing.T) {
	fake := &fakeExecutor{
		deployed:    map[types.CurveKind]bool{types.CurveVolatile: true, types.CurveStable: true},
		volatileOut: sdkmath.NewInt(99),
		stableOut:   sdkmath.NewInt(99),
	}
	r := newFakeRouter(t, fake)

	volatile, err := r.PreferVolatile(testPair, sdkmath.NewInt(100), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.True(t, volatile)
}

func TestPreferVolatileAmbiguousDirection(t *testing.T) {
	fake := &fakeExecutor{deployed: map[types.CurveKind]bool{types.CurveVolatile: true}}
	r := newFakeRouter(t, fake)

	_, err := r.PreferVolatile(testPair, sdkmath.NewInt(1), sdkmath.NewInt(1))
	require.ErrorIs(t, err, ErrAmbiguousQuote)
	_, err = r.PreferVolatile(testPair, sdkmath.ZeroInt(), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrAmbiguousQuote)
}

func TestSwapCanonicalSideSelection(t *testing.T) {
	fake := &fakeExecutor{deployed: map[types.CurveKind]bool{types.CurveVolatile: true}}
	r := newFakeRouter(t, fake)

	// Selling ATOM (first under lexical order): sell-first path.
	_, err := r.Swap("ATOM", "USDC", sdk.NewCoin("ATOM", sdkmath.NewInt(10)), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, 1, fake.sellFirstCalls)
	require.Equal(t, 0, fake.sellSecondCalls)

	// Selling USDC into the same pair: sell-second path.
	_, err = r.Swap("USDC", "ATOM", sdk.NewCoin("USDC", sdkmath.NewInt(10)), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, 1, fake.sellSecondCalls)
}

func TestSwapZeroValue(t *testing.T) {
	fake := &fakeExecutor{deployed: map[types.CurveKind]bool{types.CurveVolatile: true}}
	r := newFakeRouter(t, fake)

	zeroCoin := sdk.NewCoin("ATOM", sdkmath.ZeroInt())
	_, err := r.Swap("ATOM", "USDC", zeroCoin, sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrZeroValueSwap)
	_, err = r.OneHop("ATOM", "USDC", "OSMO", zeroCoin, sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrZeroValueSwap)
	_, err = r.TwoHop("ATOM", "USDC", "OSMO", "JUNO", zeroCoin, sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrZeroValueSwap)
}

func newSimRouter(t *testing.T) (*Router, *simulations.MemoryExecutor, *events.Recorder) {
	t.Helper()
	executor := simulations.NewMemoryExecutor()
	sink := events.NewRecorder(0)
	r, err := New(Config{Executor: executor, Sink: sink})
	require.NoError(t, err)
	return r, executor, sink
}

func TestOneHopThreadsOutput(t *testing.T) {
	r, executor, sink := newSimRouter(t)
	executor.DeployPool(types.Pair{First: "ATOM", Second: "USDC"}, types.CurveVolatile,
		sdkmath.NewInt(1000), sdkmath.NewInt(1000), 0)
	executor.DeployPool(types.Pair{First: "OSMO", Second: "USDC"}, types.CurveVolatile,
		sdkmath.NewInt(1000), sdkmath.NewInt(1000), 0)

	out, err := r.OneHop("ATOM", "USDC", "OSMO", sdk.NewCoin("ATOM", sdkmath.NewInt(100)), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, "OSMO", out.Denom)
	// 100 ATOM -> 90 USDC -> 82 OSMO on two 1000/1000 pools.
	require.Equal(t, sdkmath.NewInt(82), out.Amount)

	require.Len(t, sink.Events, 1)
	require.Equal(t, types.EventSwapRoute, sink.Events[0].Kind)
	require.Equal(t, []types.AssetID{"ATOM", "USDC", "OSMO"}, sink.Events[0].Route)
	require.Equal(t, []types.CurveKind{types.CurveVolatile, types.CurveVolatile}, sink.Events[0].Curves)
}

func TestOneHopMinOutOnFinalLegOnly(t *testing.T) {
	r, executor, _ := newSimRouter(t)
	executor.DeployPool(types.Pair{First: "ATOM", Second: "USDC"}, types.CurveVolatile,
		sdkmath.NewInt(1000), sdkmath.NewInt(1000), 0)
	executor.DeployPool(types.Pair{First: "OSMO", Second: "USDC"}, types.CurveVolatile,
		sdkmath.NewInt(1000), sdkmath.NewInt(1000), 0)

	// A bound above the first leg's output (90) but below the final
	// output would have aborted the route if applied per leg.
	out, err := r.OneHop("ATOM", "USDC", "OSMO", sdk.NewCoin("ATOM", sdkmath.NewInt(100)), sdkmath.NewInt(82))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(82), out.Amount)

	_, err = r.OneHop("ATOM", "USDC", "OSMO", sdk.NewCoin("ATOM", sdkmath.NewInt(100)), sdkmath.NewInt(83))
	require.ErrorIs(t, err, simulations.ErrSlippageExceeded)
}

func TestTwoHopThreadsAllLegs(t *testing.T) {
	r, executor, sink := newSimRouter(t)
	for _, pair := range []types.Pair{
		{First: "ATOM", Second: "USDC"},
		{First: "OSMO", Second: "USDC"},
		{First: "JUNO", Second: "OSMO"},
	} {
		executor.DeployPool(pair, types.CurveVolatile, sdkmath.NewInt(100_000), sdkmath.NewInt(100_000), 0)
	}

	out, err := r.TwoHop("ATOM", "USDC", "OSMO", "JUNO", sdk.NewCoin("ATOM", sdkmath.NewInt(1000)), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, "JUNO", out.Denom)
	require.True(t, out.Amount.IsPositive())

	// One event describes the whole route, one curve per leg.
	require.Len(t, sink.Events, 1)
	require.Equal(t, []types.AssetID{"ATOM", "USDC", "OSMO", "JUNO"}, sink.Events[0].Route)
	require.Equal(t,
		[]types.CurveKind{types.CurveVolatile, types.CurveVolatile, types.CurveVolatile},
		sink.Events[0].Curves)
	require.Equal(t, sdkmath.NewInt(1000), sink.Events[0].AmountIn)
	require.Equal(t, out.Amount, sink.Events[0].AmountOut)
}

func TestStablePreferredAtBalancedReserves(t *testing.T) {
	r, executor, _ := newSimRouter(t)
	pair := types.Pair{First: "DAI", Second: "USDT"}
	executor.DeployPool(pair, types.CurveVolatile, sdkmath.NewInt(1000), sdkmath.NewInt(1000), 0)
	executor.DeployPool(pair, types.CurveStable, sdkmath.NewInt(1000), sdkmath.NewInt(1000), 0)

	// The stable curve is flatter around balance: 99 out vs 90.
	volatile, err := r.PreferVolatile(pair, sdkmath.NewInt(100), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.False(t, volatile)

	out, err := r.Swap("DAI", "USDT", sdk.NewCoin("DAI", sdkmath.NewInt(100)), sdkmath.NewInt(95))
	require.NoError(t, err)
	require.Equal(t, "USDT", out.Denom)
	require.True(t, out.Amount.GTE(sdkmath.NewInt(95)))
}

func TestOptimalDeposit(t *testing.T) {
	// Pool at 2:1; excess Y refunds.
	plan, err := OptimalDeposit(sdkmath.NewInt(100), sdkmath.NewInt(80),
		sdkmath.NewInt(2000), sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), plan.DepositX)
	require.Equal(t, sdkmath.NewInt(50), plan.DepositY)
	require.True(t, plan.RefundX.IsZero())
	require.Equal(t, sdkmath.NewInt(30), plan.RefundY)

	// Excess X refunds.
	plan, err = OptimalDeposit(sdkmath.NewInt(100), sdkmath.NewInt(20),
		sdkmath.NewInt(2000), sdkmath.NewInt(1000))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(40), plan.DepositX)
	require.Equal(t, sdkmath.NewInt(20), plan.DepositY)
	require.Equal(t, sdkmath.NewInt(60), plan.RefundX)
	require.True(t, plan.RefundY.IsZero())

	// Empty pool takes the desired amounts as the initial ratio.
	plan, err = OptimalDeposit(sdkmath.NewInt(7), sdkmath.NewInt(11),
		sdkmath.ZeroInt(), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(7), plan.DepositX)
	require.Equal(t, sdkmath.NewInt(11), plan.DepositY)

	_, err = OptimalDeposit(sdkmath.ZeroInt(), sdkmath.ZeroInt(),
		sdkmath.NewInt(1), sdkmath.NewInt(1))
	require.ErrorIs(t, err, ErrEmptyDeposit)
}

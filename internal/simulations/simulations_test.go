package simulations

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/stretchr/testify/require"

	"github.com/sip-protocol/farmd/internal/types"
)

var pair = types.Pair{First: "ATOM", Second: "USDC"}

func TestQuoteVolatileConstantProduct(t *testing.T) {
	m := NewMemoryExecutor()
	out, err := m.QuoteVolatile(sdkmath.NewInt(1000), sdkmath.NewInt(1000), sdkmath.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(90), out)

	_, err = m.QuoteVolatile(sdkmath.ZeroInt(), sdkmath.NewInt(1000), sdkmath.NewInt(100))
	require.ErrorIs(t, err, ErrDrainedPool)
}

func TestQuoteStableFlatterThanVolatile(t *testing.T) {
	m := NewMemoryExecutor()
	reserveIn, reserveOut := sdkmath.NewInt(1000), sdkmath.NewInt(1000)
	amountIn := sdkmath.NewInt(100)

	volatile, err := m.QuoteVolatile(reserveIn, reserveOut, amountIn)
	require.NoError(t, err)
	stable, err := m.QuoteStable(reserveIn, reserveOut, amountIn)
	require.NoError(t, err)
	require.True(t, stable.GT(volatile), "stable quote %s should beat volatile %s near balance", stable, volatile)
	require.True(t, stable.LTE(amountIn), "stable quote %s cannot beat a 1:1 trade at equal reserves", stable)
}

func TestSwapAppliesFeeAndMovesReserves(t *testing.T) {
	m := NewMemoryExecutor()
	m.DeployPool(pair, types.CurveVolatile, sdkmath.NewInt(1000), sdkmath.NewInt(1000), 100)

	// 1% input fee: effective in is 99, out = 1000*99/1099 = 90.
	out, err := m.SwapSellFirst(pair, types.CurveVolatile, sdk.NewCoin("ATOM", sdkmath.NewInt(100)), sdkmath.ZeroInt())
	require.NoError(t, err)
	require.Equal(t, "USDC", out.Denom)
	require.Equal(t, sdkmath.NewInt(90), out.Amount)

	// Reserves absorb the full input, including the fee.
	rx, ry, err := m.Reserves(pair, types.CurveVolatile)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1100), rx)
	require.Equal(t, sdkmath.NewInt(910), ry)
}

func TestSwapSlippageBound(t *testing.T) {
	m := NewMemoryExecutor()
	m.DeployPool(pair, types.CurveVolatile, sdkmath.NewInt(1000), sdkmath.NewInt(1000), 0)

	_, err := m.SwapSellFirst(pair, types.CurveVolatile, sdk.NewCoin("ATOM", sdkmath.NewInt(100)), sdkmath.NewInt(91))
	require.ErrorIs(t, err, ErrSlippageExceeded)

	// The failed swap left the reserves untouched.
	rx, ry, err := m.Reserves(pair, types.CurveVolatile)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(1000), rx)
	require.Equal(t, sdkmath.NewInt(1000), ry)
}

func TestSwapUndeployedPair(t *testing.T) {
	m := NewMemoryExecutor()
	_, err := m.SwapSellSecond(pair, types.CurveStable, sdk.NewCoin("USDC", sdkmath.NewInt(1)), sdkmath.ZeroInt())
	require.ErrorIs(t, err, ErrPairNotDeployed)
}

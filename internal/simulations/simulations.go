/*

This file contains an in-memory AMM used as the router's pool
executor in tests and local development: constant-product pricing for
volatile pairs and a solidly-style x3y+y3x curve for stable pairs.

The router never depends on this math; it only consumes the
PoolExecutor interface.

*/

package simulations

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sip-protocol/farmd/internal/types"
)

var (
	ErrPairNotDeployed   = errors.New("pair is not deployed on the requested curve")
	ErrSlippageExceeded  = errors.New("swap output is below the minimum requested")
	ErrDrainedPool       = errors.New("swap would drain the pool")
	ErrNonConvergingSwap = errors.New("stable swap iteration did not converge")
)

type poolKey struct {
	pair types.Pair
	kind types.CurveKind
}

type poolState struct {
	reserveX sdkmath.Int
	reserveY sdkmath.Int
	feeBps   int64
}

// MemoryExecutor implements router.PoolExecutor over in-memory pools.
// Not safe for concurrent use.
type MemoryExecutor struct {
	pools map[poolKey]*poolState
}

// NewMemoryExecutor creates an executor with no pools deployed.
func NewMemoryExecutor() *MemoryExecutor {
	return &MemoryExecutor{pools: make(map[poolKey]*poolState)}
}

// DeployPool registers a pair on one curve with initial reserves and a
// swap fee in basis points on the input.
func (m *MemoryExecutor) DeployPool(pair types.Pair, kind types.CurveKind, reserveX, reserveY sdkmath.Int, feeBps int64) {
	m.pools[poolKey{pair: pair, kind: kind}] = &poolState{
		reserveX: reserveX,
		reserveY: reserveY,
		feeBps:   feeBps,
	}
}

// PoolExists reports whether the pair trades on the given curve.
func (m *MemoryExecutor) PoolExists(pair types.Pair, kind types.CurveKind) bool {
	_, ok := m.pools[poolKey{pair: pair, kind: kind}]
	return ok
}

// Reserves returns the pair's reserves in canonical order.
func (m *MemoryExecutor) Reserves(pair types.Pair, kind types.CurveKind) (sdkmath.Int, sdkmath.Int, error) {
	pool, ok := m.pools[poolKey{pair: pair, kind: kind}]
	if !ok {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), fmt.Errorf("%w: %s/%s %s", ErrPairNotDeployed, pair.First, pair.Second, kind)
	}
	return pool.reserveX, pool.reserveY, nil
}

// QuoteVolatile prices amountIn on the constant-product curve. Fees
// apply at execution time, per pool.
func (m *MemoryExecutor) QuoteVolatile(reserveIn, reserveOut, amountIn sdkmath.Int) (sdkmath.Int, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return sdkmath.ZeroInt(), ErrDrainedPool
	}
	return reserveOut.Mul(amountIn).Quo(reserveIn.Add(amountIn)), nil
}

// QuoteStable prices amountIn on the x3y+y3x invariant.
func (m *MemoryExecutor) QuoteStable(reserveIn, reserveOut, amountIn sdkmath.Int) (sdkmath.Int, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return sdkmath.ZeroInt(), ErrDrainedPool
	}
	k := stableInvariant(reserveIn, reserveOut)
	newOut, err := stableY(reserveIn.Add(amountIn), k, reserveOut)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	out := reserveOut.Sub(newOut)
	if out.IsNegative() {
		out = sdkmath.ZeroInt()
	}
	return out, nil
}

// SwapSellFirst sells the pair's first asset into the pool.
func (m *MemoryExecutor) SwapSellFirst(pair types.Pair, kind types.CurveKind, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, error) {
	return m.swap(pair, kind, coinIn, minOut, true)
}

// SwapSellSecond sells the pair's second asset into the pool.
func (m *MemoryExecutor) SwapSellSecond(pair types.Pair, kind types.CurveKind, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, error) {
	return m.swap(pair, kind, coinIn, minOut, false)
}

func (m *MemoryExecutor) swap(pair types.Pair, kind types.CurveKind, coinIn sdk.Coin, minOut sdkmath.Int, sellFirst bool) (sdk.Coin, error) {
	pool, ok := m.pools[poolKey{pair: pair, kind: kind}]
	if !ok {
		return sdk.Coin{}, fmt.Errorf("%w: %s/%s %s", ErrPairNotDeployed, pair.First, pair.Second, kind)
	}

	amountIn := coinIn.Amount.Mul(sdkmath.NewInt(10_000 - pool.feeBps)).Quo(sdkmath.NewInt(10_000))
	reserveIn, reserveOut := pool.reserveX, pool.reserveY
	outDenom := pair.Second
	if !sellFirst {
		reserveIn, reserveOut = pool.reserveY, pool.reserveX
		outDenom = pair.First
	}

	var out sdkmath.Int
	var err error
	if kind == types.CurveStable {
		out, err = m.QuoteStable(reserveIn, reserveOut, amountIn)
	} else {
		out, err = m.QuoteVolatile(reserveIn, reserveOut, amountIn)
	}
	if err != nil {
		return sdk.Coin{}, err
	}
	if out.LT(minOut) {
		return sdk.Coin{}, fmt.Errorf("%w: got %s, want at least %s", ErrSlippageExceeded, out, minOut)
	}
	if out.GTE(reserveOut) {
		return sdk.Coin{}, ErrDrainedPool
	}

	if sellFirst {
		pool.reserveX = pool.reserveX.Add(coinIn.Amount)
		pool.reserveY = pool.reserveY.Sub(out)
	} else {
		pool.reserveY = pool.reserveY.Add(coinIn.Amount)
		pool.reserveX = pool.reserveX.Sub(out)
	}
	return sdk.NewCoin(string(outDenom), out), nil
}

// stableInvariant is k(x, y) = x*y*(x^2 + y^2).
func stableInvariant(x, y sdkmath.Int) sdkmath.Int {
	return x.Mul(y).Mul(x.Mul(x).Add(y.Mul(y)))
}

// stableY solves k(x0, y) = k for y by Newton iteration, starting
// from the current opposite reserve.
func stableY(x0, k, yGuess sdkmath.Int) (sdkmath.Int, error) {
	one := sdkmath.OneInt()
	y := yGuess
	for i := 0; i < 255; i++ {
		current := stableInvariant(x0, y)
		// dk/dy = x0*(x0^2 + 3y^2)
		derivative := x0.Mul(x0.Mul(x0).Add(sdkmath.NewInt(3).Mul(y).Mul(y)))
		if derivative.IsZero() {
			return sdkmath.ZeroInt(), ErrNonConvergingSwap
		}
		var next sdkmath.Int
		if current.LT(k) {
			next = y.Add(k.Sub(current).Quo(derivative))
		} else {
			next = y.Sub(current.Sub(k).Quo(derivative))
		}
		if next.Sub(y).Abs().LTE(one) {
			return next, nil
		}
		y = next
	}
	return sdkmath.ZeroInt(), ErrNonConvergingSwap
}

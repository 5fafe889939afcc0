/*

This file contains the quote comparator: given the two candidate curve
kinds for a pair, decide which one executes the requested direction
better. Existence checks short-circuit before the expensive stable
pricing ever runs.

*/

package router

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/sip-protocol/farmd/internal/types"
)

var (
	ErrNoPoolDeployed   = errors.New("no pool deployed for pair")
	ErrAmbiguousQuote   = errors.New("exactly one of the input amounts must be nonzero")
	ErrZeroValueSwap    = errors.New("swap input amount is zero")
	ErrExecutorRequired = errors.New("pool executor cannot be nil")
)

// PreferVolatile decides which curve a swap on pair should take.
// Exactly one of inFirst/inSecond is nonzero; the nonzero side marks
// which asset is being sold. Ties favor the volatile pool, which is
// the cheaper one to execute.
func (r *Router) PreferVolatile(pair types.Pair, inFirst, inSecond sdkmath.Int) (bool, error) {
	if inFirst.IsZero() == inSecond.IsZero() {
		return false, ErrAmbiguousQuote
	}

	hasVolatile := r.executor.PoolExists(pair, types.CurveVolatile)
	hasStable := r.executor.PoolExists(pair, types.CurveStable)
	switch {
	case hasVolatile && !hasStable:
		return true, nil
	case !hasVolatile && hasStable:
		return false, nil
	case !hasVolatile && !hasStable:
		return false, fmt.Errorf("%w: %s/%s", ErrNoPoolDeployed, pair.First, pair.Second)
	}

	volatileOut, err := r.quoteOn(pair, types.CurveVolatile, inFirst, inSecond)
	if err != nil {
		return false, err
	}
	stableOut, err := r.quoteOn(pair, types.CurveStable, inFirst, inSecond)
	if err != nil {
		return false, err
	}
	return volatileOut.GTE(stableOut), nil
}

func (r *Router) quoteOn(pair types.Pair, kind types.CurveKind, inFirst, inSecond sdkmath.Int) (sdkmath.Int, error) {
	x, y, err := r.executor.Reserves(pair, kind)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	reserveIn, reserveOut, amountIn := x, y, inFirst
	if inFirst.IsZero() {
		reserveIn, reserveOut, amountIn = y, x, inSecond
	}
	if kind == types.CurveStable {
		return r.executor.QuoteStable(reserveIn, reserveOut, amountIn)
	}
	return r.executor.QuoteVolatile(reserveIn, reserveOut, amountIn)
}

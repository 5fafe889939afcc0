/*

This file contains the liquidity-provision helper: given desired
amounts of both assets and the pool's current reserves, compute the
ratio-preserving amounts to actually deposit and refund the excess of
whichever side overshoots.

*/

package router

import (
	"errors"

	sdkmath "cosmossdk.io/math"
)

var ErrEmptyDeposit = errors.New("both desired deposit amounts are zero")

// DepositPlan is the outcome of OptimalDeposit: what goes into the
// pool and what returns to the caller.
type DepositPlan struct {
	DepositX sdkmath.Int
	DepositY sdkmath.Int
	RefundX  sdkmath.Int
	RefundY  sdkmath.Int
}

// quoteRatio prices amountA against the pool ratio: amountA * reserveB
// / reserveA, truncating.
func quoteRatio(amountA, reserveA, reserveB sdkmath.Int) sdkmath.Int {
	return amountA.Mul(reserveB).Quo(reserveA)
}

// OptimalDeposit computes the largest ratio-preserving deposit within
// the desired amounts. An empty pool accepts the desired amounts
// as-is; they set the initial ratio.
func OptimalDeposit(desiredX, desiredY, reserveX, reserveY sdkmath.Int) (DepositPlan, error) {
	if desiredX.IsZero() && desiredY.IsZero() {
		return DepositPlan{}, ErrEmptyDeposit
	}
	if reserveX.IsZero() || reserveY.IsZero() {
		return DepositPlan{
			DepositX: desiredX,
			DepositY: desiredY,
			RefundX:  sdkmath.ZeroInt(),
			RefundY:  sdkmath.ZeroInt(),
		}, nil
	}

	neededY := quoteRatio(desiredX, reserveX, reserveY)
	if neededY.LTE(desiredY) {
		return DepositPlan{
			DepositX: desiredX,
			DepositY: neededY,
			RefundX:  sdkmath.ZeroInt(),
			RefundY:  desiredY.Sub(neededY),
		}, nil
	}
	neededX := quoteRatio(desiredY, reserveY, reserveX)
	return DepositPlan{
		DepositX: neededX,
		DepositY: desiredY,
		RefundX:  desiredX.Sub(neededX),
		RefundY:  sdkmath.ZeroInt(),
	}, nil
}

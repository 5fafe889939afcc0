/*
This file contains the fixed-point arithmetic behind reward-per-share
accounting. Amounts are sdkmath.Int; per-share accumulators are
sdkmath.LegacyDec (18-decimal fixed point).

Every pool uses the same fixed-point division for its per-share delta.
*/

package rewardmath

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
)

var (
	ErrNegativeElapsed = errors.New("elapsed time is negative")
	ErrZeroTotalWeight = errors.New("total allocation weight is zero")
	ErrZeroTotalStaked = errors.New("total staked is zero")
)

// BpsDenominator is the basis-point scale used for referral shares.
const BpsDenominator = 10_000

// PoolReward computes the reward emitted to one pool over an elapsed
// window: elapsed * ratePerMs * weight / totalWeight, truncating.
func PoolReward(elapsedMs int64, ratePerMs, weight, totalWeight sdkmath.Int) (sdkmath.Int, error) {
	if elapsedMs < 0 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d", ErrNegativeElapsed, elapsedMs)
	}
	if totalWeight.IsZero() {
		return sdkmath.ZeroInt(), ErrZeroTotalWeight
	}
	reward := sdkmath.NewInt(elapsedMs).Mul(ratePerMs).Mul(weight).Quo(totalWeight)
	return reward, nil
}

// PerShareDelta computes the fixed-point reward-per-share increase for
// a reward distributed over totalStaked units.
func PerShareDelta(reward, totalStaked sdkmath.Int) (sdkmath.LegacyDec, error) {
	if totalStaked.IsZero() {
		return sdkmath.LegacyZeroDec(), ErrZeroTotalStaked
	}
	return sdkmath.LegacyNewDecFromInt(reward).QuoInt(totalStaked), nil
}

// AccruedOnBalance scales a per-share accumulator by a balance,
// truncating to integer reward units.
func AccruedOnBalance(balance sdkmath.Int, perShare sdkmath.LegacyDec) sdkmath.LegacyDec {
	return perShare.MulInt(balance)
}

// PendingReward is the integer reward owed to a balance given the
// pool's accumulator and the account's paid checkpoint. Truncates.
func PendingReward(balance sdkmath.Int, perShare, rewardsPaid sdkmath.LegacyDec) sdkmath.Int {
	accrued := AccruedOnBalance(balance, perShare)
	if accrued.LTE(rewardsPaid) {
		return sdkmath.ZeroInt()
	}
	return accrued.Sub(rewardsPaid).TruncateInt()
}

// BpsShare returns amount * bps / 10000, truncating.
func BpsShare(amount sdkmath.Int, bps int64) sdkmath.Int {
	return amount.Mul(sdkmath.NewInt(bps)).Quo(sdkmath.NewInt(BpsDenominator))
}

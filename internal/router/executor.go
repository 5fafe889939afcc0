/*

This file contains the external collaborator surface the router
composes over: the AMM pool executor and the canonical asset ordering.

The executor owns the pricing curves and slippage enforcement; the
router only decides which curve to use per hop and which side of the
pool is being sold.

*/

package router

import (
	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/sip-protocol/farmd/internal/types"
)

// PoolExecutor is the AMM the router delegates hops to.
type PoolExecutor interface {
	// PoolExists is cheap and must be consulted before any pricing.
	PoolExists(pair types.Pair, kind types.CurveKind) bool

	// Reserves returns the pair's current reserves in canonical order.
	Reserves(pair types.Pair, kind types.CurveKind) (x, y sdkmath.Int, err error)

	// QuoteVolatile prices amountIn on the constant-product curve.
	QuoteVolatile(reserveIn, reserveOut, amountIn sdkmath.Int) (sdkmath.Int, error)

	// QuoteStable prices amountIn on the stable curve. Expensive
	// relative to the volatile quote.
	QuoteStable(reserveIn, reserveOut, amountIn sdkmath.Int) (sdkmath.Int, error)

	// SwapSellFirst sells the pair's first asset; minOut is the
	// executor-enforced slippage bound.
	SwapSellFirst(pair types.Pair, kind types.CurveKind, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, error)

	// SwapSellSecond sells the pair's second asset.
	SwapSellSecond(pair types.Pair, kind types.CurveKind, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, error)
}

// AssetOrder is the externally supplied total order over asset
// identities. It reports whether a sorts strictly before b.
type AssetOrder func(a, b types.AssetID) bool

// LexicalAssetOrder orders assets by their identity strings.
func LexicalAssetOrder(a, b types.AssetID) bool {
	return a < b
}

// CanonicalPair sorts (x, y) under the given order. sellFirst reports
// whether x (the asset being sold) landed on the pair's first leg.
func CanonicalPair(order AssetOrder, x, y types.AssetID) (pair types.Pair, sellFirst bool) {
	if order(x, y) {
		return types.Pair{First: x, Second: y}, true
	}
	return types.Pair{First: y, Second: x}, false
}

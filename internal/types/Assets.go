/*

This file contains asset identity and AMM pair types consumed by the
router. Canonical ordering over asset identities is supplied externally
(see router.AssetOrder); a Pair always stores its legs in that order.

*/

package types

// AssetID identifies one tradable asset (a coin denom).
type AssetID string

// CurveKind selects which AMM pricing curve a pair trades on.
type CurveKind string

const (
	// CurveVolatile is the constant-product curve.
	CurveVolatile CurveKind = "volatile"
	// CurveStable is the stablecoin-style curve.
	CurveStable CurveKind = "stable"
)

// Pair is a canonically ordered asset pair. First < Second under the
// externally supplied total order.
type Pair struct {
	First  AssetID `json:"first"`
	Second AssetID `json:"second"`
}

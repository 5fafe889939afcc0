/*

This file contains the swap router: it picks a curve per hop through
the quote comparator, presents the pair to the executor in canonical
order, and threads each hop's output into the next hop's input.

Slippage is bounded end to end: only the final hop carries the
caller's minOut, intermediate hops pass zero.

*/

package router

import (
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sip-protocol/farmd/internal/events"
	"github.com/sip-protocol/farmd/internal/logger"
	"github.com/sip-protocol/farmd/internal/types"
)

// Router composes best-execution swaps over a PoolExecutor.
type Router struct {
	executor PoolExecutor
	order    AssetOrder
	sink     events.Sink
	logger   zerolog.Logger
}

// Config holds the collaborators wired into a new router.
type Config struct {
	Executor PoolExecutor
	// Order is the canonical asset ordering; LexicalAssetOrder when nil.
	Order AssetOrder
	Sink  events.Sink
}

// New creates a router.
func New(cfg Config) (*Router, error) {
	if cfg.Executor == nil {
		return nil, ErrExecutorRequired
	}
	order := cfg.Order
	if order == nil {
		order = LexicalAssetOrder
	}
	sink := cfg.Sink
	if sink == nil {
		sink = events.Discard{}
	}
	return &Router{
		executor: cfg.Executor,
		order:    order,
		sink:     sink,
		logger:   logger.GetForComponent("swap_router"),
	}, nil
}

// hop executes one pairwise swap, selling assetIn for assetOut.
func (r *Router) hop(assetIn, assetOut types.AssetID, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, types.CurveKind, error) {
	pair, sellFirst := CanonicalPair(r.order, assetIn, assetOut)

	inFirst, inSecond := sdkmath.ZeroInt(), sdkmath.ZeroInt()
	if sellFirst {
		inFirst = coinIn.Amount
	} else {
		inSecond = coinIn.Amount
	}
	volatile, err := r.PreferVolatile(pair, inFirst, inSecond)
	if err != nil {
		return sdk.Coin{}, "", err
	}
	kind := types.CurveStable
	if volatile {
		kind = types.CurveVolatile
	}

	var out sdk.Coin
	if sellFirst {
		out, err = r.executor.SwapSellFirst(pair, kind, coinIn, minOut)
	} else {
		out, err = r.executor.SwapSellSecond(pair, kind, coinIn, minOut)
	}
	if err != nil {
		return sdk.Coin{}, "", fmt.Errorf("hop %s->%s: %w", assetIn, assetOut, err)
	}
	return out, kind, nil
}

// Swap executes a single-hop swap of coinIn (denominated in x) into y,
// bounded below by minOut.
func (r *Router) Swap(x, y types.AssetID, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, error) {
	if coinIn.Amount.IsNil() || coinIn.Amount.IsZero() {
		return sdk.Coin{}, ErrZeroValueSwap
	}
	out, kind, err := r.hop(x, y, coinIn, minOut)
	if err != nil {
		return sdk.Coin{}, err
	}
	r.emitRoute([]types.AssetID{x, y}, []types.CurveKind{kind}, coinIn.Amount, out.Amount)
	return out, nil
}

// oneHopLegs executes the two legs of an x->b->y route without
// emitting; callers fold the curve kinds into their own route event.
func (r *Router) oneHopLegs(x, b, y types.AssetID, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, []types.CurveKind, error) {
	mid, firstKind, err := r.hop(x, b, coinIn, sdkmath.ZeroInt())
	if err != nil {
		return sdk.Coin{}, nil, err
	}
	out, secondKind, err := r.hop(b, y, mid, minOut)
	if err != nil {
		return sdk.Coin{}, nil, err
	}
	return out, []types.CurveKind{firstKind, secondKind}, nil
}

// OneHop routes x through the intermediate asset b into y. Only the
// final leg enforces minOut.
func (r *Router) OneHop(x, b, y types.AssetID, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, error) {
	if coinIn.Amount.IsNil() || coinIn.Amount.IsZero() {
		return sdk.Coin{}, ErrZeroValueSwap
	}
	out, kinds, err := r.oneHopLegs(x, b, y, coinIn, minOut)
	if err != nil {
		return sdk.Coin{}, err
	}
	r.emitRoute([]types.AssetID{x, b, y}, kinds, coinIn.Amount, out.Amount)
	return out, nil
}

// TwoHop routes x through b1 and b2 into y: one leg x->b1, then the
// b1->b2->y legs carrying the caller's minOut on the final one. The
// whole route emits a single event covering all three legs.
func (r *Router) TwoHop(x, b1, b2, y types.AssetID, coinIn sdk.Coin, minOut sdkmath.Int) (sdk.Coin, error) {
	if coinIn.Amount.IsNil() || coinIn.Amount.IsZero() {
		return sdk.Coin{}, ErrZeroValueSwap
	}
	mid, firstKind, err := r.hop(x, b1, coinIn, sdkmath.ZeroInt())
	if err != nil {
		return sdk.Coin{}, err
	}
	out, kinds, err := r.oneHopLegs(b1, b2, y, mid, minOut)
	if err != nil {
		return sdk.Coin{}, err
	}
	curves := append([]types.CurveKind{firstKind}, kinds...)
	r.emitRoute([]types.AssetID{x, b1, b2, y}, curves, coinIn.Amount, out.Amount)
	return out, nil
}

func (r *Router) emitRoute(route []types.AssetID, curves []types.CurveKind, amountIn, amountOut sdkmath.Int) {
	r.sink.Emit(types.Event{
		Kind:      types.EventSwapRoute,
		TraceID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Route:     route,
		Curves:    curves,
		AmountIn:  amountIn,
		AmountOut: amountOut,
	})
}

package sizing

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// MicroUnitDecimals is the fixed-point scale of on-chain base asset
// amounts: 10^6 micro-units per quoted unit.
const MicroUnitDecimals = 6

// SizedOrder carries exact integer order parameters. Once built it is
// fully determined by its inputs and never mutated.
type SizedOrder struct {
	MarketIndex     int
	Direction       Direction
	BaseAssetAmount int64
	MaxSlippageBps  int
}

// Build converts an already-validated decimal quantity into exact
// on-chain order parameters. The quantity is scaled to micro-units and
// floored, so the chain can never see more than the user authorized,
// then multiplied by the leverage using arbitrary-precision integers.
// Bounds are the validator's job; Build only converts.
func Build(quantityUSD string, leverage int, slippagePct string, marketIndex int, direction Direction) (SizedOrder, error) {
	if direction != Long && direction != Short {
		return SizedOrder{}, fmt.Errorf("unknown direction %q", direction)
	}
	quantity, err := decimal.NewFromString(strings.TrimSpace(quantityUSD))
	if err != nil {
		return SizedOrder{}, fmt.Errorf("quantity: %w", err)
	}
	base := quantity.Shift(MicroUnitDecimals).Floor().BigInt()
	amount := new(big.Int).Mul(base, big.NewInt(int64(leverage)))
	if !amount.IsInt64() {
		return SizedOrder{}, errors.New("base asset amount overflows int64")
	}
	bps, err := slippageToBps(slippagePct)
	if err != nil {
		return SizedOrder{}, err
	}
	return SizedOrder{
		MarketIndex:     marketIndex,
		Direction:       direction,
		BaseAssetAmount: amount.Int64(),
		MaxSlippageBps:  bps,
	}, nil
}

// slippageToBps converts a percentage ("0.5" for half a percent) to
// whole basis points, truncating any sub-bps remainder.
func slippageToBps(pct string) (int, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(pct))
	if err != nil {
		return 0, fmt.Errorf("slippage: %w", err)
	}
	if value.IsNegative() {
		return 0, errors.New("slippage must not be negative")
	}
	return int(value.Shift(2).Floor().IntPart()), nil
}

package collateral

import "math/big"

const moduleName = "collateral"

// FeedFormatVersion is the constant a feed's Version query must return to be
// accepted during registry construction. This is the sole authenticity check
// performed on a feed; it does not validate price liveness.
const FeedFormatVersion = 4

const workingDecimals = 18

var (
	// Precision is the engine's fixed-point scale: 18 fractional digits for
	// every USD-denominated value and for health factors.
	Precision = new(big.Int).Exp(big.NewInt(10), big.NewInt(workingDecimals), nil)
	// MinHealthFactor is the solvency floor, a ratio of 1.0 in working
	// precision.
	MinHealthFactor = new(big.Int).Set(Precision)
	// MaxHealthFactor is the ratio reported for debt-free positions, the
	// maximum representable value at EVM width.
	MaxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

// Params groups the engine's safety constants. They are fixed per deployment
// and validated once at construction.
type Params struct {
	// LiquidationThreshold is the percentage of raw collateral USD value
	// counted toward debt coverage.
	LiquidationThreshold uint64
	// ThresholdPrecision is the divisor for LiquidationThreshold.
	ThresholdPrecision uint64
	// LiquidationBonus is the percentage of the covered debt's
	// asset-equivalent paid to a liquidator on top of it.
	LiquidationBonus uint64
}

// DefaultParams returns the deployment constants: 66% threshold (a ~151.5%
// minimum collateralization ratio) and a 10% liquidation bonus.
func DefaultParams() Params {
	return Params{
		LiquidationThreshold: 66,
		ThresholdPrecision:   100,
		LiquidationBonus:     10,
	}
}

// Valid reports whether the parameter set is internally consistent.
func (p Params) Valid() bool {
	if p.ThresholdPrecision == 0 {
		return false
	}
	return p.LiquidationThreshold > 0 && p.LiquidationThreshold <= p.ThresholdPrecision
}

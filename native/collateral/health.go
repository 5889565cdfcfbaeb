package collateral

import "math/big"

// HealthFactor is the pure solvency metric for a position: zero collateral is
// maximally unsafe, zero debt is infinitely safe, and otherwise only the
// liquidation-threshold share of the collateral value counts toward
// coverage. The multiply-before-divide order at each step is deliberate;
// reordering changes rounding exactly at the ratio boundary.
func HealthFactor(collateralUsd, debt *big.Int, params Params) *big.Int {
	if collateralUsd == nil || collateralUsd.Sign() == 0 {
		return big.NewInt(0)
	}
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(MaxHealthFactor)
	}
	adjusted := new(big.Int).Mul(collateralUsd, new(big.Int).SetUint64(params.LiquidationThreshold))
	adjusted.Quo(adjusted, new(big.Int).SetUint64(params.ThresholdPrecision))
	ratio := adjusted.Mul(adjusted, Precision)
	return ratio.Quo(ratio, debt)
}

package collateral

import (
	"math/big"

	"synthd/crypto"
)

// Read-only queries. These observe only committed state: the journal
// confines staged writes to the goroutine running the mutating operation, so
// a concurrent query never sees an intermediate that may still roll back.

// HealthFactor reports the account's current solvency ratio in working
// precision.
func (e *Engine) HealthFactor(addr crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.healthFactorOf(addr)
}

// AccountInformation reports the account's outstanding debt and total
// collateral value in 18-decimal USD units.
func (e *Engine) AccountInformation(addr crypto.Address) (debt, collateralUsd *big.Int, err error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	position, err := e.state.Position(addr)
	if err != nil {
		return nil, nil, err
	}
	collateralUsd, err = e.collateralUsdOf(position)
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).Set(position.DebtMinted), collateralUsd, nil
}

// CollateralBalanceOf reports the amount of one asset the account has
// deposited.
func (e *Engine) CollateralBalanceOf(addr, asset crypto.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	position, err := e.state.Position(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(position.CollateralFor(asset.String())), nil
}

// UsdValue prices an asset amount at current oracle prices.
func (e *Engine) UsdValue(asset crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil {
		return nil, errNilRegistry
	}
	return e.oracle.UsdValue(asset, amount)
}

// AssetAmountFromUsd converts a USD value into an asset amount at current
// oracle prices.
func (e *Engine) AssetAmountFromUsd(asset crypto.Address, usdAmount *big.Int) (*big.Int, error) {
	if e == nil {
		return nil, errNilRegistry
	}
	return e.oracle.AssetAmountFromUsd(asset, usdAmount)
}

// Registry exposes the immutable asset registry.
func (e *Engine) Registry() *Registry {
	if e == nil {
		return nil
	}
	return e.registry
}

// ModuleAddress is the engine's custody address, also the debt-token owner.
func (e *Engine) ModuleAddress() crypto.Address {
	return e.moduleAddress
}

// Params returns the engine's safety constants.
func (e *Engine) Params() Params {
	return e.params
}

package collateral

import (
	"fmt"
	"math/big"

	"synthd/crypto"
)

// OracleAdapter converts raw feed readings into values at the engine's
// working precision and back. All arithmetic runs on big integers, so wide
// intermediate products cannot wrap; a bad reading surfaces as an explicit
// error instead.
type OracleAdapter struct {
	registry *Registry
}

func NewOracleAdapter(registry *Registry) *OracleAdapter {
	return &OracleAdapter{registry: registry}
}

// normalizedPrice reads the feed's latest price and scales it to the
// engine's 18-digit working precision.
func (o *OracleAdapter) normalizedPrice(asset crypto.Address) (*big.Int, error) {
	feed, ok := o.registry.feeds[asset.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotApprovedAsset, asset.String())
	}
	price, err := feed.LatestPrice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, asset.String())
	}
	decimals, err := feed.Decimals()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
	}
	if decimals > workingDecimals {
		return nil, fmt.Errorf("%w: feed precision %d exceeds working precision", ErrInvalidPrice, decimals)
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(workingDecimals-decimals)), nil)
	return new(big.Int).Mul(price, scale), nil
}

// UsdValue prices the given asset amount in 18-decimal USD units:
// price_normalized * amount / 10^18. The multiply runs before the divide to
// preserve precision at ratio boundaries.
func (o *OracleAdapter) UsdValue(asset crypto.Address, amount *big.Int) (*big.Int, error) {
	if o == nil || o.registry == nil {
		return nil, errNilRegistry
	}
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	price, err := o.normalizedPrice(asset)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Mul(price, amount)
	return value.Quo(value, Precision), nil
}

// AssetAmountFromUsd is the algebraic inverse of UsdValue:
// usdAmount * 10^18 / price_normalized.
func (o *OracleAdapter) AssetAmountFromUsd(asset crypto.Address, usdAmount *big.Int) (*big.Int, error) {
	if o == nil || o.registry == nil {
		return nil, errNilRegistry
	}
	if usdAmount == nil || usdAmount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	price, err := o.normalizedPrice(asset)
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Mul(usdAmount, Precision)
	return amount.Quo(amount, price), nil
}

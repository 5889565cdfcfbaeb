package collateral

import (
	"math/big"

	"synthd/crypto"
)

// Position maintains the engine-side ledger for a single account: the
// collateral locked per approved asset and the synthetic debt minted against
// it. Positions are created implicitly on first deposit or mint and simply
// return to the zero state when fully unwound.
type Position struct {
	// Address is the account the position belongs to.
	Address crypto.Address `json:"address"`
	// Collateral maps the bech32 asset handle to the deposited amount in the
	// asset's smallest unit.
	Collateral map[string]*big.Int `json:"collateral,omitempty"`
	// DebtMinted is the outstanding synthetic debt issued to the account,
	// denominated in 18-decimal USD units.
	DebtMinted *big.Int `json:"debtMinted"`
}

// CollateralFor returns the deposited amount for the asset key, defaulting to
// zero.
func (p *Position) CollateralFor(asset string) *big.Int {
	if p == nil || p.Collateral == nil {
		return big.NewInt(0)
	}
	amount, ok := p.Collateral[asset]
	if !ok || amount == nil {
		return big.NewInt(0)
	}
	return amount
}

// SetCollateral stores the deposited amount for the asset key. Zero amounts
// are kept explicit so redemption underflow stays detectable in tests.
func (p *Position) SetCollateral(asset string, amount *big.Int) {
	if p.Collateral == nil {
		p.Collateral = make(map[string]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	p.Collateral[asset] = amount
}

package types

import "math/big"

// Account records the collateral asset holdings an address keeps outside the
// engine, i.e. the balances the engine pulls deposits from and pays
// redemptions and liquidation payouts into. Balances are keyed by the bech32
// asset handle and denominated in the asset's smallest unit.
type Account struct {
	Nonce    uint64              `json:"nonce"`
	Balances map[string]*big.Int `json:"balances,omitempty"`
}

// Balance returns the held amount for the given asset key, defaulting to zero.
func (a *Account) Balance(asset string) *big.Int {
	if a == nil || a.Balances == nil {
		return big.NewInt(0)
	}
	amount, ok := a.Balances[asset]
	if !ok || amount == nil {
		return big.NewInt(0)
	}
	return amount
}

// SetBalance stores the amount for the given asset key, allocating the
// balance map on first use.
func (a *Account) SetBalance(asset string, amount *big.Int) {
	if a.Balances == nil {
		a.Balances = make(map[string]*big.Int)
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	a.Balances[asset] = amount
}

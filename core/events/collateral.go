package events

import (
	"math/big"

	"synthd/core/types"
	"synthd/crypto"
)

const (
	// TypeCollateralDeposited is emitted when an account locks collateral.
	TypeCollateralDeposited = "collateral.deposited"
	// TypeCollateralRedeemed is emitted for collateral leaving the engine.
	// From and To differ when a liquidation pays a third party.
	TypeCollateralRedeemed = "collateral.redeemed"
	// TypeDebtMinted is emitted when synthetic debt is issued.
	TypeDebtMinted = "collateral.debtMinted"
	// TypeDebtBurned is emitted when synthetic debt is retired.
	TypeDebtBurned = "collateral.debtBurned"
	// TypeLiquidation is emitted after a completed liquidation.
	TypeLiquidation = "collateral.liquidation"
)

type CollateralDeposited struct {
	Account crypto.Address
	Asset   crypto.Address
	Amount  *big.Int
}

func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

func (e CollateralDeposited) Event() *types.Event {
	return &types.Event{Type: TypeCollateralDeposited, Attributes: map[string]string{
		"account": e.Account.String(),
		"asset":   e.Asset.String(),
		"amount":  formatAmount(e.Amount),
	}}
}

type CollateralRedeemed struct {
	From   crypto.Address
	To     crypto.Address
	Asset  crypto.Address
	Amount *big.Int
}

func (CollateralRedeemed) EventType() string { return TypeCollateralRedeemed }

func (e CollateralRedeemed) Event() *types.Event {
	return &types.Event{Type: TypeCollateralRedeemed, Attributes: map[string]string{
		"from":   e.From.String(),
		"to":     e.To.String(),
		"asset":  e.Asset.String(),
		"amount": formatAmount(e.Amount),
	}}
}

type DebtMinted struct {
	Account crypto.Address
	Amount  *big.Int
}

func (DebtMinted) EventType() string { return TypeDebtMinted }

func (e DebtMinted) Event() *types.Event {
	return &types.Event{Type: TypeDebtMinted, Attributes: map[string]string{
		"account": e.Account.String(),
		"amount":  formatAmount(e.Amount),
	}}
}

type DebtBurned struct {
	Account crypto.Address
	Payer   crypto.Address
	Amount  *big.Int
}

func (DebtBurned) EventType() string { return TypeDebtBurned }

func (e DebtBurned) Event() *types.Event {
	return &types.Event{Type: TypeDebtBurned, Attributes: map[string]string{
		"account": e.Account.String(),
		"payer":   e.Payer.String(),
		"amount":  formatAmount(e.Amount),
	}}
}

type Liquidation struct {
	Liquidator  crypto.Address
	Target      crypto.Address
	Asset       crypto.Address
	DebtCovered *big.Int
	Seized      *big.Int
}

func (Liquidation) EventType() string { return TypeLiquidation }

func (e Liquidation) Event() *types.Event {
	return &types.Event{Type: TypeLiquidation, Attributes: map[string]string{
		"liquidator":  e.Liquidator.String(),
		"target":      e.Target.String(),
		"asset":       e.Asset.String(),
		"debtCovered": formatAmount(e.DebtCovered),
		"seized":      formatAmount(e.Seized),
	}}
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

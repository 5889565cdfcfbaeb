package token

import (
	"errors"
	"math/big"

	"synthd/crypto"
)

var (
	errNilState            = errors.New("debt token: state not configured")
	errInvalidAmount       = errors.New("debt token: amount must be positive")
	errZeroAddress         = errors.New("debt token: zero address")
	errNotOwner            = errors.New("debt token: mint restricted to owner")
	errInsufficientBalance = errors.New("debt token: insufficient balance")
	errInsufficientAllow   = errors.New("debt token: insufficient allowance")
)

type ledgerState interface {
	TokenBalance(addr crypto.Address) (*big.Int, error)
	SetTokenBalance(addr crypto.Address, amount *big.Int) error
	TokenSupply() (*big.Int, error)
	SetTokenSupply(amount *big.Int) error
	TokenAllowance(owner, spender crypto.Address) (*big.Int, error)
	SetTokenAllowance(owner, spender crypto.Address, amount *big.Int) error
}

// Ledger is the fungible debt-token bookkeeping: balances, allowances and
// total supply, with an owner-restricted mint. Ownership is transferred to
// the collateral engine's module address at wiring time, mirroring an ERC-20
// whose owner is the engine contract.
type Ledger struct {
	state ledgerState
	owner crypto.Address
}

func NewLedger(state ledgerState, owner crypto.Address) *Ledger {
	return &Ledger{state: state, owner: owner}
}

// Owner returns the address allowed to mint.
func (l *Ledger) Owner() crypto.Address {
	return l.owner
}

// Mint issues new tokens to the recipient. Only the configured owner may
// mint; a zero recipient or non-positive amount is rejected.
func (l *Ledger) Mint(caller, to crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if !caller.Equal(l.owner) {
		return errNotOwner
	}
	if to.IsZero() {
		return errZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	balance, err := l.state.TokenBalance(to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(to, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	supply, err := l.state.TokenSupply()
	if err != nil {
		return err
	}
	return l.state.SetTokenSupply(new(big.Int).Add(supply, amount))
}

// Burn destroys tokens from the holder's own balance. Burning more than held
// is a hard failure, never a clamp.
func (l *Ledger) Burn(holder crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	balance, err := l.state.TokenBalance(holder)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	if err := l.state.SetTokenBalance(holder, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	supply, err := l.state.TokenSupply()
	if err != nil {
		return err
	}
	return l.state.SetTokenSupply(new(big.Int).Sub(supply, amount))
}

// Transfer moves tokens between accounts with a strict balance check.
func (l *Ledger) Transfer(from, to crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if to.IsZero() {
		return errZeroAddress
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	fromBalance, err := l.state.TokenBalance(from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return errInsufficientBalance
	}
	toBalance, err := l.state.TokenBalance(to)
	if err != nil {
		return err
	}
	if err := l.state.SetTokenBalance(from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.state.SetTokenBalance(to, new(big.Int).Add(toBalance, amount))
}

// Approve records the amount a spender may move on the owner's behalf.
func (l *Ledger) Approve(owner, spender crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if spender.IsZero() {
		return errZeroAddress
	}
	if amount == nil || amount.Sign() < 0 {
		return errInvalidAmount
	}
	return l.state.SetTokenAllowance(owner, spender, amount)
}

// TransferFrom spends an allowance to move tokens from the owner to the
// recipient.
func (l *Ledger) TransferFrom(spender, from, to crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	allowance, err := l.state.TokenAllowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return errInsufficientAllow
	}
	if err := l.Transfer(from, to, amount); err != nil {
		return err
	}
	return l.state.SetTokenAllowance(from, spender, new(big.Int).Sub(allowance, amount))
}

// BalanceOf reports the holder's current balance.
func (l *Ledger) BalanceOf(addr crypto.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenBalance(addr)
}

// TotalSupply reports the outstanding token supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenSupply()
}

// Allowance reports how much the spender may still move for the owner.
func (l *Ledger) Allowance(owner, spender crypto.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	return l.state.TokenAllowance(owner, spender)
}

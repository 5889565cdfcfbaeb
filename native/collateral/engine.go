package collateral

import (
	"fmt"
	"math/big"

	"synthd/core/events"
	"synthd/core/types"
	"synthd/crypto"
	nativecommon "synthd/native/common"
)

type engineState interface {
	Position(addr crypto.Address) (*Position, error)
	PutPosition(position *Position) error
	Account(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

type journal interface {
	Begin()
	Commit() error
	Rollback()
}

// DebtToken is the boundary to the synthetic-debt ledger. Mint is
// owner-restricted; the engine identifies itself with its module address.
type DebtToken interface {
	Mint(caller, to crypto.Address, amount *big.Int) error
	Burn(holder crypto.Address, amount *big.Int) error
	Transfer(from, to crypto.Address, amount *big.Int) error
}

// Engine orchestrates the collateral ledger: deposits, synthetic-debt
// issuance, redemptions and liquidations. Every mutating operation runs
// inside a journal scope behind the reentrancy guard, so the sequence of
// ledger mutations, collaborator calls and health-factor validation either
// fully commits or leaves no trace.
type Engine struct {
	state         engineState
	journal       journal
	registry      *Registry
	oracle        *OracleAdapter
	token         DebtToken
	moduleAddress crypto.Address
	params        Params
	guard         *nativecommon.ReentrancyGuard
	pauses        nativecommon.PauseView
	events        events.Emitter
}

// NewEngine constructs an engine bound to the immutable registry and custody
// module address.
func NewEngine(moduleAddr crypto.Address, registry *Registry, params Params) (*Engine, error) {
	if registry == nil {
		return nil, errNilRegistry
	}
	if !params.Valid() {
		return nil, fmt.Errorf("collateral engine: invalid params %+v", params)
	}
	return &Engine{
		registry:      registry,
		oracle:        NewOracleAdapter(registry),
		moduleAddress: moduleAddr,
		params:        params,
		guard:         nativecommon.NewReentrancyGuard(),
		events:        events.NoopEmitter{},
	}, nil
}

// SetState wires the engine to the persisted ledger records.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetJournal wires the staged-write scope every operation runs in.
func (e *Engine) SetJournal(j journal) { e.journal = j }

// SetDebtToken wires the synthetic-debt ledger collaborator.
func (e *Engine) SetDebtToken(token DebtToken) { e.token = token }

// SetPauses installs the operational pause switchboard.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetEmitter installs the event sink used after successful commits.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil || emitter == nil {
		return
	}
	e.events = emitter
}

// run executes op behind the reentrancy guard inside a journal scope and
// emits the returned events only after the commit lands.
func (e *Engine) run(op func() ([]events.Event, error)) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.journal == nil {
		return errNilJournal
	}
	if e.token == nil {
		return errNilToken
	}
	release, err := e.guard.Enter()
	if err != nil {
		return err
	}
	defer release()
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	e.journal.Begin()
	emitted, err := op()
	if err != nil {
		e.journal.Rollback()
		return err
	}
	if err := e.journal.Commit(); err != nil {
		return err
	}
	for _, evt := range emitted {
		if evt != nil {
			e.events.Emit(evt)
		}
	}
	return nil
}

// DepositCollateral locks an approved asset for the caller, pulling the
// amount from the caller's wallet into engine custody. Deposits can only
// improve solvency, so no health-factor gate applies.
func (e *Engine) DepositCollateral(caller, asset crypto.Address, amount *big.Int) error {
	return e.run(func() ([]events.Event, error) {
		evt, err := e.depositLocked(caller, asset, amount)
		if err != nil {
			return nil, err
		}
		return []events.Event{evt}, nil
	})
}

// MintDebt issues synthetic debt against the caller's collateral. The debt
// counter is incremented first and the health factor validated on the
// tentative post-state; a violation rolls the whole operation back and
// reports the broken ratio.
func (e *Engine) MintDebt(caller crypto.Address, amount *big.Int) error {
	return e.run(func() ([]events.Event, error) {
		evt, err := e.mintLocked(caller, amount)
		if err != nil {
			return nil, err
		}
		return []events.Event{evt}, nil
	})
}

// DepositAndMint composes deposit and mint into one atomic step.
func (e *Engine) DepositAndMint(caller, asset crypto.Address, collateralAmount, debtAmount *big.Int) error {
	return e.run(func() ([]events.Event, error) {
		depositEvt, err := e.depositLocked(caller, asset, collateralAmount)
		if err != nil {
			return nil, err
		}
		mintEvt, err := e.mintLocked(caller, debtAmount)
		if err != nil {
			return nil, err
		}
		return []events.Event{depositEvt, mintEvt}, nil
	})
}

// BurnDebt retires synthetic debt from the caller's own minted balance,
// pulling the tokens from the caller and destroying them. Burning more than
// the caller minted is a hard failure even when the caller holds tokens
// minted by someone else.
func (e *Engine) BurnDebt(caller crypto.Address, amount *big.Int) error {
	return e.run(func() ([]events.Event, error) {
		evt, err := e.burnLocked(caller, caller, amount)
		if err != nil {
			return nil, err
		}
		return []events.Event{evt}, nil
	})
}

// RedeemCollateral releases deposited collateral back to the caller and then
// enforces the health-factor gate on the post-redeem state.
func (e *Engine) RedeemCollateral(caller, asset crypto.Address, amount *big.Int) error {
	return e.run(func() ([]events.Event, error) {
		evt, err := e.redeemLocked(caller, caller, asset, amount)
		if err != nil {
			return nil, err
		}
		if err := e.requireHealthy(caller); err != nil {
			return nil, err
		}
		return []events.Event{evt}, nil
	})
}

// RedeemForBurn composes burn then redeem into one atomic step.
func (e *Engine) RedeemForBurn(caller, asset crypto.Address, collateralAmount, debtAmount *big.Int) error {
	return e.run(func() ([]events.Event, error) {
		burnEvt, err := e.burnLocked(caller, caller, debtAmount)
		if err != nil {
			return nil, err
		}
		redeemEvt, err := e.redeemLocked(caller, caller, asset, collateralAmount)
		if err != nil {
			return nil, err
		}
		if err := e.requireHealthy(caller); err != nil {
			return nil, err
		}
		return []events.Event{burnEvt, redeemEvt}, nil
	})
}

// Liquidate lets a third party repay debtToCover of an unsafe target's debt
// in exchange for the equivalent collateral plus the liquidation bonus. Both
// postconditions are enforced: the target's health factor must strictly
// improve and the liquidator's own position must remain solvent. The seized
// collateral amount is returned.
func (e *Engine) Liquidate(liquidator, target, asset crypto.Address, debtToCover *big.Int) (*big.Int, error) {
	var seized *big.Int
	err := e.run(func() ([]events.Event, error) {
		if debtToCover == nil || debtToCover.Sign() <= 0 {
			return nil, ErrInvalidAmount
		}
		if !e.registry.IsApproved(asset) {
			return nil, fmt.Errorf("%w: %s", ErrNotApprovedAsset, asset.String())
		}
		startHealth, err := e.healthFactorOf(target)
		if err != nil {
			return nil, err
		}
		if startHealth.Cmp(MinHealthFactor) >= 0 {
			return nil, ErrHealthFactorOk
		}
		assetAmount, err := e.oracle.AssetAmountFromUsd(asset, debtToCover)
		if err != nil {
			return nil, err
		}
		bonus := new(big.Int).Mul(assetAmount, new(big.Int).SetUint64(e.params.LiquidationBonus))
		bonus.Quo(bonus, big.NewInt(100))
		payout := new(big.Int).Add(assetAmount, bonus)

		burnEvt, err := e.burnLocked(liquidator, target, debtToCover)
		if err != nil {
			return nil, err
		}
		redeemEvt, err := e.redeemLocked(target, liquidator, asset, payout)
		if err != nil {
			return nil, err
		}

		endHealth, err := e.healthFactorOf(target)
		if err != nil {
			return nil, err
		}
		if endHealth.Cmp(startHealth) <= 0 {
			return nil, ErrHealthFactorNotImproved
		}
		if err := e.requireHealthy(liquidator); err != nil {
			return nil, err
		}

		seized = payout
		return []events.Event{burnEvt, redeemEvt, events.Liquidation{
			Liquidator:  liquidator,
			Target:      target,
			Asset:       asset,
			DebtCovered: new(big.Int).Set(debtToCover),
			Seized:      new(big.Int).Set(payout),
		}}, nil
	})
	return seized, err
}

// --- internal steps, executed inside a guarded journal scope ---

func (e *Engine) depositLocked(caller, asset crypto.Address, amount *big.Int) (events.Event, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !e.registry.IsApproved(asset) {
		return nil, fmt.Errorf("%w: %s", ErrNotApprovedAsset, asset.String())
	}
	position, err := e.state.Position(caller)
	if err != nil {
		return nil, err
	}
	key := asset.String()
	position.SetCollateral(key, new(big.Int).Add(position.CollateralFor(key), amount))
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.transferIn(caller, asset, amount); err != nil {
		return nil, err
	}
	return events.CollateralDeposited{Account: caller, Asset: asset, Amount: new(big.Int).Set(amount)}, nil
}

func (e *Engine) mintLocked(caller crypto.Address, amount *big.Int) (events.Event, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	position, err := e.state.Position(caller)
	if err != nil {
		return nil, err
	}
	// Mutate first, validate after: the gate inspects the tentative
	// post-state and the broken ratio travels with the error.
	position.DebtMinted = new(big.Int).Add(position.DebtMinted, amount)
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.requireHealthy(caller); err != nil {
		return nil, err
	}
	if err := e.token.Mint(e.moduleAddress, caller, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	return events.DebtMinted{Account: caller, Amount: new(big.Int).Set(amount)}, nil
}

func (e *Engine) burnLocked(payer, onBehalf crypto.Address, amount *big.Int) (events.Event, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	position, err := e.state.Position(onBehalf)
	if err != nil {
		return nil, err
	}
	if position.DebtMinted.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: minted %s, burning %s", ErrInsufficientDebt, position.DebtMinted, amount)
	}
	position.DebtMinted = new(big.Int).Sub(position.DebtMinted, amount)
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.token.Transfer(payer, e.moduleAddress, amount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.token.Burn(e.moduleAddress, amount); err != nil {
		return nil, err
	}
	return events.DebtBurned{Account: onBehalf, Payer: payer, Amount: new(big.Int).Set(amount)}, nil
}

func (e *Engine) redeemLocked(from, to, asset crypto.Address, amount *big.Int) (events.Event, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !e.registry.IsApproved(asset) {
		return nil, fmt.Errorf("%w: %s", ErrNotApprovedAsset, asset.String())
	}
	position, err := e.state.Position(from)
	if err != nil {
		return nil, err
	}
	key := asset.String()
	held := position.CollateralFor(key)
	if held.Cmp(amount) < 0 {
		return nil, fmt.Errorf("%w: deposited %s, redeeming %s", ErrInsufficientCollateral, held, amount)
	}
	position.SetCollateral(key, new(big.Int).Sub(held, amount))
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	if err := e.transferOut(to, asset, amount); err != nil {
		return nil, err
	}
	return events.CollateralRedeemed{From: from, To: to, Asset: asset, Amount: new(big.Int).Set(amount)}, nil
}

// transferIn pulls amount of asset from the caller's wallet into engine
// custody; a short wallet reports as a failed transfer.
func (e *Engine) transferIn(from, asset crypto.Address, amount *big.Int) error {
	key := asset.String()
	fromAccount, err := e.state.Account(from)
	if err != nil {
		return err
	}
	balance := fromAccount.Balance(key)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: wallet holds %s of %s, pulling %s", ErrTransferFailed, balance, key, amount)
	}
	custody, err := e.state.Account(e.moduleAddress)
	if err != nil {
		return err
	}
	fromAccount.SetBalance(key, new(big.Int).Sub(balance, amount))
	custody.SetBalance(key, new(big.Int).Add(custody.Balance(key), amount))
	if err := e.state.PutAccount(from, fromAccount); err != nil {
		return err
	}
	return e.state.PutAccount(e.moduleAddress, custody)
}

// transferOut releases amount of asset from engine custody into the
// recipient's wallet.
func (e *Engine) transferOut(to, asset crypto.Address, amount *big.Int) error {
	key := asset.String()
	custody, err := e.state.Account(e.moduleAddress)
	if err != nil {
		return err
	}
	balance := custody.Balance(key)
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: custody holds %s of %s, releasing %s", ErrTransferFailed, balance, key, amount)
	}
	recipient, err := e.state.Account(to)
	if err != nil {
		return err
	}
	custody.SetBalance(key, new(big.Int).Sub(balance, amount))
	recipient.SetBalance(key, new(big.Int).Add(recipient.Balance(key), amount))
	if err := e.state.PutAccount(e.moduleAddress, custody); err != nil {
		return err
	}
	return e.state.PutAccount(to, recipient)
}

func (e *Engine) requireHealthy(addr crypto.Address) error {
	health, err := e.healthFactorOf(addr)
	if err != nil {
		return err
	}
	if health.Cmp(MinHealthFactor) < 0 {
		return &BrokenHealthFactorError{HealthFactor: health}
	}
	return nil
}

func (e *Engine) healthFactorOf(addr crypto.Address) (*big.Int, error) {
	position, err := e.state.Position(addr)
	if err != nil {
		return nil, err
	}
	collateralUsd, err := e.collateralUsdOf(position)
	if err != nil {
		return nil, err
	}
	return HealthFactor(collateralUsd, position.DebtMinted, e.params), nil
}

// collateralUsdOf revalues every deposited asset at current prices. The
// value is always recomputed, never cached, so stored and derived state
// cannot diverge.
func (e *Engine) collateralUsdOf(position *Position) (*big.Int, error) {
	total := big.NewInt(0)
	for _, asset := range e.registry.assets {
		held := position.CollateralFor(asset.String())
		if held.Sign() == 0 {
			continue
		}
		value, err := e.oracle.UsdValue(asset, held)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}

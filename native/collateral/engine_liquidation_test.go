package collateral

import (
	"errors"
	"math/big"
	"testing"

	"synthd/core/events"
	"synthd/crypto"
)

// seedUnsafePosition opens a max-leverage position at 3000 USD and then drops
// the feed so the target's health factor lands at 0.8: one unit of collateral
// against 1980 USD of debt priced at 2400 USD.
func seedUnsafePosition(t *testing.T, env *testEnv) crypto.Address {
	t.Helper()
	target := makeAddress(0x20)
	env.fund(target, big.NewInt(1e18))
	if err := env.engine.DepositAndMint(target, env.asset, big.NewInt(1e18), usd(1980)); err != nil {
		t.Fatalf("seed target: %v", err)
	}
	env.feed.SetPrice(big.NewInt(2400_0000_0000))
	return target
}

func fundLiquidator(t *testing.T, env *testEnv, liquidator crypto.Address, tokens *big.Int) {
	t.Helper()
	env.token.balances[liquidator.String()] = new(big.Int).Set(tokens)
	env.token.supply = new(big.Int).Add(env.token.supply, tokens)
}

func TestLiquidateHealthyTargetRejected(t *testing.T) {
	env := newTestEnv(t)
	target := makeAddress(0x20)
	liquidator := makeAddress(0x21)
	env.fund(target, big.NewInt(1e18))
	if err := env.engine.DepositAndMint(target, env.asset, big.NewInt(1e18), usd(1000)); err != nil {
		t.Fatalf("seed target: %v", err)
	}

	_, err := env.engine.Liquidate(liquidator, target, env.asset, usd(100))
	if !errors.Is(err, ErrHealthFactorOk) {
		t.Fatalf("expected ErrHealthFactorOk, got %v", err)
	}
}

func TestLiquidateInputValidation(t *testing.T) {
	env := newTestEnv(t)
	target := seedUnsafePosition(t, env)
	liquidator := makeAddress(0x21)

	if _, err := env.engine.Liquidate(liquidator, target, env.asset, big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	stranger := makeAddress(0x99)
	if _, err := env.engine.Liquidate(liquidator, target, stranger, usd(100)); !errors.Is(err, ErrNotApprovedAsset) {
		t.Fatalf("expected ErrNotApprovedAsset, got %v", err)
	}
}

// Covering half the debt at 2400 USD seizes 990/2400 = 0.4125 units plus a 10%
// bonus, 0.45375 in total, and lifts the target's ratio from 0.8 to ~0.874.
func TestLiquidatePartialImprovesTarget(t *testing.T) {
	env := newTestEnv(t)
	target := seedUnsafePosition(t, env)
	liquidator := makeAddress(0x21)
	fundLiquidator(t, env, liquidator, usd(990))

	startHealth, err := env.engine.HealthFactor(target)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}

	seized, err := env.engine.Liquidate(liquidator, target, env.asset, usd(990))
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	wantSeized := big.NewInt(453750000000000000)
	if seized.Cmp(wantSeized) != 0 {
		t.Fatalf("unexpected seized amount: got %s want %s", seized, wantSeized)
	}

	position := env.state.positions[env.state.key(target)]
	if position.DebtMinted.Cmp(usd(990)) != 0 {
		t.Fatalf("unexpected remaining debt: %s", position.DebtMinted)
	}
	wantCollateral := new(big.Int).Sub(big.NewInt(1e18), wantSeized)
	if position.CollateralFor(env.asset.String()).Cmp(wantCollateral) != 0 {
		t.Fatalf("unexpected remaining collateral: %s", position.CollateralFor(env.asset.String()))
	}

	wallet := env.state.accounts[env.state.key(liquidator)]
	if wallet.Balance(env.asset.String()).Cmp(wantSeized) != 0 {
		t.Fatalf("expected payout in liquidator wallet, got %s", wallet.Balance(env.asset.String()))
	}
	if env.token.balanceOf(liquidator).Sign() != 0 {
		t.Fatalf("expected liquidator tokens spent, got %s", env.token.balanceOf(liquidator))
	}

	endHealth, err := env.engine.HealthFactor(target)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	if endHealth.Cmp(startHealth) <= 0 {
		t.Fatalf("expected health factor to improve: start %s end %s", startHealth, endHealth)
	}

	var sawLiquidation bool
	for _, evt := range env.emitter.emitted {
		if evt.EventType() == events.TypeLiquidation {
			sawLiquidation = true
		}
	}
	if !sawLiquidation {
		t.Fatalf("expected liquidation event, got %+v", env.emitter.emitted)
	}
}

// Covering the full 1980 USD seizes 0.825 units plus bonus, 0.9075 in total,
// and leaves a debt-free target reporting the maximum ratio.
func TestLiquidateFullClearsDebt(t *testing.T) {
	env := newTestEnv(t)
	target := seedUnsafePosition(t, env)
	liquidator := makeAddress(0x21)
	fundLiquidator(t, env, liquidator, usd(1980))

	seized, err := env.engine.Liquidate(liquidator, target, env.asset, usd(1980))
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	wantSeized := big.NewInt(907500000000000000)
	if seized.Cmp(wantSeized) != 0 {
		t.Fatalf("unexpected seized amount: got %s want %s", seized, wantSeized)
	}

	position := env.state.positions[env.state.key(target)]
	if position.DebtMinted.Sign() != 0 {
		t.Fatalf("expected debt cleared, got %s", position.DebtMinted)
	}
	health, err := env.engine.HealthFactor(target)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	if health.Cmp(MaxHealthFactor) != 0 {
		t.Fatalf("expected maximum ratio for cleared position, got %s", health)
	}
	if env.token.supply.Sign() != 0 {
		t.Fatalf("expected covered debt burned, got supply %s", env.token.supply)
	}
}

// When the position is too deep underwater the bonus seizure outpaces the debt
// relief and the whole liquidation rolls back.
func TestLiquidateMustImproveTarget(t *testing.T) {
	env := newTestEnv(t)
	target := seedUnsafePosition(t, env)
	liquidator := makeAddress(0x21)
	fundLiquidator(t, env, liquidator, usd(990))
	env.feed.SetPrice(big.NewInt(1500_0000_0000))

	_, err := env.engine.Liquidate(liquidator, target, env.asset, usd(990))
	if !errors.Is(err, ErrHealthFactorNotImproved) {
		t.Fatalf("expected ErrHealthFactorNotImproved, got %v", err)
	}

	position := env.state.positions[env.state.key(target)]
	if position.DebtMinted.Cmp(usd(1980)) != 0 {
		t.Fatalf("expected debt restored, got %s", position.DebtMinted)
	}
	if position.CollateralFor(env.asset.String()).Cmp(big.NewInt(1e18)) != 0 {
		t.Fatalf("expected collateral restored, got %s", position.CollateralFor(env.asset.String()))
	}
	if env.token.balanceOf(liquidator).Cmp(usd(990)) != 0 {
		t.Fatalf("expected liquidator tokens restored, got %s", env.token.balanceOf(liquidator))
	}
}

func TestLiquidatePayoutBoundedByCollateral(t *testing.T) {
	env := newTestEnv(t)
	target := seedUnsafePosition(t, env)
	liquidator := makeAddress(0x21)
	fundLiquidator(t, env, liquidator, usd(2400))

	// Covering 2400 USD would seize 1.1 units against 1.0 deposited.
	_, err := env.engine.Liquidate(liquidator, target, env.asset, usd(2400))
	if !errors.Is(err, ErrInsufficientDebt) && !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected underflow failure, got %v", err)
	}
	position := env.state.positions[env.state.key(target)]
	if position.DebtMinted.Cmp(usd(1980)) != 0 {
		t.Fatalf("expected debt restored, got %s", position.DebtMinted)
	}
}

// The liquidator's own position must stay solvent through the payout.
func TestLiquidateRequiresHealthyLiquidator(t *testing.T) {
	env := newTestEnv(t)
	target := seedUnsafePosition(t, env)
	liquidator := makeAddress(0x21)
	env.fund(liquidator, big.NewInt(1e18))
	// The price drop to 2400 leaves the liquidator's own max-leverage
	// position underwater as well.
	position := &Position{Address: liquidator, DebtMinted: usd(1980)}
	position.SetCollateral(env.asset.String(), big.NewInt(1e18))
	env.state.positions[env.state.key(liquidator)] = position
	fundLiquidator(t, env, liquidator, usd(990))

	_, err := env.engine.Liquidate(liquidator, target, env.asset, usd(990))
	if _, ok := IsBrokenHealthFactor(err); !ok {
		t.Fatalf("expected broken health factor for liquidator, got %v", err)
	}
	targetPosition := env.state.positions[env.state.key(target)]
	if targetPosition.DebtMinted.Cmp(usd(1980)) != 0 {
		t.Fatalf("expected target debt restored, got %s", targetPosition.DebtMinted)
	}
}

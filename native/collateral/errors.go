package collateral

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	errNilState    = errors.New("collateral engine: state not configured")
	errNilJournal  = errors.New("collateral engine: journal not configured")
	errNilToken    = errors.New("collateral engine: debt token not configured")
	errNilRegistry = errors.New("collateral engine: registry not configured")

	// ErrLengthMismatch is a construction-time failure: the asset and feed
	// lists handed to the registry differ in length.
	ErrLengthMismatch = errors.New("collateral engine: asset and feed lists must have equal length")
	// ErrNotAPriceFeed is a construction-time failure: a feed handle did not
	// answer the format-version probe with the expected constant.
	ErrNotAPriceFeed = errors.New("collateral engine: handle is not a price feed")
	// ErrDuplicateAsset is a construction-time failure: the same asset handle
	// appears twice in the registry lists.
	ErrDuplicateAsset = errors.New("collateral engine: duplicate asset")

	// ErrInvalidAmount rejects zero or negative operation amounts.
	ErrInvalidAmount = errors.New("collateral engine: amount must be positive")
	// ErrNotApprovedAsset rejects assets with no registered price feed.
	ErrNotApprovedAsset = errors.New("collateral engine: asset not approved")
	// ErrInvalidPrice rejects non-positive or missing oracle prices.
	ErrInvalidPrice = errors.New("collateral engine: price feed returned invalid price")

	// ErrInsufficientCollateral surfaces a redemption beyond the deposited
	// balance. Deliberately an error, never a clamp.
	ErrInsufficientCollateral = errors.New("collateral engine: redeem exceeds deposited collateral")
	// ErrInsufficientDebt surfaces a burn beyond the account's minted debt.
	ErrInsufficientDebt = errors.New("collateral engine: burn exceeds minted debt")

	// ErrTransferFailed wraps a failed asset or token movement; the whole
	// operation rolls back.
	ErrTransferFailed = errors.New("collateral engine: transfer failed")
	// ErrMintFailed wraps a debt-token mint the token ledger refused.
	ErrMintFailed = errors.New("collateral engine: debt token mint failed")

	// ErrHealthFactorOk rejects liquidation of a solvent target.
	ErrHealthFactorOk = errors.New("collateral engine: target health factor not below minimum")
	// ErrHealthFactorNotImproved rejects a liquidation that failed to
	// strictly improve the target's solvency.
	ErrHealthFactorNotImproved = errors.New("collateral engine: liquidation did not improve target health factor")
)

// BrokenHealthFactorError reports a solvency gate failure together with the
// offending post-state ratio for diagnostics.
type BrokenHealthFactorError struct {
	HealthFactor *big.Int
}

func (e *BrokenHealthFactorError) Error() string {
	return fmt.Sprintf("collateral engine: health factor %s below minimum", e.HealthFactor)
}

// IsBrokenHealthFactor reports whether err is a solvency gate failure and, if
// so, returns the carried ratio.
func IsBrokenHealthFactor(err error) (*big.Int, bool) {
	var broken *BrokenHealthFactorError
	if errors.As(err, &broken) {
		return broken.HealthFactor, true
	}
	return nil, false
}

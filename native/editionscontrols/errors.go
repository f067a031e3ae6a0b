package editionscontrols

import "errors"

// The mint taxonomy. Every failure is terminal for the triggering call and
// commits no state; callers discriminate with errors.Is to decide whether to
// resubmit. Symbol and item uniqueness failures surface from the editions
// ledger package.
var (
	// ErrControlsNotFound means the symbol has no controls record.
	ErrControlsNotFound = errors.New("editions controls: controls not found")
	// ErrInvalidShareSplit means a recipient share list does not sum to 100
	// or exceeds the recipient limit.
	ErrInvalidShareSplit = errors.New("editions controls: share split must sum to 100")
	// ErrRoyaltyTooHigh means the royalty basis points exceed 10000.
	ErrRoyaltyTooHigh = errors.New("editions controls: royalty basis points exceed 10000")
	// ErrUnauthorized means the caller is not permitted to perform the
	// operation (phase appends and config updates are creator/admin only).
	ErrUnauthorized = errors.New("editions controls: unauthorized")
	// ErrInvalidTimeWindow means a phase end time does not come after its
	// start time.
	ErrInvalidTimeWindow = errors.New("editions controls: phase end must be after start")
	// ErrPhaseNotFound means the phase index addresses no existing phase.
	ErrPhaseNotFound = errors.New("editions controls: phase not found")
	// ErrPhaseNotActive means the current time is outside the phase window.
	ErrPhaseNotActive = errors.New("editions controls: phase not active")
	// ErrCollectionSoldOut means the deployment has issued its maximum
	// number of items. This never becomes false again.
	ErrCollectionSoldOut = errors.New("editions controls: collection sold out")
	// ErrPhaseSoldOut means the phase has reached its total mint cap.
	ErrPhaseSoldOut = errors.New("editions controls: phase sold out")
	// ErrNotOnAllowlist means the phase is gated and the caller supplied no
	// proof or an invalid one.
	ErrNotOnAllowlist = errors.New("editions controls: not on allowlist")
	// ErrWalletCapExceeded means the wallet hit its per-phase or global
	// per-wallet mint cap.
	ErrWalletCapExceeded = errors.New("editions controls: wallet cap exceeded")
	// ErrInsufficientFunds means the minter cannot cover the effective price.
	ErrInsufficientFunds = errors.New("editions controls: insufficient funds")
	// ErrFeeExceedsPrice means the platform fee plus royalty total exceeds
	// the effective price.
	ErrFeeExceedsPrice = errors.New("editions controls: total fee exceeds price")
	// ErrInvalidMerkleRoot means a phase config carried a root that is not
	// exactly 32 bytes.
	ErrInvalidMerkleRoot = errors.New("editions controls: merkle root must be 32 bytes")

	errNilState  = errors.New("editions controls engine: state not configured")
	errNilLedger = errors.New("editions controls engine: deployment ledger not configured")
)

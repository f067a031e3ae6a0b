package editionscontrols

import (
	"math/big"
	"sync"
	"time"

	"github.com/rarible/eclipse-program-library/core/events"
	"github.com/rarible/eclipse-program-library/core/types"
	"github.com/rarible/eclipse-program-library/native/editions"
)

type deploymentLedger interface {
	Initialise(cfg editions.InitialiseConfig) (*editions.Deployment, error)
	Deployment(symbol string) (*editions.Deployment, bool, error)
	Issue(symbol string, minter [20]byte) (*editions.Item, error)
}

type engineState interface {
	EditionsControlsGet(symbol string) (*Controls, bool, error)
	EditionsControlsPut(controls *Controls) error
	MinterStatsGet(symbol string, wallet [20]byte) (*MinterStats, bool, error)
	MinterStatsPut(symbol string, stats *MinterStats) error
	MinterStatsPhaseGet(symbol string, wallet [20]byte, phaseIndex uint32) (*MinterStats, bool, error)
	MinterStatsPhasePut(symbol string, phaseIndex uint32, stats *MinterStats) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// InitialiseConfig carries the full configuration for a new deployment and
// its controls record.
type InitialiseConfig struct {
	Symbol            string
	Creator           [20]byte
	Treasury          [20]byte
	MaxNumberOfTokens uint64
	MaxMintsPerWallet uint64
	CollectionName    string
	CollectionURI     string
	ItemName          string
	ItemURI           string
	Cosigner          [20]byte
	FeeAdmin          [20]byte // zero address defaults to the creator
	Royalty           RoyaltyConfig
	PlatformFee       PlatformFeeConfig
	ExtraMetadata     []editions.MetadataEntry
}

// PhaseConfig describes a phase to append to a deployment's phase list.
type PhaseConfig struct {
	PriceAmount       uint64
	PriceToken        string
	StartTime         uint64
	EndTime           uint64
	MaxMintsPerWallet uint64
	MaxMintsTotal     uint64
	MerkleRoot        []byte
}

// AllowlistClaim is the caller-supplied membership proof for a gated phase:
// the override terms plus the merkle path back to the committed root. It is
// never trusted without verification.
type AllowlistClaim struct {
	Price     uint64
	MaxClaims uint64
	Proof     [][32]byte
}

// MintInput names the phase to mint against and the identities involved.
// Minter pays and receives the item. Signer only matters when the deployment
// was configured with a cosigner.
type MintInput struct {
	Symbol     string
	PhaseIndex uint32
	Minter     [20]byte
	Signer     [20]byte
	Claim      *AllowlistClaim
}

// MintReceipt reports the outcome of a successful mint.
type MintReceipt struct {
	Item           *editions.Item
	PhaseIndex     uint32
	PricePaid      *big.Int
	PlatformFee    *big.Int
	RoyaltyTotal   *big.Int
	TreasuryAmount *big.Int
}

// Engine enforces mint eligibility and reconciles issuance with payment
// routing. All mutating operations serialize behind a single mutex so a
// request's check-through-commit sequence is one atomic unit against the
// records it touches.
type Engine struct {
	mu         sync.Mutex
	state      engineState
	ledger     deploymentLedger
	emitter    events.Emitter
	nowFn      func() int64
	truncation TruncationPolicy
}

// NewEngine constructs a controls engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetLedger configures the deployment ledger the engine issues through.
func (e *Engine) SetLedger(ledger deploymentLedger) { e.ledger = ledger }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetTruncationPolicy decides where fee/royalty truncation dust accrues.
func (e *Engine) SetTruncationPolicy(policy TruncationPolicy) { e.truncation = policy }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() uint64 {
	if e == nil || e.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{Balance: big.NewInt(0)}
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

func validateRoyalty(royalty RoyaltyConfig) error {
	if royalty.BasisPoints > bpsDenominator {
		return ErrRoyaltyTooHigh
	}
	if len(royalty.Recipients) == 0 {
		if royalty.BasisPoints == 0 {
			return nil
		}
		return ErrInvalidShareSplit
	}
	return validateShares(royalty.Recipients)
}

func validatePlatformFee(fee PlatformFeeConfig) error {
	if len(fee.Recipients) > maxFeeRecipients {
		return ErrInvalidShareSplit
	}
	if len(fee.Recipients) == 0 {
		if fee.Value == 0 {
			return nil
		}
		return ErrInvalidShareSplit
	}
	return validateShares(fee.Recipients)
}

// Initialise creates the deployment and its controls record in one step. The
// deployment starts with zero phases and zero issued items.
func (e *Engine) Initialise(cfg InitialiseConfig) (*Controls, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.ledger == nil {
		return nil, errNilLedger
	}
	if err := validateRoyalty(cfg.Royalty); err != nil {
		return nil, err
	}
	if err := validatePlatformFee(cfg.PlatformFee); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	deployment, err := e.ledger.Initialise(editions.InitialiseConfig{
		Symbol:            cfg.Symbol,
		Creator:           cfg.Creator,
		MaxNumberOfTokens: cfg.MaxNumberOfTokens,
		CollectionName:    cfg.CollectionName,
		CollectionURI:     cfg.CollectionURI,
		ItemName:          cfg.ItemName,
		ItemURI:           cfg.ItemURI,
		Cosigner:          cfg.Cosigner,
		ExtraMetadata:     cfg.ExtraMetadata,
	})
	if err != nil {
		return nil, err
	}
	feeAdmin := cfg.FeeAdmin
	if isZeroAddress(feeAdmin) {
		feeAdmin = cfg.Creator
	}
	controls := &Controls{
		Symbol:            deployment.Symbol,
		Creator:           cfg.Creator,
		Treasury:          cfg.Treasury,
		MaxMintsPerWallet: cfg.MaxMintsPerWallet,
		FeeAdmin:          feeAdmin,
		Royalty: RoyaltyConfig{
			BasisPoints: cfg.Royalty.BasisPoints,
			Recipients:  cloneRecipients(cfg.Royalty.Recipients),
		},
		PlatformFee: PlatformFeeConfig{
			Value:      cfg.PlatformFee.Value,
			IsFlat:     cfg.PlatformFee.IsFlat,
			Recipients: cloneRecipients(cfg.PlatformFee.Recipients),
		},
		Phases: []Phase{},
	}
	if err := e.state.EditionsControlsPut(controls); err != nil {
		return nil, err
	}
	e.emit(ControlsInitialisedEvent(controls))
	return controls.Clone(), nil
}

// AddPhase appends a phase to the deployment's ordered phase list and returns
// its stable index. Only the controls creator may append.
func (e *Engine) AddPhase(caller [20]byte, symbol string, cfg PhaseConfig) (uint32, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	controls, ok, err := e.state.EditionsControlsGet(symbol)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrControlsNotFound
	}
	if caller != controls.Creator {
		return 0, ErrUnauthorized
	}
	if cfg.EndTime <= cfg.StartTime {
		return 0, ErrInvalidTimeWindow
	}
	if len(cfg.MerkleRoot) != 0 && len(cfg.MerkleRoot) != 32 {
		return 0, ErrInvalidMerkleRoot
	}
	phase := Phase{
		PriceAmount:       cfg.PriceAmount,
		PriceToken:        cfg.PriceToken,
		StartTime:         cfg.StartTime,
		EndTime:           cfg.EndTime,
		MaxMintsPerWallet: cfg.MaxMintsPerWallet,
		MaxMintsTotal:     cfg.MaxMintsTotal,
		CurrentMints:      0,
	}
	if len(cfg.MerkleRoot) == 32 {
		phase.MerkleRoot = make([]byte, 32)
		copy(phase.MerkleRoot, cfg.MerkleRoot)
	}
	index := uint32(len(controls.Phases))
	controls.Phases = append(controls.Phases, phase)
	if err := e.state.EditionsControlsPut(controls); err != nil {
		return 0, err
	}
	e.emit(PhaseAddedEvent(symbol, index, phase))
	return index, nil
}

// UpdateRoyalties replaces the royalty configuration. Creator only.
func (e *Engine) UpdateRoyalties(caller [20]byte, symbol string, royalty RoyaltyConfig) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := validateRoyalty(royalty); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	controls, ok, err := e.state.EditionsControlsGet(symbol)
	if err != nil {
		return err
	}
	if !ok {
		return ErrControlsNotFound
	}
	if caller != controls.Creator {
		return ErrUnauthorized
	}
	controls.Royalty = RoyaltyConfig{
		BasisPoints: royalty.BasisPoints,
		Recipients:  cloneRecipients(royalty.Recipients),
	}
	if err := e.state.EditionsControlsPut(controls); err != nil {
		return err
	}
	e.emit(RoyaltiesUpdatedEvent(symbol, controls.Royalty))
	return nil
}

// UpdatePlatformFee replaces the platform fee configuration. Fee admin only.
func (e *Engine) UpdatePlatformFee(caller [20]byte, symbol string, fee PlatformFeeConfig) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := validatePlatformFee(fee); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	controls, ok, err := e.state.EditionsControlsGet(symbol)
	if err != nil {
		return err
	}
	if !ok {
		return ErrControlsNotFound
	}
	if caller != controls.FeeAdmin {
		return ErrUnauthorized
	}
	controls.PlatformFee = PlatformFeeConfig{
		Value:      fee.Value,
		IsFlat:     fee.IsFlat,
		Recipients: cloneRecipients(fee.Recipients),
	}
	if err := e.state.EditionsControlsPut(controls); err != nil {
		return err
	}
	e.emit(PlatformFeeUpdatedEvent(symbol, controls.PlatformFee))
	return nil
}

// Controls returns the controls record for the symbol without mutating state.
func (e *Engine) Controls(symbol string) (*Controls, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	controls, ok, err := e.state.EditionsControlsGet(symbol)
	if err != nil || !ok {
		return nil, ok, err
	}
	return controls.Clone(), true, nil
}

// MinterStats returns the deployment-wide mint counter for a wallet. Missing
// records read as zero without being created.
func (e *Engine) MinterStats(symbol string, wallet [20]byte) (*MinterStats, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stats, ok, err := e.state.MinterStatsGet(symbol, wallet)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &MinterStats{Wallet: wallet}, nil
	}
	return stats.Clone(), nil
}

// MinterStatsPhase returns the per-phase mint counter for a wallet. Missing
// records read as zero without being created.
func (e *Engine) MinterStatsPhase(symbol string, wallet [20]byte, phaseIndex uint32) (*MinterStats, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	stats, ok, err := e.state.MinterStatsPhaseGet(symbol, wallet, phaseIndex)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &MinterStats{Wallet: wallet}, nil
	}
	return stats.Clone(), nil
}

// MintWithControls runs the full eligibility check sequence and, only if
// every check passes, settles payment, issues the item and commits all
// counters. The first failing check aborts with no state change.
func (e *Engine) MintWithControls(input MintInput) (*MintReceipt, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.ledger == nil {
		return nil, errNilLedger
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	controls, ok, err := e.state.EditionsControlsGet(input.Symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrControlsNotFound
	}

	// 1. Phase existence.
	if int(input.PhaseIndex) >= len(controls.Phases) {
		return nil, ErrPhaseNotFound
	}
	phase := controls.Phases[input.PhaseIndex]

	// 2. Time window.
	now := e.now()
	if !phase.ActiveAt(now) {
		return nil, ErrPhaseNotActive
	}

	// 3. Global issuance cap.
	deployment, ok, err := e.ledger.Deployment(input.Symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, editions.ErrDeploymentNotFound
	}
	if !isZeroAddress(deployment.Cosigner) && input.Signer != deployment.Creator {
		return nil, ErrUnauthorized
	}
	if deployment.MaxNumberOfTokens > 0 && deployment.NumberOfTokensIssued >= deployment.MaxNumberOfTokens {
		return nil, ErrCollectionSoldOut
	}

	// 4. Phase cap.
	if phase.MaxMintsTotal > 0 && phase.CurrentMints >= phase.MaxMintsTotal {
		return nil, ErrPhaseSoldOut
	}

	// 5. Eligibility: open phase terms, or verified allowlist overrides.
	effectivePrice := phase.PriceAmount
	effectiveWalletCap := phase.MaxMintsPerWallet
	if phase.Gated() {
		claim := input.Claim
		if claim == nil {
			return nil, ErrNotOnAllowlist
		}
		if !VerifyAllowlist(phase.MerkleRoot, input.Minter, claim.Price, claim.MaxClaims, claim.Proof) {
			return nil, ErrNotOnAllowlist
		}
		effectivePrice = claim.Price
		effectiveWalletCap = claim.MaxClaims
	}

	// 6. Wallet caps, per phase then per deployment.
	statsPhase, ok, err := e.state.MinterStatsPhaseGet(input.Symbol, input.Minter, input.PhaseIndex)
	if err != nil {
		return nil, err
	}
	if !ok {
		statsPhase = &MinterStats{Wallet: input.Minter}
	}
	if effectiveWalletCap > 0 && statsPhase.MintCount >= effectiveWalletCap {
		return nil, ErrWalletCapExceeded
	}
	stats, ok, err := e.state.MinterStatsGet(input.Symbol, input.Minter)
	if err != nil {
		return nil, err
	}
	if !ok {
		stats = &MinterStats{Wallet: input.Minter}
	}
	if controls.MaxMintsPerWallet > 0 && stats.MintCount >= controls.MaxMintsPerWallet {
		return nil, ErrWalletCapExceeded
	}

	// 7. Payment and fee split. Shares were validated at configuration time
	// but are re-checked before money moves.
	if err := validatePlatformFee(controls.PlatformFee); err != nil {
		return nil, err
	}
	split, err := ComputeSplit(effectivePrice, controls.PlatformFee, controls.Royalty, controls.Treasury, e.truncation)
	if err != nil {
		return nil, err
	}
	minterAccount, err := e.state.GetAccount(input.Minter[:])
	if err != nil {
		return nil, err
	}
	minterAccount = ensureAccount(minterAccount)
	if minterAccount.Balance.Cmp(split.Price) < 0 {
		return nil, ErrInsufficientFunds
	}

	// All checks passed: settle, issue, commit.
	minterAccount.Balance = new(big.Int).Sub(minterAccount.Balance, split.Debit)
	if err := e.state.PutAccount(input.Minter[:], minterAccount); err != nil {
		return nil, err
	}
	for _, transfer := range split.Transfers {
		account, err := e.state.GetAccount(transfer.To[:])
		if err != nil {
			return nil, err
		}
		account = ensureAccount(account)
		account.Balance = new(big.Int).Add(account.Balance, transfer.Amount)
		if err := e.state.PutAccount(transfer.To[:], account); err != nil {
			return nil, err
		}
	}

	// 8. Issuance. The ledger increments the deployment counter and records
	// the item in the uniqueness hashlist.
	item, err := e.ledger.Issue(input.Symbol, input.Minter)
	if err != nil {
		return nil, err
	}

	// 9. Counter commit.
	controls.Phases[input.PhaseIndex].CurrentMints = phase.CurrentMints + 1
	if err := e.state.EditionsControlsPut(controls); err != nil {
		return nil, err
	}
	stats.MintCount++
	if err := e.state.MinterStatsPut(input.Symbol, stats); err != nil {
		return nil, err
	}
	statsPhase.MintCount++
	if err := e.state.MinterStatsPhasePut(input.Symbol, input.PhaseIndex, statsPhase); err != nil {
		return nil, err
	}

	e.emit(MintedEvent(input.Symbol, input.PhaseIndex, item, split))
	return &MintReceipt{
		Item:           item,
		PhaseIndex:     input.PhaseIndex,
		PricePaid:      split.Debit,
		PlatformFee:    split.PlatformFeeTotal,
		RoyaltyTotal:   split.RoyaltyTotal,
		TreasuryAmount: split.TreasuryAmount,
	}, nil
}

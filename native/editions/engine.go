package editions

import (
	"encoding/binary"
	"errors"
	"strconv"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/rarible/eclipse-program-library/core/events"
	"github.com/rarible/eclipse-program-library/core/types"
)

var (
	// ErrDuplicateSymbol is returned when initialising a deployment whose
	// symbol is already taken. Symbols are globally unique and immutable.
	ErrDuplicateSymbol = errors.New("editions: symbol already exists")
	// ErrDeploymentNotFound is returned when the named symbol has no
	// deployment record.
	ErrDeploymentNotFound = errors.New("editions: deployment not found")
	// ErrMintedOut is returned when issuance would push the counter past the
	// deployment's maximum number of tokens.
	ErrMintedOut = errors.New("editions: minted out")
	// ErrDuplicateItem is returned when an item hash is already present in
	// the deployment's hashlist. Monotonic indexing makes this unreachable
	// in practice but the ledger defends against it anyway.
	ErrDuplicateItem = errors.New("editions: item already minted")
	// ErrSymbolInvalid is returned for empty or oversized symbols.
	ErrSymbolInvalid = errors.New("editions: invalid symbol")
	// ErrTemplateTooLong is returned when a name or uri template exceeds the
	// stored record limits.
	ErrTemplateTooLong = errors.New("editions: template too long")

	errNilState = errors.New("editions engine: state not configured")
)

type engineState interface {
	EditionsDeploymentGet(symbol string) (*Deployment, bool, error)
	EditionsDeploymentPut(deployment *Deployment) error
	EditionsItemGet(symbol string, index uint64) (*Item, bool, error)
	EditionsItemPut(item *Item) error
	EditionsHashlistHas(symbol string, hash [32]byte) (bool, error)
	EditionsHashlistPut(symbol string, hash [32]byte) error
	EditionsMetadataAppend(symbol string, entries []MetadataEntry) error
	EditionsMetadataList(symbol string) ([]MetadataEntry, error)
}

// InitialiseConfig carries everything needed to create a deployment record.
type InitialiseConfig struct {
	Symbol            string
	Creator           [20]byte
	MaxNumberOfTokens uint64
	CollectionName    string
	CollectionURI     string
	ItemName          string
	ItemURI           string
	Cosigner          [20]byte
	ExtraMetadata     []MetadataEntry
}

// Engine owns the global issuance counter and the per-item uniqueness ledger
// for every deployment. The controls layer calls into it to mint.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs an editions ledger engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

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

func sanitizeSymbol(symbol string) (string, error) {
	trimmed := strings.TrimSpace(symbol)
	if trimmed == "" || len(trimmed) > maxSymbolLength {
		return "", ErrSymbolInvalid
	}
	return trimmed, nil
}

// itemHash derives the uniqueness ledger key for an issued item.
func itemHash(symbol string, index uint64) [32]byte {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256([]byte(symbol), idx[:]))
	return out
}

// renderTemplate substitutes the issuance index into the template when it is
// marked templated, otherwise returns the template verbatim.
func renderTemplate(template string, templated bool, index uint64) string {
	if !templated {
		return template
	}
	return strings.Replace(template, TemplatePlaceholder, strconv.FormatUint(index, 10), 1)
}

// Initialise creates the deployment record for a new symbol together with its
// write-once extra metadata.
func (e *Engine) Initialise(cfg InitialiseConfig) (*Deployment, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	symbol, err := sanitizeSymbol(cfg.Symbol)
	if err != nil {
		return nil, err
	}
	if len(cfg.ItemName) > maxTemplateLength || len(cfg.ItemURI) > maxTemplateLength {
		return nil, ErrTemplateTooLong
	}
	if _, ok, err := e.state.EditionsDeploymentGet(symbol); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrDuplicateSymbol
	}
	deployment := &Deployment{
		Symbol:            symbol,
		Creator:           cfg.Creator,
		MaxNumberOfTokens: cfg.MaxNumberOfTokens,
		CollectionName:    strings.TrimSpace(cfg.CollectionName),
		CollectionURI:     strings.TrimSpace(cfg.CollectionURI),
		ItemName:          cfg.ItemName,
		ItemURI:           cfg.ItemURI,
		NameIsTemplate:    strings.Contains(cfg.ItemName, TemplatePlaceholder),
		URIIsTemplate:     strings.Contains(cfg.ItemURI, TemplatePlaceholder),
		Cosigner:          cfg.Cosigner,
		CreatedAt:         e.now(),
	}
	if err := e.state.EditionsDeploymentPut(deployment); err != nil {
		return nil, err
	}
	if len(cfg.ExtraMetadata) > 0 {
		if err := e.state.EditionsMetadataAppend(symbol, cfg.ExtraMetadata); err != nil {
			return nil, err
		}
	}
	e.emit(DeploymentInitialisedEvent(deployment))
	return deployment.Clone(), nil
}

// Deployment returns the deployment record for the supplied symbol without
// mutating state.
func (e *Engine) Deployment(symbol string) (*Deployment, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	deployment, ok, err := e.state.EditionsDeploymentGet(symbol)
	if err != nil || !ok {
		return nil, ok, err
	}
	return deployment.Clone(), true, nil
}

// TotalIssued reports how many items have been issued against the symbol.
func (e *Engine) TotalIssued(symbol string) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	deployment, ok, err := e.state.EditionsDeploymentGet(symbol)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrDeploymentNotFound
	}
	return deployment.NumberOfTokensIssued, nil
}

// Item returns the issued item at the supplied index, if any.
func (e *Engine) Item(symbol string, index uint64) (*Item, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	item, ok, err := e.state.EditionsItemGet(symbol, index)
	if err != nil || !ok {
		return nil, ok, err
	}
	return item.Clone(), true, nil
}

// Metadata returns the write-once metadata entries attached at creation.
func (e *Engine) Metadata(symbol string) ([]MetadataEntry, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.EditionsMetadataList(symbol)
}

// Issue mints the next numbered item for the deployment. The index is the
// pre-increment issuance count; the item is recorded in the uniqueness ledger
// and the counter advances in the same call.
func (e *Engine) Issue(symbol string, minter [20]byte) (*Item, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	deployment, ok, err := e.state.EditionsDeploymentGet(symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrDeploymentNotFound
	}
	if deployment.MaxNumberOfTokens > 0 && deployment.NumberOfTokensIssued >= deployment.MaxNumberOfTokens {
		return nil, ErrMintedOut
	}
	index := deployment.NumberOfTokensIssued
	hash := itemHash(symbol, index)
	if exists, err := e.state.EditionsHashlistHas(symbol, hash); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateItem
	}
	item := &Item{
		Symbol:   symbol,
		Index:    index,
		Name:     renderTemplate(deployment.ItemName, deployment.NameIsTemplate, index),
		URI:      renderTemplate(deployment.ItemURI, deployment.URIIsTemplate, index),
		Minter:   minter,
		MintedAt: e.now(),
	}
	if err := e.state.EditionsItemPut(item); err != nil {
		return nil, err
	}
	if err := e.state.EditionsHashlistPut(symbol, hash); err != nil {
		return nil, err
	}
	deployment.NumberOfTokensIssued = index + 1
	if err := e.state.EditionsDeploymentPut(deployment); err != nil {
		return nil, err
	}
	e.emit(ItemIssuedEvent(item))
	return item.Clone(), nil
}

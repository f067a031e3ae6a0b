package editions

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

type mockState struct {
	deployments map[string]*Deployment
	items       map[string]map[uint64]*Item
	hashlist    map[string]map[[32]byte]bool
	metadata    map[string][]MetadataEntry
}

func newMockState() *mockState {
	return &mockState{
		deployments: make(map[string]*Deployment),
		items:       make(map[string]map[uint64]*Item),
		hashlist:    make(map[string]map[[32]byte]bool),
		metadata:    make(map[string][]MetadataEntry),
	}
}

func (m *mockState) EditionsDeploymentGet(symbol string) (*Deployment, bool, error) {
	deployment, ok := m.deployments[symbol]
	if !ok {
		return nil, false, nil
	}
	return deployment.Clone(), true, nil
}

func (m *mockState) EditionsDeploymentPut(deployment *Deployment) error {
	m.deployments[deployment.Symbol] = deployment.Clone()
	return nil
}

func (m *mockState) EditionsItemGet(symbol string, index uint64) (*Item, bool, error) {
	item, ok := m.items[symbol][index]
	if !ok {
		return nil, false, nil
	}
	return item.Clone(), true, nil
}

func (m *mockState) EditionsItemPut(item *Item) error {
	if m.items[item.Symbol] == nil {
		m.items[item.Symbol] = make(map[uint64]*Item)
	}
	m.items[item.Symbol][item.Index] = item.Clone()
	return nil
}

func (m *mockState) EditionsHashlistHas(symbol string, hash [32]byte) (bool, error) {
	return m.hashlist[symbol][hash], nil
}

func (m *mockState) EditionsHashlistPut(symbol string, hash [32]byte) error {
	if m.hashlist[symbol] == nil {
		m.hashlist[symbol] = make(map[[32]byte]bool)
	}
	m.hashlist[symbol][hash] = true
	return nil
}

func (m *mockState) EditionsMetadataAppend(symbol string, entries []MetadataEntry) error {
	m.metadata[symbol] = append(m.metadata[symbol], entries...)
	return nil
}

func (m *mockState) EditionsMetadataList(symbol string) ([]MetadataEntry, error) {
	return append([]MetadataEntry(nil), m.metadata[symbol]...), nil
}

func testAddr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestEngine(t *testing.T) (*Engine, *mockState) {
	t.Helper()
	state := newMockState()
	engine := NewEngine()
	engine.SetState(state)
	engine.SetNowFunc(func() int64 { return 1_700_000_000 })
	return engine, state
}

func baseConfig() InitialiseConfig {
	return InitialiseConfig{
		Symbol:            "T8V4",
		Creator:           testAddr(0xC0),
		MaxNumberOfTokens: 3,
		CollectionName:    "Test Collection",
		CollectionURI:     "ipfs://collection",
		ItemName:          "Item T8 V4 #{}",
		ItemURI:           "ipfs://item/{}",
	}
}

func TestInitialise(t *testing.T) {
	engine, _ := newTestEngine(t)

	deployment, err := engine.Initialise(baseConfig())
	if err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	if deployment.Symbol != "T8V4" {
		t.Fatalf("symbol = %q", deployment.Symbol)
	}
	if !deployment.NameIsTemplate || !deployment.URIIsTemplate {
		t.Fatal("templates containing the placeholder should be flagged")
	}
	if deployment.NumberOfTokensIssued != 0 {
		t.Fatalf("fresh deployment issued = %d", deployment.NumberOfTokensIssued)
	}
	if deployment.CreatedAt != 1_700_000_000 {
		t.Fatalf("created at = %d", deployment.CreatedAt)
	}

	if _, err := engine.Initialise(baseConfig()); !errors.Is(err, ErrDuplicateSymbol) {
		t.Fatalf("expected ErrDuplicateSymbol, got %v", err)
	}
}

func TestInitialiseSymbolValidation(t *testing.T) {
	engine, _ := newTestEngine(t)

	cfg := baseConfig()
	cfg.Symbol = "   "
	if _, err := engine.Initialise(cfg); !errors.Is(err, ErrSymbolInvalid) {
		t.Fatalf("expected ErrSymbolInvalid for blank symbol, got %v", err)
	}

	cfg = baseConfig()
	cfg.Symbol = strings.Repeat("X", maxSymbolLength+1)
	if _, err := engine.Initialise(cfg); !errors.Is(err, ErrSymbolInvalid) {
		t.Fatalf("expected ErrSymbolInvalid for oversized symbol, got %v", err)
	}

	cfg = baseConfig()
	cfg.Symbol = "  T8V4  "
	deployment, err := engine.Initialise(cfg)
	if err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	if deployment.Symbol != "T8V4" {
		t.Fatalf("symbol should be trimmed, got %q", deployment.Symbol)
	}
}

func TestInitialiseTemplateTooLong(t *testing.T) {
	engine, _ := newTestEngine(t)
	cfg := baseConfig()
	cfg.ItemURI = strings.Repeat("a", maxTemplateLength+1)
	if _, err := engine.Initialise(cfg); !errors.Is(err, ErrTemplateTooLong) {
		t.Fatalf("expected ErrTemplateTooLong, got %v", err)
	}
}

func TestInitialiseMetadata(t *testing.T) {
	engine, _ := newTestEngine(t)
	cfg := baseConfig()
	cfg.ExtraMetadata = []MetadataEntry{
		{Field: "artist", Value: "anon"},
		{Field: "series", Value: "8"},
	}
	if _, err := engine.Initialise(cfg); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	entries, err := engine.Metadata("T8V4")
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if len(entries) != 2 || entries[0].Field != "artist" || entries[1].Value != "8" {
		t.Fatalf("unexpected metadata %+v", entries)
	}
}

func TestIssueTemplates(t *testing.T) {
	engine, _ := newTestEngine(t)
	if _, err := engine.Initialise(baseConfig()); err != nil {
		t.Fatalf("Initialise: %v", err)
	}

	minter := testAddr(0xA1)
	for want := uint64(0); want < 3; want++ {
		item, err := engine.Issue("T8V4", minter)
		if err != nil {
			t.Fatalf("Issue %d: %v", want, err)
		}
		if item.Index != want {
			t.Fatalf("index = %d, want %d", item.Index, want)
		}
		wantName := "Item T8 V4 #" + strconv.FormatUint(want, 10)
		if item.Name != wantName {
			t.Fatalf("name = %q, want %q", item.Name, wantName)
		}
		if item.URI != "ipfs://item/"+strconv.FormatUint(want, 10) {
			t.Fatalf("uri = %q", item.URI)
		}
		if item.Minter != minter {
			t.Fatal("minter not recorded")
		}
	}

	issued, err := engine.TotalIssued("T8V4")
	if err != nil || issued != 3 {
		t.Fatalf("issued = %d err=%v, want 3", issued, err)
	}
}

func TestIssueNonTemplated(t *testing.T) {
	engine, _ := newTestEngine(t)
	cfg := baseConfig()
	cfg.ItemName = "Fixed Name"
	cfg.ItemURI = "ipfs://fixed"
	if _, err := engine.Initialise(cfg); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	item, err := engine.Issue("T8V4", testAddr(0xA1))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if item.Name != "Fixed Name" || item.URI != "ipfs://fixed" {
		t.Fatalf("non-templated fields must pass through verbatim, got %q %q", item.Name, item.URI)
	}
}

func TestIssueMintedOut(t *testing.T) {
	engine, _ := newTestEngine(t)
	cfg := baseConfig()
	cfg.MaxNumberOfTokens = 1
	if _, err := engine.Initialise(cfg); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	if _, err := engine.Issue("T8V4", testAddr(0xA1)); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := engine.Issue("T8V4", testAddr(0xA2)); !errors.Is(err, ErrMintedOut) {
		t.Fatalf("expected ErrMintedOut, got %v", err)
	}
}

func TestIssueUnlimitedWhenCapZero(t *testing.T) {
	engine, _ := newTestEngine(t)
	cfg := baseConfig()
	cfg.MaxNumberOfTokens = 0
	if _, err := engine.Initialise(cfg); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := engine.Issue("T8V4", testAddr(0xA1)); err != nil {
			t.Fatalf("Issue %d: %v", i, err)
		}
	}
}

func TestIssueUnknownSymbol(t *testing.T) {
	engine, _ := newTestEngine(t)
	if _, err := engine.Issue("NOPE", testAddr(0xA1)); !errors.Is(err, ErrDeploymentNotFound) {
		t.Fatalf("expected ErrDeploymentNotFound, got %v", err)
	}
}

func TestIssueDuplicateDefense(t *testing.T) {
	engine, state := newTestEngine(t)
	if _, err := engine.Initialise(baseConfig()); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	// Pre-seed the hashlist entry the next issue would claim.
	if err := state.EditionsHashlistPut("T8V4", itemHash("T8V4", 0)); err != nil {
		t.Fatalf("seed hashlist: %v", err)
	}
	if _, err := engine.Issue("T8V4", testAddr(0xA1)); !errors.Is(err, ErrDuplicateItem) {
		t.Fatalf("expected ErrDuplicateItem, got %v", err)
	}
}

func TestItemLookup(t *testing.T) {
	engine, _ := newTestEngine(t)
	if _, err := engine.Initialise(baseConfig()); err != nil {
		t.Fatalf("Initialise: %v", err)
	}
	if _, err := engine.Issue("T8V4", testAddr(0xA1)); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	item, ok, err := engine.Item("T8V4", 0)
	if err != nil || !ok {
		t.Fatalf("Item: ok=%v err=%v", ok, err)
	}
	if item.Index != 0 {
		t.Fatalf("index = %d", item.Index)
	}
	if _, ok, err := engine.Item("T8V4", 99); err != nil || ok {
		t.Fatalf("missing item: ok=%v err=%v", ok, err)
	}
}

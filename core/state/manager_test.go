package state

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/rarible/eclipse-program-library/core/types"
	"github.com/rarible/eclipse-program-library/native/editions"
	"github.com/rarible/eclipse-program-library/native/editionscontrols"
	"github.com/rarible/eclipse-program-library/storage"
)

func testAddr(b byte) [20]byte {
	var out [20]byte
	out[19] = b
	return out
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestAccountRoundtrip(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x01)

	account, err := manager.GetAccount(addr[:])
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if account != nil {
		t.Fatal("missing account should read as nil")
	}

	if err := manager.PutAccount(addr[:], &types.Account{Nonce: 7, Balance: big.NewInt(12345)}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	account, err = manager.GetAccount(addr[:])
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if account == nil || account.Nonce != 7 || account.Balance.Int64() != 12345 {
		t.Fatalf("unexpected account %+v", account)
	}
}

func TestPutAccountNilBalance(t *testing.T) {
	manager := newTestManager(t)
	addr := testAddr(0x02)
	if err := manager.PutAccount(addr[:], &types.Account{}); err != nil {
		t.Fatalf("PutAccount: %v", err)
	}
	account, err := manager.GetAccount(addr[:])
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if account.Balance == nil || account.Balance.Sign() != 0 {
		t.Fatalf("balance should read as zero, got %+v", account)
	}
}

func TestDeploymentRoundtripAndSymbolList(t *testing.T) {
	manager := newTestManager(t)

	deployment := &editions.Deployment{
		Symbol:            "T8V4",
		Creator:           testAddr(0xC0),
		MaxNumberOfTokens: 1150,
		CollectionName:    "Test Collection",
		CollectionURI:     "ipfs://collection",
		ItemName:          "Item T8 V4 #{}",
		ItemURI:           "ipfs://item/{}",
		NameIsTemplate:    true,
		URIIsTemplate:     true,
		CreatedAt:         1_700_000_000,
	}
	if err := manager.EditionsDeploymentPut(deployment); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := manager.EditionsDeploymentGet("T8V4")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Symbol != deployment.Symbol || got.MaxNumberOfTokens != 1150 || !got.NameIsTemplate {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.CreatedAt != deployment.CreatedAt {
		t.Fatalf("created at = %d", got.CreatedAt)
	}

	if _, ok, err := manager.EditionsDeploymentGet("NOPE"); err != nil || ok {
		t.Fatalf("missing deployment: ok=%v err=%v", ok, err)
	}

	// Overwriting must not duplicate the symbol list entry.
	deployment.NumberOfTokensIssued = 1
	if err := manager.EditionsDeploymentPut(deployment); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	list, err := manager.SymbolList()
	if err != nil {
		t.Fatalf("SymbolList: %v", err)
	}
	if len(list) != 1 || list[0] != "T8V4" {
		t.Fatalf("symbol list = %v", list)
	}
}

func TestSymbolListOrder(t *testing.T) {
	manager := newTestManager(t)
	for _, symbol := range []string{"AAA", "BBB", "CCC"} {
		if err := manager.EditionsDeploymentPut(&editions.Deployment{Symbol: symbol}); err != nil {
			t.Fatalf("put %s: %v", symbol, err)
		}
	}
	list, err := manager.SymbolList()
	if err != nil {
		t.Fatalf("SymbolList: %v", err)
	}
	if len(list) != 3 || list[0] != "AAA" || list[2] != "CCC" {
		t.Fatalf("symbol list = %v", list)
	}
}

func TestItemRoundtrip(t *testing.T) {
	manager := newTestManager(t)
	item := &editions.Item{
		Symbol:   "T8V4",
		Index:    4,
		Name:     "Item T8 V4 #4",
		URI:      "ipfs://item/4",
		Minter:   testAddr(0xA1),
		MintedAt: 1_700_000_100,
	}
	if err := manager.EditionsItemPut(item); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := manager.EditionsItemGet("T8V4", 4)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Name != item.Name || got.Minter != item.Minter || got.MintedAt != item.MintedAt {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if _, ok, err := manager.EditionsItemGet("T8V4", 5); err != nil || ok {
		t.Fatalf("missing item: ok=%v err=%v", ok, err)
	}
}

func TestHashlist(t *testing.T) {
	manager := newTestManager(t)
	var hash [32]byte
	hash[0] = 0xAB

	has, err := manager.EditionsHashlistHas("T8V4", hash)
	if err != nil || has {
		t.Fatalf("fresh hashlist: has=%v err=%v", has, err)
	}
	if err := manager.EditionsHashlistPut("T8V4", hash); err != nil {
		t.Fatalf("put: %v", err)
	}
	has, err = manager.EditionsHashlistHas("T8V4", hash)
	if err != nil || !has {
		t.Fatalf("after put: has=%v err=%v", has, err)
	}
	// Same hash under another symbol is a distinct key.
	has, err = manager.EditionsHashlistHas("OTHER", hash)
	if err != nil || has {
		t.Fatalf("cross-symbol: has=%v err=%v", has, err)
	}
}

func TestMetadataAppend(t *testing.T) {
	manager := newTestManager(t)
	entries, err := manager.EditionsMetadataList("T8V4")
	if err != nil || len(entries) != 0 {
		t.Fatalf("fresh metadata: %v err=%v", entries, err)
	}
	if err := manager.EditionsMetadataAppend("T8V4", []editions.MetadataEntry{{Field: "artist", Value: "anon"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := manager.EditionsMetadataAppend("T8V4", []editions.MetadataEntry{{Field: "series", Value: "8"}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	entries, err = manager.EditionsMetadataList("T8V4")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 || entries[0].Field != "artist" || entries[1].Field != "series" {
		t.Fatalf("unexpected metadata %+v", entries)
	}
}

func TestControlsRoundtrip(t *testing.T) {
	manager := newTestManager(t)
	root := bytes.Repeat([]byte{0x11}, 32)
	controls := &editionscontrols.Controls{
		Symbol:            "T8V4",
		Creator:           testAddr(0xC0),
		Treasury:          testAddr(0xC1),
		MaxMintsPerWallet: 5,
		FeeAdmin:          testAddr(0xC0),
		Royalty: editionscontrols.RoyaltyConfig{
			BasisPoints: 1000,
			Recipients: []editionscontrols.RecipientShare{
				{Address: testAddr(0xC3), Share: 50},
				{Address: testAddr(0xC4), Share: 50},
			},
		},
		PlatformFee: editionscontrols.PlatformFeeConfig{
			Value:      500_000,
			IsFlat:     true,
			Recipients: []editionscontrols.RecipientShare{{Address: testAddr(0xC2), Share: 100}},
		},
		Phases: []editionscontrols.Phase{
			{
				PriceAmount:       1000,
				PriceToken:        "ECL",
				StartTime:         1_000,
				EndTime:           2_000,
				MaxMintsPerWallet: 3,
				MaxMintsTotal:     100,
				CurrentMints:      7,
			},
			{
				PriceAmount: 500,
				StartTime:   2_000,
				EndTime:     3_000,
				MerkleRoot:  root,
			},
		},
	}
	if err := manager.EditionsControlsPut(controls); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok, err := manager.EditionsControlsGet("T8V4")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.MaxMintsPerWallet != 5 || len(got.Phases) != 2 {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.Phases[0].CurrentMints != 7 || got.Phases[0].PriceToken != "ECL" {
		t.Fatalf("phase 0 mismatch: %+v", got.Phases[0])
	}
	if !bytes.Equal(got.Phases[1].MerkleRoot, root) {
		t.Fatal("merkle root did not survive the roundtrip")
	}
	if !got.Phases[1].Gated() || got.Phases[0].Gated() {
		t.Fatal("gating flags wrong after decode")
	}
	if len(got.Royalty.Recipients) != 2 || got.Royalty.Recipients[0].Share != 50 {
		t.Fatalf("royalty mismatch: %+v", got.Royalty)
	}
	if !got.PlatformFee.IsFlat || got.PlatformFee.Value != 500_000 {
		t.Fatalf("platform fee mismatch: %+v", got.PlatformFee)
	}
}

func TestMinterStats(t *testing.T) {
	manager := newTestManager(t)
	wallet := testAddr(0xA1)

	if _, ok, err := manager.MinterStatsGet("T8V4", wallet); err != nil || ok {
		t.Fatalf("fresh stats: ok=%v err=%v", ok, err)
	}
	if err := manager.MinterStatsPut("T8V4", &editionscontrols.MinterStats{Wallet: wallet, MintCount: 2}); err != nil {
		t.Fatalf("put: %v", err)
	}
	stats, ok, err := manager.MinterStatsGet("T8V4", wallet)
	if err != nil || !ok || stats.MintCount != 2 {
		t.Fatalf("get: stats=%+v ok=%v err=%v", stats, ok, err)
	}

	// Per-phase counters live under their own keys.
	if _, ok, err := manager.MinterStatsPhaseGet("T8V4", wallet, 0); err != nil || ok {
		t.Fatalf("fresh phase stats: ok=%v err=%v", ok, err)
	}
	if err := manager.MinterStatsPhasePut("T8V4", 0, &editionscontrols.MinterStats{Wallet: wallet, MintCount: 1}); err != nil {
		t.Fatalf("phase put: %v", err)
	}
	phaseStats, ok, err := manager.MinterStatsPhaseGet("T8V4", wallet, 0)
	if err != nil || !ok || phaseStats.MintCount != 1 {
		t.Fatalf("phase get: stats=%+v ok=%v err=%v", phaseStats, ok, err)
	}
	if _, ok, err := manager.MinterStatsPhaseGet("T8V4", wallet, 1); err != nil || ok {
		t.Fatalf("other phase: ok=%v err=%v", ok, err)
	}

	stats, ok, err = manager.MinterStatsGet("T8V4", wallet)
	if err != nil || !ok || stats.MintCount != 2 {
		t.Fatalf("global stats disturbed: %+v ok=%v err=%v", stats, ok, err)
	}
}

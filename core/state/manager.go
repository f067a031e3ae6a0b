package state

import (
	"encoding/binary"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/rarible/eclipse-program-library/core/types"
	"github.com/rarible/eclipse-program-library/native/editions"
	"github.com/rarible/eclipse-program-library/native/editionscontrols"
	"github.com/rarible/eclipse-program-library/storage"
)

// Manager reads and writes the engine's record types against a key-value
// store. Keys are keccak-hashed over a prefix plus the record's natural
// identifier; values are RLP, keeping the on-disk layout deterministic.
//
// Manager is the single state backend behind both the editions ledger and
// the controls engine; the engines serialize their own mutating sequences.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager on top of the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func hashedKey(prefix []byte, suffix ...[]byte) []byte {
	buf := append([]byte{}, prefix...)
	for _, part := range suffix {
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func indexBytes(index uint64) []byte {
	var out [8]byte
	binary.LittleEndian.PutUint64(out[:], index)
	return out[:]
}

func phaseBytes(phaseIndex uint32) []byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], phaseIndex)
	return out[:]
}

// getRecord decodes the value at key into out, reporting whether it existed.
func (m *Manager) getRecord(key []byte, out interface{}) (bool, error) {
	data, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) putRecord(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// --- Accounts ---

// GetAccount loads the account for the supplied address, or nil when the
// address has never held a balance.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	account := new(types.Account)
	ok, err := m.getRecord(hashedKey(accountPrefix, addr), account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return account, nil
}

// PutAccount stores the account under the supplied address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		account = &types.Account{}
	}
	if account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return m.putRecord(hashedKey(accountPrefix, addr), account)
}

// --- Deployments ---

func (m *Manager) EditionsDeploymentGet(symbol string) (*editions.Deployment, bool, error) {
	deployment := new(editions.Deployment)
	ok, err := m.getRecord(hashedKey(deploymentPrefix, []byte(symbol)), deployment)
	if err != nil || !ok {
		return nil, false, err
	}
	return deployment, true, nil
}

func (m *Manager) EditionsDeploymentPut(deployment *editions.Deployment) error {
	key := hashedKey(deploymentPrefix, []byte(deployment.Symbol))
	exists, err := m.db.Has(key)
	if err != nil {
		return err
	}
	if err := m.putRecord(key, deployment); err != nil {
		return err
	}
	if !exists {
		return m.appendSymbol(deployment.Symbol)
	}
	return nil
}

func (m *Manager) appendSymbol(symbol string) error {
	list, err := m.SymbolList()
	if err != nil {
		return err
	}
	list = append(list, symbol)
	return m.putRecord(symbolListKey, list)
}

// SymbolList returns every deployed symbol in creation order.
func (m *Manager) SymbolList() ([]string, error) {
	var list []string
	ok, err := m.getRecord(symbolListKey, &list)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return list, nil
}

// --- Items & uniqueness ledger ---

func (m *Manager) EditionsItemGet(symbol string, index uint64) (*editions.Item, bool, error) {
	item := new(editions.Item)
	ok, err := m.getRecord(hashedKey(itemPrefix, []byte(symbol), indexBytes(index)), item)
	if err != nil || !ok {
		return nil, false, err
	}
	return item, true, nil
}

func (m *Manager) EditionsItemPut(item *editions.Item) error {
	return m.putRecord(hashedKey(itemPrefix, []byte(item.Symbol), indexBytes(item.Index)), item)
}

func (m *Manager) EditionsHashlistHas(symbol string, hash [32]byte) (bool, error) {
	return m.db.Has(hashedKey(hashlistPrefix, []byte(symbol), hash[:]))
}

func (m *Manager) EditionsHashlistPut(symbol string, hash [32]byte) error {
	return m.db.Put(hashedKey(hashlistPrefix, []byte(symbol), hash[:]), []byte{0x01})
}

// --- Write-once metadata ---

func (m *Manager) EditionsMetadataAppend(symbol string, entries []editions.MetadataEntry) error {
	existing, err := m.EditionsMetadataList(symbol)
	if err != nil {
		return err
	}
	existing = append(existing, entries...)
	return m.putRecord(hashedKey(metadataPrefix, []byte(symbol)), existing)
}

func (m *Manager) EditionsMetadataList(symbol string) ([]editions.MetadataEntry, error) {
	var entries []editions.MetadataEntry
	ok, err := m.getRecord(hashedKey(metadataPrefix, []byte(symbol)), &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []editions.MetadataEntry{}, nil
	}
	return entries, nil
}

// --- Controls ---

func (m *Manager) EditionsControlsGet(symbol string) (*editionscontrols.Controls, bool, error) {
	controls := new(editionscontrols.Controls)
	ok, err := m.getRecord(hashedKey(controlsPrefix, []byte(symbol)), controls)
	if err != nil || !ok {
		return nil, false, err
	}
	return controls, true, nil
}

func (m *Manager) EditionsControlsPut(controls *editionscontrols.Controls) error {
	return m.putRecord(hashedKey(controlsPrefix, []byte(controls.Symbol)), controls)
}

// --- Minter stats ---

func (m *Manager) MinterStatsGet(symbol string, wallet [20]byte) (*editionscontrols.MinterStats, bool, error) {
	stats := new(editionscontrols.MinterStats)
	ok, err := m.getRecord(hashedKey(minterStatsPrefix, []byte(symbol), wallet[:]), stats)
	if err != nil || !ok {
		return nil, false, err
	}
	return stats, true, nil
}

func (m *Manager) MinterStatsPut(symbol string, stats *editionscontrols.MinterStats) error {
	return m.putRecord(hashedKey(minterStatsPrefix, []byte(symbol), stats.Wallet[:]), stats)
}

func (m *Manager) MinterStatsPhaseGet(symbol string, wallet [20]byte, phaseIndex uint32) (*editionscontrols.MinterStats, bool, error) {
	stats := new(editionscontrols.MinterStats)
	key := hashedKey(minterStatsPhasePrefix, []byte(symbol), wallet[:], phaseBytes(phaseIndex))
	ok, err := m.getRecord(key, stats)
	if err != nil || !ok {
		return nil, false, err
	}
	return stats, true, nil
}

func (m *Manager) MinterStatsPhasePut(symbol string, phaseIndex uint32, stats *editionscontrols.MinterStats) error {
	key := hashedKey(minterStatsPhasePrefix, []byte(symbol), stats.Wallet[:], phaseBytes(phaseIndex))
	return m.putRecord(key, stats)
}

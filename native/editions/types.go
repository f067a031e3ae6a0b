package editions

// TemplatePlaceholder marks the position in an item name or uri template that
// is replaced with the issuance index of each minted item.
const TemplatePlaceholder = "{}"

const (
	maxSymbolLength   = 32
	maxTemplateLength = 256
)

// Deployment is the top-level record describing a collection: its issuance
// limit, the templates items are rendered from, and the running counter of
// items issued so far. One deployment exists per symbol, created once and
// mutated only by counter increments thereafter.
type Deployment struct {
	Symbol               string   `json:"symbol"`
	Creator              [20]byte `json:"creator"`
	MaxNumberOfTokens    uint64   `json:"maxNumberOfTokens"` // 0 = unlimited
	NumberOfTokensIssued uint64   `json:"numberOfTokensIssued"`
	CollectionName       string   `json:"collectionName"`
	CollectionURI        string   `json:"collectionUri"`
	ItemName             string   `json:"itemName"`
	ItemURI              string   `json:"itemUri"`
	NameIsTemplate       bool     `json:"nameIsTemplate"`
	URIIsTemplate        bool     `json:"uriIsTemplate"`
	Cosigner             [20]byte `json:"cosigner"` // zero address = no cosigner
	CreatedAt            uint64   `json:"createdAt"`
}

// Clone returns a deep copy of the deployment record.
func (d *Deployment) Clone() *Deployment {
	if d == nil {
		return nil
	}
	clone := *d
	return &clone
}

// Item is a single numbered edition issued against a deployment. Once
// recorded it is tracked forever in the deployment's hashlist and can never
// be issued again.
type Item struct {
	Symbol   string   `json:"symbol"`
	Index    uint64   `json:"index"`
	Name     string   `json:"name"`
	URI      string   `json:"uri"`
	Minter   [20]byte `json:"minter"`
	MintedAt uint64   `json:"mintedAt"`
}

// Clone returns a copy of the item record.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}

// MetadataEntry is a write-once field/value pair attached to a deployment at
// creation time. The engine stores but never interprets these.
type MetadataEntry struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

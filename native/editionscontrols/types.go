package editionscontrols

// RecipientShare pairs a payout address with its whole-percent share of a
// distribution. Shares across one list sum to exactly 100.
type RecipientShare struct {
	Address [20]byte `json:"address"`
	Share   uint8    `json:"share"`
}

// RoyaltyConfig describes the secondary split computed from the mint price.
type RoyaltyConfig struct {
	BasisPoints uint32           `json:"basisPoints"`
	Recipients  []RecipientShare `json:"recipients"`
}

// PlatformFeeConfig describes the platform cut deducted from the mint price.
// Value is either a flat amount or basis points depending on IsFlat.
type PlatformFeeConfig struct {
	Value      uint64           `json:"value"`
	IsFlat     bool             `json:"isFlat"`
	Recipients []RecipientShare `json:"recipients"`
}

// Phase is a time-boxed sub-sale with its own price, caps and optional
// allowlist. Phases are appended by the creator and never removed or
// reordered, so the slice index is a stable external address.
type Phase struct {
	PriceAmount       uint64 `json:"priceAmount"`
	PriceToken        string `json:"priceToken"`
	StartTime         uint64 `json:"startTime"`
	EndTime           uint64 `json:"endTime"`
	MaxMintsPerWallet uint64 `json:"maxMintsPerWallet"` // 0 = unlimited
	MaxMintsTotal     uint64 `json:"maxMintsTotal"`     // 0 = unlimited
	CurrentMints      uint64 `json:"currentMints"`
	MerkleRoot        []byte `json:"merkleRoot"` // empty = open phase
}

// Gated reports whether the phase requires an allowlist membership proof.
func (p Phase) Gated() bool { return len(p.MerkleRoot) > 0 }

// ActiveAt reports whether the phase window contains the supplied time.
func (p Phase) ActiveAt(now uint64) bool {
	return p.StartTime <= now && now < p.EndTime
}

// Controls is the gating and economics layer attached to a deployment: the
// ordered phase list, treasury, per-wallet cap and fee/royalty configuration.
type Controls struct {
	Symbol            string            `json:"symbol"`
	Creator           [20]byte          `json:"creator"`
	Treasury          [20]byte          `json:"treasury"`
	MaxMintsPerWallet uint64            `json:"maxMintsPerWallet"` // 0 = unlimited
	FeeAdmin          [20]byte          `json:"feeAdmin"`
	Royalty           RoyaltyConfig     `json:"royalty"`
	PlatformFee       PlatformFeeConfig `json:"platformFee"`
	Phases            []Phase           `json:"phases"`
}

func cloneRecipients(in []RecipientShare) []RecipientShare {
	if in == nil {
		return nil
	}
	out := make([]RecipientShare, len(in))
	copy(out, in)
	return out
}

// Clone returns a deep copy of the controls record.
func (c *Controls) Clone() *Controls {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Royalty.Recipients = cloneRecipients(c.Royalty.Recipients)
	clone.PlatformFee.Recipients = cloneRecipients(c.PlatformFee.Recipients)
	if c.Phases != nil {
		clone.Phases = make([]Phase, len(c.Phases))
		for i, phase := range c.Phases {
			clone.Phases[i] = phase
			if phase.MerkleRoot != nil {
				root := make([]byte, len(phase.MerkleRoot))
				copy(root, phase.MerkleRoot)
				clone.Phases[i].MerkleRoot = root
			}
		}
	}
	return &clone
}

// MinterStats counts successful mints by one wallet, either across a whole
// deployment or within a single phase. Records are created lazily on first
// mint and only ever incremented.
type MinterStats struct {
	Wallet    [20]byte `json:"wallet"`
	MintCount uint64   `json:"mintCount"`
}

// Clone returns a copy of the stats record.
func (m *MinterStats) Clone() *MinterStats {
	if m == nil {
		return nil
	}
	clone := *m
	return &clone
}

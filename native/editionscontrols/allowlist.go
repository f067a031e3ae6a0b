package editionscontrols

import (
	"bytes"
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// leafPrefix discerns leaf nodes from interior nodes to prevent trivial
// second pre-image attacks.
// https://flawed.net.nz/2018/02/21/attacking-merkle-trees-with-a-second-preimage-attack
var leafPrefix = []byte{0x00}

// AllowlistLeaf derives the committed leaf node for one allowlist entry:
// the keccak of (wallet, override price, override max claims) wrapped once
// more under the leaf domain prefix.
func AllowlistLeaf(wallet [20]byte, price uint64, maxClaims uint64) [32]byte {
	var priceLE, claimsLE [8]byte
	binary.LittleEndian.PutUint64(priceLE[:], price)
	binary.LittleEndian.PutUint64(claimsLE[:], maxClaims)
	inner := ethcrypto.Keccak256(wallet[:], priceLE[:], claimsLE[:])
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(leafPrefix, inner))
	return out
}

// VerifyAllowlist recomputes the merkle root from the supplied proof path and
// compares it against the phase's committed root. Each step hashes the pair
// ordered by byte comparison (smaller hash first) so recomputation does not
// depend on the leaf's position in the tree. The check is pure: it reads no
// counter state and has no side effects.
func VerifyAllowlist(root []byte, wallet [20]byte, price uint64, maxClaims uint64, proof [][32]byte) bool {
	if len(root) != 32 {
		return false
	}
	computed := AllowlistLeaf(wallet, price, maxClaims)
	for _, sibling := range proof {
		var parent []byte
		if bytes.Compare(computed[:], sibling[:]) <= 0 {
			parent = ethcrypto.Keccak256(computed[:], sibling[:])
		} else {
			parent = ethcrypto.Keccak256(sibling[:], computed[:])
		}
		copy(computed[:], parent)
	}
	return bytes.Equal(computed[:], root)
}

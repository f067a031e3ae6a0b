package types

import "math/big"

// Account tracks the native token balance for a wallet touched by the
// editions engine. Balances are debited for mint payments and credited for
// treasury, platform fee and royalty routing.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	return &clone
}

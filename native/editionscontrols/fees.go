package editionscontrols

import "math/big"

// maxFeeRecipients bounds the platform fee recipient list.
const maxFeeRecipients = 5

const (
	shareDenominator = 100
	bpsDenominator   = 10_000
)

// TruncationPolicy decides where the dust lost to integer-division truncation
// ends up. The split itself never redistributes remainders across recipients;
// callers depend on the exact per-recipient amounts.
type TruncationPolicy uint8

const (
	// TruncationRemainderWithPayer leaves the dust with the paying wallet:
	// only amounts actually routed are drawn from the minter.
	TruncationRemainderWithPayer TruncationPolicy = iota
	// TruncationRemainderToTreasury draws the full price from the minter and
	// credits the dust to the treasury.
	TruncationRemainderToTreasury
)

// Transfer is one leg of a computed mint settlement.
type Transfer struct {
	To     [20]byte
	Amount *big.Int
}

// Split is the full settlement plan for one mint: the platform fee, royalty
// and treasury legs, plus how much must be drawn from the minter to fund
// them. Sum of all transfer amounts always equals Debit, and Debit never
// exceeds Price.
type Split struct {
	Price            *big.Int
	PlatformFeeTotal *big.Int
	RoyaltyTotal     *big.Int
	TreasuryAmount   *big.Int
	TruncationLoss   *big.Int
	Debit            *big.Int
	Transfers        []Transfer
}

func validateShares(recipients []RecipientShare) error {
	total := 0
	for _, recipient := range recipients {
		total += int(recipient.Share)
	}
	if total != shareDenominator {
		return ErrInvalidShareSplit
	}
	return nil
}

func isZeroAddress(addr [20]byte) bool {
	var zero [20]byte
	return addr == zero
}

// mulDiv computes floor(total * numerator / denominator).
func mulDiv(total *big.Int, numerator, denominator uint64) *big.Int {
	out := new(big.Int).Mul(total, new(big.Int).SetUint64(numerator))
	return out.Div(out, new(big.Int).SetUint64(denominator))
}

func appendShares(transfers []Transfer, total *big.Int, recipients []RecipientShare, distributed *big.Int) []Transfer {
	for _, recipient := range recipients {
		if recipient.Share == 0 || isZeroAddress(recipient.Address) {
			continue
		}
		amount := mulDiv(total, uint64(recipient.Share), shareDenominator)
		if amount.Sign() == 0 {
			continue
		}
		distributed.Add(distributed, amount)
		transfers = append(transfers, Transfer{To: recipient.Address, Amount: amount})
	}
	return transfers
}

// ComputeSplit works out the settlement plan for a mint at the supplied
// price. The platform fee is deducted first (flat amount or basis points of
// the price), the royalty total is computed from the full price, and the
// remainder goes to the treasury. Per-recipient amounts truncate; the
// resulting dust follows the truncation policy and is never redistributed.
func ComputeSplit(price uint64, fee PlatformFeeConfig, royalty RoyaltyConfig, treasury [20]byte, policy TruncationPolicy) (*Split, error) {
	priceAmount := new(big.Int).SetUint64(price)

	feeTotal := new(big.Int)
	if fee.IsFlat {
		feeTotal.SetUint64(fee.Value)
	} else {
		feeTotal = mulDiv(priceAmount, fee.Value, bpsDenominator)
	}
	royaltyTotal := mulDiv(priceAmount, uint64(royalty.BasisPoints), bpsDenominator)

	obligations := new(big.Int).Add(feeTotal, royaltyTotal)
	if obligations.Cmp(priceAmount) > 0 {
		return nil, ErrFeeExceedsPrice
	}
	treasuryAmount := new(big.Int).Sub(priceAmount, obligations)

	distributed := new(big.Int)
	transfers := appendShares(nil, feeTotal, fee.Recipients, distributed)
	transfers = appendShares(transfers, royaltyTotal, royalty.Recipients, distributed)

	loss := new(big.Int).Sub(obligations, distributed)
	if policy == TruncationRemainderToTreasury {
		treasuryAmount = treasuryAmount.Add(treasuryAmount, loss)
		loss = new(big.Int)
	}
	if treasuryAmount.Sign() > 0 {
		transfers = append(transfers, Transfer{To: treasury, Amount: new(big.Int).Set(treasuryAmount)})
	}

	debit := new(big.Int).Sub(priceAmount, loss)
	return &Split{
		Price:            priceAmount,
		PlatformFeeTotal: feeTotal,
		RoyaltyTotal:     royaltyTotal,
		TreasuryAmount:   treasuryAmount,
		TruncationLoss:   loss,
		Debit:            debit,
		Transfers:        transfers,
	}, nil
}

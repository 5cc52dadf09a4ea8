package service

import (
	"wallet-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

var (
	oneHundred  = decimal.NewFromInt(100)
	oneThousand = decimal.NewFromInt(1000)
)

// ComputeFee returns the fee charged for a transaction under the given
// policy. Deposits never carry a fee. The function is pure and rerunnable:
// it is called at creation time and again whenever aggregates are audited.
//
// Clamp order is raw fee -> max cap -> min floor. A min floor larger than
// the max cap therefore wins; callers relying on the cap must keep
// MinFee <= MaxFee.
func ComputeFee(policy domain.FeePolicy, txType domain.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if txType != domain.TransactionTypeWithdrawal {
		return decimal.Zero
	}

	var fee decimal.Decimal
	switch policy.Type {
	case domain.FeeTypePercentage:
		fee = amount.Mul(policy.Percentage).Div(oneHundred)
	case domain.FeeTypePerThousand:
		// Fee scales in whole-thousand bands, rounding the band count up:
		// a 6001 withdrawal pays for 7 bands.
		bands := amount.Div(oneThousand).Ceil()
		fee = bands.Mul(policy.PerThousand)
	case domain.FeeTypeFixed:
		fee = policy.FixedAmount
	default:
		return decimal.Zero
	}

	if policy.MaxFee.IsPositive() && fee.GreaterThan(policy.MaxFee) {
		fee = policy.MaxFee
	}
	if policy.MinFee.IsPositive() && fee.LessThan(policy.MinFee) {
		fee = policy.MinFee
	}
	return fee
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeType selects how withdrawal fees are computed for a wallet.
type FeeType string

const (
	FeeTypePercentage  FeeType = "percentage"   // amount * rate / 100
	FeeTypePerThousand FeeType = "per_thousand" // ceil(amount/1000) * rate
	FeeTypeFixed       FeeType = "fixed"        // flat amount per withdrawal
)

// Valid reports whether the fee type is one of the known variants.
func (t FeeType) Valid() bool {
	switch t {
	case FeeTypePercentage, FeeTypePerThousand, FeeTypeFixed:
		return true
	}
	return false
}

// FeePolicy is a tagged fee configuration. Type selects which rate field is
// meaningful; each variant has a dedicated field so a fixed fee is never
// smuggled through the percentage slot.
type FeePolicy struct {
	Type        FeeType         `json:"type"`
	Percentage  decimal.Decimal `json:"percentage"`
	PerThousand decimal.Decimal `json:"per_thousand"`
	FixedAmount decimal.Decimal `json:"fixed_amount"`
	MinFee      decimal.Decimal `json:"min_fee"` // floor, applied when > 0
	MaxFee      decimal.Decimal `json:"max_fee"` // cap, applied when > 0
}

// WalletAggregates are the cached totals maintained by the ledger engine.
// They are always recomputed from the wallet's full transaction and expense
// sets, never adjusted incrementally, so a recompute is idempotent and
// self-healing.
type WalletAggregates struct {
	Balance          decimal.Decimal `json:"balance"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	TotalFeesEarned  decimal.Decimal `json:"total_fees_earned"`
	MonthlyVolume    decimal.Decimal `json:"monthly_volume"` // transaction volume in the current calendar month
}

// Wallet is an electronic wallet tracked by the ledger.
// Wallets are never physically deleted; they are archived instead.
type Wallet struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactNumber string    `json:"contact_number"` // unique among non-archived wallets

	Fee FeePolicy `json:"fee"`

	MonthlyLimit decimal.Decimal `json:"monthly_limit"` // non-positive = global default cap applies
	DailyLimit   decimal.Decimal `json:"daily_limit"`

	Aggregates WalletAggregates `json:"aggregates"`

	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

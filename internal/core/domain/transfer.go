package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transfer moves an amount between two wallets, or between a wallet and the
// cash treasury. Wallet legs materialize as ordinary ledger transactions
// (withdrawal at the source, deposit at the destination) referenced here,
// so the wallet aggregate recompute covers transfers with no special cases.
type Transfer struct {
	ID           uuid.UUID       `json:"id"`
	FromWalletID *uuid.UUID      `json:"from_wallet_id,omitempty"`
	ToWalletID   *uuid.UUID      `json:"to_wallet_id,omitempty"`
	FromTreasury bool            `json:"from_treasury"`
	ToTreasury   bool            `json:"to_treasury"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`

	// Ledger transactions created for the wallet legs, when present.
	FromTransactionID *uuid.UUID `json:"from_transaction_id,omitempty"`
	ToTransactionID   *uuid.UUID `json:"to_transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// HasSource reports whether the transfer names a debit side.
func (t *Transfer) HasSource() bool {
	return t.FromWalletID != nil || t.FromTreasury
}

// HasDestination reports whether the transfer names a credit side.
func (t *Transfer) HasDestination() bool {
	return t.ToWalletID != nil || t.ToTreasury
}

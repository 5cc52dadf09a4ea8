package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TreasuryEntryType classifies cash treasury log entries.
type TreasuryEntryType string

const (
	TreasuryEntryDeposit     TreasuryEntryType = "deposit"
	TreasuryEntryWithdrawal  TreasuryEntryType = "withdrawal"
	TreasuryEntryTransferIn  TreasuryEntryType = "transfer_in"
	TreasuryEntryTransferOut TreasuryEntryType = "transfer_out"
)

// Sign returns +1 for entries that add cash and -1 for entries that
// remove it.
func (t TreasuryEntryType) Sign() int {
	switch t {
	case TreasuryEntryDeposit, TreasuryEntryTransferIn:
		return 1
	default:
		return -1
	}
}

// CashTreasury is the process-wide cash-in-hand balance. Exactly one row
// exists; it is created at startup and injected wherever transfers need it.
// Invariant: Balance equals the signed sum of the treasury entry log.
type CashTreasury struct {
	ID        uuid.UUID       `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TreasuryEntry is one record in the treasury's append-only log.
type TreasuryEntry struct {
	ID          uuid.UUID         `json:"id"`
	Type        TreasuryEntryType `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	TransferID  *uuid.UUID        `json:"transfer_id,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

package dto

import (
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest is the request body for recording a transaction.
// Amount is a decimal string; Date is optional RFC 3339 and defaults to now.
type CreateTransactionRequest struct {
	WalletID    string  `json:"wallet_id" binding:"required,uuid"`
	Type        string  `json:"type" binding:"required,oneof=deposit withdrawal"`
	Amount      string  `json:"amount" binding:"required,decimal_amount"`
	Description string  `json:"description" binding:"max=500"`
	Date        *string `json:"date,omitempty"`
}

// UpdateTransactionRequest is the request body for editing a transaction.
// The original transaction date is preserved; it cannot be changed here.
type UpdateTransactionRequest struct {
	WalletID    string `json:"wallet_id" binding:"required,uuid"`
	Type        string `json:"type" binding:"required,oneof=deposit withdrawal"`
	Amount      string `json:"amount" binding:"required,decimal_amount"`
	Description string `json:"description" binding:"max=500"`
}

// TransactionResponse is the response body for transaction results.
type TransactionResponse struct {
	ID          string          `json:"id"`
	WalletID    string          `json:"wallet_id"`
	WalletName  string          `json:"wallet_name,omitempty"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	FeeAmount   decimal.Decimal `json:"fee_amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CreatedAt   string          `json:"created_at"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// CreateExpenseRequest is the request body for recording an expense.
type CreateExpenseRequest struct {
	WalletID    string  `json:"wallet_id" binding:"required,uuid"`
	Category    string  `json:"category" binding:"required,max=100"`
	Amount      string  `json:"amount" binding:"required,decimal_amount"`
	Description string  `json:"description" binding:"max=500"`
	Date        *string `json:"date,omitempty"`
}

// ExpenseResponse is the response body for expense results.
type ExpenseResponse struct {
	ID          string          `json:"id"`
	WalletID    string          `json:"wallet_id"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	CreatedAt   string          `json:"created_at"`
}

// CreateTransferRequest is the request body for a transfer. Exactly one
// source (wallet or treasury) and one destination must be named.
type CreateTransferRequest struct {
	FromWalletID *string `json:"from_wallet_id,omitempty" binding:"omitempty,uuid"`
	ToWalletID   *string `json:"to_wallet_id,omitempty" binding:"omitempty,uuid"`
	FromTreasury bool    `json:"from_treasury"`
	ToTreasury   bool    `json:"to_treasury"`
	Amount       string  `json:"amount" binding:"required,decimal_amount"`
	Description  string  `json:"description" binding:"max=500"`
}

// TransferResponse is the response body for transfer results.
type TransferResponse struct {
	ID                string          `json:"id"`
	FromWalletID      *string         `json:"from_wallet_id,omitempty"`
	ToWalletID        *string         `json:"to_wallet_id,omitempty"`
	FromTreasury      bool            `json:"from_treasury"`
	ToTreasury        bool            `json:"to_treasury"`
	Amount            decimal.Decimal `json:"amount"`
	Description       string          `json:"description"`
	FromTransactionID *string         `json:"from_transaction_id,omitempty"`
	ToTransactionID   *string         `json:"to_transaction_id,omitempty"`
	CreatedAt         string          `json:"created_at"`
}

// TreasuryMovementRequest is the request body for a direct treasury
// deposit or withdrawal.
type TreasuryMovementRequest struct {
	Amount      string `json:"amount" binding:"required,decimal_amount"`
	Description string `json:"description" binding:"max=500"`
}

// TreasuryEntryResponse is one movement in the treasury log.
type TreasuryEntryResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	TransferID  *string         `json:"transfer_id,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// TreasuryResponse is the response for the treasury query.
type TreasuryResponse struct {
	ID      string                  `json:"id"`
	Balance decimal.Decimal         `json:"balance"`
	Entries []TreasuryEntryResponse `json:"entries"`
}

// FeePolicyRequest configures withdrawal fees on wallet creation. Rate
// fields are decimal strings; only the field matching Type is read.
type FeePolicyRequest struct {
	Type        string  `json:"type" binding:"required,oneof=percentage per_thousand fixed"`
	Percentage  *string `json:"percentage,omitempty" binding:"omitempty,decimal_amount"`
	PerThousand *string `json:"per_thousand,omitempty" binding:"omitempty,decimal_amount"`
	FixedAmount *string `json:"fixed_amount,omitempty" binding:"omitempty,decimal_amount"`
	MinFee      *string `json:"min_fee,omitempty" binding:"omitempty,decimal_amount"`
	MaxFee      *string `json:"max_fee,omitempty" binding:"omitempty,decimal_amount"`
}

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=100"`
	ContactNumber string           `json:"contact_number" binding:"max=20"`
	Fee           FeePolicyRequest `json:"fee" binding:"required"`
	MonthlyLimit  *string          `json:"monthly_limit,omitempty" binding:"omitempty,decimal_amount"`
	DailyLimit    *string          `json:"daily_limit,omitempty" binding:"omitempty,decimal_amount"`
}

// WalletResponse is the response body for wallet results.
type WalletResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ContactNumber string          `json:"contact_number"`
	FeeType       string          `json:"fee_type"`
	MonthlyLimit  decimal.Decimal `json:"monthly_limit"`

	Balance          decimal.Decimal `json:"balance"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	TotalFeesEarned  decimal.Decimal `json:"total_fees_earned"`
	MonthlyVolume    decimal.Decimal `json:"monthly_volume"`

	IsArchived bool   `json:"is_archived"`
	CreatedAt  string `json:"created_at"`
}

package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services.go -package=mocks

// --- Ledger Engine ---

// CreateTransactionRequest holds validated input for transaction creation.
// Date is optional; when nil the current time is used.
type CreateTransactionRequest struct {
	WalletID    uuid.UUID
	Type        domain.TransactionType
	Amount      decimal.Decimal
	Description string
	Date        *time.Time
}

// UpdateTransactionRequest holds validated input for transaction edits.
// The original transaction date is always preserved.
type UpdateTransactionRequest struct {
	WalletID    uuid.UUID
	Type        domain.TransactionType
	Amount      decimal.Decimal
	Description string
}

// TransactionResult is a transaction together with its wallet's display name.
type TransactionResult struct {
	domain.Transaction
	WalletName string `json:"wallet_name"`
}

// LedgerService owns transaction create/update/delete and keeps wallet
// aggregates consistent with the full transaction and expense sets.
type LedgerService interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*TransactionResult, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, req UpdateTransactionRequest) (*TransactionResult, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListTransactions(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
}

// --- Expenses ---

// CreateExpenseRequest holds validated input for expense creation.
type CreateExpenseRequest struct {
	WalletID    uuid.UUID
	Category    string
	Amount      decimal.Decimal
	Description string
	Date        *time.Time
}

// ExpenseService owns expense create/delete; both recompute the owning
// wallet's aggregates (create reduces the balance, delete refunds it).
type ExpenseService interface {
	CreateExpense(ctx context.Context, req CreateExpenseRequest) (*domain.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	ListExpenses(ctx context.Context, walletID uuid.UUID) ([]domain.Expense, error)
}

// --- Transfers & Treasury ---

// TransferRequest holds validated input for a transfer. Exactly one source
// (wallet or treasury) and one destination must be named.
type TransferRequest struct {
	FromWalletID *uuid.UUID
	ToWalletID   *uuid.UUID
	FromTreasury bool
	ToTreasury   bool
	Amount       decimal.Decimal
	Description  string
}

// TransferService moves amounts between wallets and the cash treasury.
type TransferService interface {
	CreateTransfer(ctx context.Context, req TransferRequest) (*domain.Transfer, error)
	ListTransfers(ctx context.Context, limit int) ([]domain.Transfer, error)
}

// TreasuryMovementRequest holds input for a direct treasury deposit/withdrawal.
type TreasuryMovementRequest struct {
	Amount      decimal.Decimal
	Description string
}

// TreasuryService exposes the cash treasury balance and its direct movements.
type TreasuryService interface {
	Get(ctx context.Context) (*domain.CashTreasury, []domain.TreasuryEntry, error)
	Deposit(ctx context.Context, req TreasuryMovementRequest) (*domain.CashTreasury, error)
	Withdraw(ctx context.Context, req TreasuryMovementRequest) (*domain.CashTreasury, error)
}

// --- Reconciliation ---

// SummaryService reconstructs point-in-time balances and per-category totals
// for arbitrary reporting periods by replaying transaction history.
type SummaryService interface {
	Summarize(ctx context.Context, walletID uuid.UUID, anchor time.Time, g domain.Granularity) (*domain.PeriodSummary, error)
}

// --- Wallet management ---

// CreateWalletRequest holds validated input for wallet creation.
type CreateWalletRequest struct {
	Name          string
	ContactNumber string
	Fee           domain.FeePolicy
	MonthlyLimit  decimal.Decimal
	DailyLimit    decimal.Decimal
}

// WalletService manages wallet lifecycle. Wallets are archived, never deleted.
type WalletService interface {
	CreateWallet(ctx context.Context, req CreateWalletRequest) (*domain.Wallet, error)
	GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	ListWallets(ctx context.Context, includeArchived bool) ([]domain.Wallet, error)
	ArchiveWallet(ctx context.Context, id uuid.UUID) error
}

// --- Infrastructure ---

// TokenService validates bearer tokens issued by the identity collaborator
// (shared HS256 secret) and mints tokens for tests and tooling.
type TokenService interface {
	Generate(subject string, role string) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	Subject string
	Role    string
}

// SummaryCache is a TTL cache for serialized summary responses. Reads may
// lag in-flight writes by at most the TTL.
type SummaryCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories.go -package=mocks

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside transaction blocks; GetByIDForUpdate
// takes the row lock that serializes concurrent writers on one wallet.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	// GetByContactNumber searches non-archived wallets only.
	GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Wallet, error)
	List(ctx context.Context, includeArchived bool) ([]domain.Wallet, error)
	UpdateAggregates(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, agg domain.WalletAggregates) error
	Archive(ctx context.Context, id uuid.UUID) error
}

// LedgerTotals is the result of a full aggregate recompute over a wallet's
// entire transaction set. MonthVolume is scoped to the supplied month window.
type LedgerTotals struct {
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
	Fees        decimal.Decimal
	MonthVolume decimal.Decimal
}

// WindowTotals aggregates a wallet's transactions inside one reporting window.
type WindowTotals struct {
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
	Fees        decimal.Decimal
	Count       int64
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	WalletID *uuid.UUID
	Type     *domain.TransactionType
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	// TotalsByWallet recomputes lifetime totals plus the volume inside
	// [monthStart, monthEnd) in a single scan. Must run inside the same
	// transaction that holds the wallet row lock.
	TotalsByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, monthStart, monthEnd time.Time) (*LedgerTotals, error)
	// SumAmountInWindow sums transaction amounts (not fees) dated inside
	// [from, to); used by the monthly limit check.
	SumAmountInWindow(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	// WindowTotals aggregates transactions dated inside [from, to).
	// A zero from means "everything before to".
	WindowTotals(ctx context.Context, walletID uuid.UUID, from, to time.Time) (*WindowTotals, error)
}

// ExpenseRepository defines persistence operations for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, tx pgx.Tx, e *domain.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error)
	Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Expense, error)
	// SumByWallet totals all expenses of a wallet; part of the aggregate recompute.
	SumByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (decimal.Decimal, error)
	// WindowSum totals expenses dated inside [from, to) plus their count.
	// A zero from means "everything before to".
	WindowSum(ctx context.Context, walletID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error)
}

// TransferRepository defines persistence operations for transfers.
type TransferRepository interface {
	Create(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Transfer, error)
}

// TreasuryRepository defines persistence for the cash treasury singleton
// and its append-only entry log.
type TreasuryRepository interface {
	// Ensure finds the singleton row, creating it when absent. Called once
	// at startup; the engine never find-or-creates per call site.
	Ensure(ctx context.Context) (*domain.CashTreasury, error)
	Get(ctx context.Context) (*domain.CashTreasury, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.CashTreasury, error)
	AppendEntry(ctx context.Context, tx pgx.Tx, e *domain.TreasuryEntry) error
	// SumEntries returns the signed sum of the log; the treasury balance is
	// recomputed from it after every mutation.
	SumEntries(ctx context.Context, tx pgx.Tx) (decimal.Decimal, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error
	ListEntries(ctx context.Context, limit int) ([]domain.TreasuryEntry, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

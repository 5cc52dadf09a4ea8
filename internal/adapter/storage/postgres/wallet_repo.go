package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, name, contact_number, fee_type, fee_percentage, fee_per_thousand,
	fee_fixed_amount, min_fee, max_fee, monthly_limit, daily_limit,
	balance, total_deposits, total_withdrawals, total_fees_earned, monthly_volume,
	is_archived, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, name, contact_number, fee_type, fee_percentage, fee_per_thousand,
		fee_fixed_amount, min_fee, max_fee, monthly_limit, daily_limit,
		balance, total_deposits, total_withdrawals, total_fees_earned, monthly_volume,
		is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.Name, w.ContactNumber,
		w.Fee.Type, w.Fee.Percentage, w.Fee.PerThousand,
		w.Fee.FixedAmount, w.Fee.MinFee, w.Fee.MaxFee,
		w.MonthlyLimit, w.DailyLimit,
		w.Aggregates.Balance, w.Aggregates.TotalDeposits, w.Aggregates.TotalWithdrawals,
		w.Aggregates.TotalFeesEarned, w.Aggregates.MonthlyVolume,
		w.IsArchived, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := fmt.Sprintf("SELECT %s FROM wallets WHERE id = $1", walletColumns)
	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := fmt.Sprintf("SELECT %s FROM wallets WHERE id = $1 FOR UPDATE", walletColumns)
	return scanWallet(tx.QueryRow(ctx, query, id))
}

// GetByContactNumber fetches a non-archived wallet by contact number.
func (r *WalletRepo) GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Wallet, error) {
	query := fmt.Sprintf("SELECT %s FROM wallets WHERE contact_number = $1 AND is_archived = FALSE", walletColumns)
	return scanWallet(r.pool.QueryRow(ctx, query, contactNumber))
}

// List fetches wallets ordered by creation time, optionally including
// archived ones.
func (r *WalletRepo) List(ctx context.Context, includeArchived bool) ([]domain.Wallet, error) {
	query := fmt.Sprintf("SELECT %s FROM wallets", walletColumns)
	if !includeArchived {
		query += " WHERE is_archived = FALSE"
	}
	query += " ORDER BY created_at"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []domain.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wallet row: %w", err)
		}
		wallets = append(wallets, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet rows: %w", err)
	}
	return wallets, nil
}

// UpdateAggregates persists a freshly recomputed aggregate set within a
// transaction.
func (r *WalletRepo) UpdateAggregates(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, agg domain.WalletAggregates) error {
	query := `UPDATE wallets SET balance = $1, total_deposits = $2, total_withdrawals = $3,
		total_fees_earned = $4, monthly_volume = $5, updated_at = NOW() WHERE id = $6`

	tag, err := tx.Exec(ctx, query,
		agg.Balance, agg.TotalDeposits, agg.TotalWithdrawals,
		agg.TotalFeesEarned, agg.MonthlyVolume, walletID,
	)
	if err != nil {
		return fmt.Errorf("update wallet aggregates: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

// Archive soft-deletes a wallet. Transactions keep referencing it.
func (r *WalletRepo) Archive(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE wallets SET is_archived = TRUE, updated_at = NOW() WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("archive wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.Name, &w.ContactNumber,
		&w.Fee.Type, &w.Fee.Percentage, &w.Fee.PerThousand,
		&w.Fee.FixedAmount, &w.Fee.MinFee, &w.Fee.MaxFee,
		&w.MonthlyLimit, &w.DailyLimit,
		&w.Aggregates.Balance, &w.Aggregates.TotalDeposits, &w.Aggregates.TotalWithdrawals,
		&w.Aggregates.TotalFeesEarned, &w.Aggregates.MonthlyVolume,
		&w.IsArchived, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const transactionColumns = `id, wallet_id, type, amount, fee_amount, description, date, created_at, updated_at`

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts a new ledger transaction within a database transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, type, amount, fee_amount, description, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.WalletID, t.Type, t.Amount, t.FeeAmount,
		t.Description, t.Date, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID fetches a transaction by UUID.
func (r *TransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := fmt.Sprintf("SELECT %s FROM transactions WHERE id = $1", transactionColumns)
	return scanTransaction(r.pool.QueryRow(ctx, query, id))
}

// Update rewrites a transaction's mutable fields within a database
// transaction. The date column is written as-is; callers preserve it.
func (r *TransactionRepo) Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `UPDATE transactions SET wallet_id = $1, type = $2, amount = $3, fee_amount = $4,
		description = $5, date = $6, updated_at = $7 WHERE id = $8`

	tag, err := tx.Exec(ctx, query,
		t.WalletID, t.Type, t.Amount, t.FeeAmount,
		t.Description, t.Date, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", t.ID)
	}
	return nil
}

// Delete removes a transaction within a database transaction.
func (r *TransactionRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction not found: %s", id)
	}
	return nil
}

// List fetches transactions with filtering and pagination.
func (r *TransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.WalletID != nil {
		conditions = append(conditions, fmt.Sprintf("wallet_id = $%d", argIdx))
		args = append(args, *params.WalletID)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("date < $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM transactions %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM transactions %s ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(
			&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.FeeAmount,
			&t.Description, &t.Date, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, total, nil
}

// TotalsByWallet recomputes lifetime totals plus the volume inside
// [monthStart, monthEnd) in a single scan. Runs inside the caller's
// transaction so it sees the mutation being committed.
func (r *TransactionRepo) TotalsByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, monthStart, monthEnd time.Time) (*ports.LedgerTotals, error) {
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE type = 'deposit'), 0) AS deposits,
		COALESCE(SUM(amount) FILTER (WHERE type = 'withdrawal'), 0) AS withdrawals,
		COALESCE(SUM(fee_amount), 0) AS fees,
		COALESCE(SUM(amount) FILTER (WHERE date >= $2 AND date < $3), 0) AS month_volume
		FROM transactions WHERE wallet_id = $1`

	totals := &ports.LedgerTotals{}
	err := tx.QueryRow(ctx, query, walletID, monthStart, monthEnd).Scan(
		&totals.Deposits, &totals.Withdrawals, &totals.Fees, &totals.MonthVolume,
	)
	if err != nil {
		return nil, fmt.Errorf("compute wallet totals: %w", err)
	}
	return totals, nil
}

// SumAmountInWindow sums transaction amounts (fees excluded) dated inside
// [from, to).
func (r *TransactionRepo) SumAmountInWindow(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE wallet_id = $1 AND date >= $2 AND date < $3`

	var sum decimal.Decimal
	if err := tx.QueryRow(ctx, query, walletID, from, to).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum window amount: %w", err)
	}
	return sum, nil
}

// WindowTotals aggregates transactions dated inside [from, to). A zero from
// replays everything before to.
func (r *TransactionRepo) WindowTotals(ctx context.Context, walletID uuid.UUID, from, to time.Time) (*ports.WindowTotals, error) {
	var conditions []string
	args := []any{walletID, to}
	conditions = append(conditions, "wallet_id = $1", "date < $2")
	if !from.IsZero() {
		conditions = append(conditions, "date >= $3")
		args = append(args, from)
	}

	query := fmt.Sprintf(`SELECT
		COALESCE(SUM(amount) FILTER (WHERE type = 'deposit'), 0) AS deposits,
		COALESCE(SUM(amount) FILTER (WHERE type = 'withdrawal'), 0) AS withdrawals,
		COALESCE(SUM(fee_amount), 0) AS fees,
		COUNT(*) AS count
		FROM transactions WHERE %s`, strings.Join(conditions, " AND "))

	totals := &ports.WindowTotals{}
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&totals.Deposits, &totals.Withdrawals, &totals.Fees, &totals.Count,
	)
	if err != nil {
		return nil, fmt.Errorf("compute window totals: %w", err)
	}
	return totals, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.FeeAmount,
		&t.Description, &t.Date, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

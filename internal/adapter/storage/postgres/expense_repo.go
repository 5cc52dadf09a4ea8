package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const expenseColumns = `id, wallet_id, category, amount, description, date, created_at`

// ExpenseRepo implements ports.ExpenseRepository.
type ExpenseRepo struct {
	pool Pool
}

// NewExpenseRepo creates a new ExpenseRepo.
func NewExpenseRepo(pool Pool) *ExpenseRepo {
	return &ExpenseRepo{pool: pool}
}

// Create inserts a new expense within a database transaction.
func (r *ExpenseRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Expense) error {
	query := `INSERT INTO expenses (id, wallet_id, category, amount, description, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.WalletID, e.Category, e.Amount, e.Description, e.Date, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

// GetByID fetches an expense by UUID.
func (r *ExpenseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	query := fmt.Sprintf("SELECT %s FROM expenses WHERE id = $1", expenseColumns)

	e := &domain.Expense{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.WalletID, &e.Category, &e.Amount, &e.Description, &e.Date, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

// Delete removes an expense within a database transaction.
func (r *ExpenseRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense not found: %s", id)
	}
	return nil
}

// ListByWallet fetches a wallet's expenses, newest first.
func (r *ExpenseRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Expense, error) {
	query := fmt.Sprintf("SELECT %s FROM expenses WHERE wallet_id = $1 ORDER BY date DESC, created_at DESC", expenseColumns)

	rows, err := r.pool.Query(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e := domain.Expense{}
		err := rows.Scan(&e.ID, &e.WalletID, &e.Category, &e.Amount, &e.Description, &e.Date, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}
	return expenses, nil
}

// SumByWallet totals all expenses of a wallet inside the caller's
// transaction; part of the aggregate recompute.
func (r *ExpenseRepo) SumByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE wallet_id = $1`, walletID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return sum, nil
}

// WindowSum totals expenses dated inside [from, to) plus their count.
// A zero from replays everything before to.
func (r *ExpenseRepo) WindowSum(ctx context.Context, walletID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error) {
	var conditions []string
	args := []any{walletID, to}
	conditions = append(conditions, "wallet_id = $1", "date < $2")
	if !from.IsZero() {
		conditions = append(conditions, "date >= $3")
		args = append(args, from)
	}

	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM expenses WHERE %s`,
		strings.Join(conditions, " AND "))

	var sum decimal.Decimal
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&sum, &count); err != nil {
		return decimal.Zero, 0, fmt.Errorf("sum window expenses: %w", err)
	}
	return sum, count, nil
}

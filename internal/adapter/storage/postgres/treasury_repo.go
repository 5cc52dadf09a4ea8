package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TreasuryRepo implements ports.TreasuryRepository. The cash_treasury table
// holds exactly one row; entries form its append-only log.
type TreasuryRepo struct {
	pool Pool
}

// NewTreasuryRepo creates a new TreasuryRepo.
func NewTreasuryRepo(pool Pool) *TreasuryRepo {
	return &TreasuryRepo{pool: pool}
}

// Ensure finds the treasury singleton, creating it when absent. Called once
// at startup.
func (r *TreasuryRepo) Ensure(ctx context.Context) (*domain.CashTreasury, error) {
	existing, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	t := &domain.CashTreasury{
		ID:        uuid.New(),
		Balance:   decimal.Zero,
		UpdatedAt: time.Now().UTC(),
	}
	query := `INSERT INTO cash_treasury (id, balance, updated_at) VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, query, t.ID, t.Balance, t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert treasury: %w", err)
	}
	return t, nil
}

// Get fetches the treasury singleton without locking.
func (r *TreasuryRepo) Get(ctx context.Context) (*domain.CashTreasury, error) {
	return scanTreasury(r.pool.QueryRow(ctx, `SELECT id, balance, updated_at FROM cash_treasury LIMIT 1`))
}

// GetForUpdate locks and fetches the treasury singleton. This MUST be
// called within a transaction.
func (r *TreasuryRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.CashTreasury, error) {
	return scanTreasury(tx.QueryRow(ctx, `SELECT id, balance, updated_at FROM cash_treasury LIMIT 1 FOR UPDATE`))
}

// AppendEntry inserts a treasury log entry within a database transaction.
func (r *TreasuryRepo) AppendEntry(ctx context.Context, tx pgx.Tx, e *domain.TreasuryEntry) error {
	query := `INSERT INTO treasury_entries (id, type, amount, description, transfer_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, e.ID, e.Type, e.Amount, e.Description, e.TransferID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert treasury entry: %w", err)
	}
	return nil
}

// SumEntries returns the signed sum of the entry log.
func (r *TreasuryRepo) SumEntries(ctx context.Context, tx pgx.Tx) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(CASE WHEN type IN ('deposit', 'transfer_in') THEN amount ELSE -amount END), 0)
		FROM treasury_entries`

	var sum decimal.Decimal
	if err := tx.QueryRow(ctx, query).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum treasury entries: %w", err)
	}
	return sum, nil
}

// UpdateBalance persists a recomputed treasury balance within a transaction.
func (r *TreasuryRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	tag, err := tx.Exec(ctx, `UPDATE cash_treasury SET balance = $1, updated_at = NOW() WHERE id = $2`, balance, id)
	if err != nil {
		return fmt.Errorf("update treasury balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("treasury not found: %s", id)
	}
	return nil
}

// ListEntries fetches the most recent treasury log entries.
func (r *TreasuryRepo) ListEntries(ctx context.Context, limit int) ([]domain.TreasuryEntry, error) {
	query := `SELECT id, type, amount, description, transfer_id, created_at
		FROM treasury_entries ORDER BY created_at DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list treasury entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.TreasuryEntry
	for rows.Next() {
		e := domain.TreasuryEntry{}
		err := rows.Scan(&e.ID, &e.Type, &e.Amount, &e.Description, &e.TransferID, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan treasury entry row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate treasury entry rows: %w", err)
	}
	return entries, nil
}

func scanTreasury(row pgx.Row) (*domain.CashTreasury, error) {
	t := &domain.CashTreasury{}
	err := row.Scan(&t.ID, &t.Balance, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan treasury: %w", err)
	}
	return t, nil
}

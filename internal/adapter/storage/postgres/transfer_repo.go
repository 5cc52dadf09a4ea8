package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transferColumns = `id, from_wallet_id, to_wallet_id, from_treasury, to_treasury,
	amount, description, from_transaction_id, to_transaction_id, created_at`

// TransferRepo implements ports.TransferRepository.
type TransferRepo struct {
	pool Pool
}

// NewTransferRepo creates a new TransferRepo.
func NewTransferRepo(pool Pool) *TransferRepo {
	return &TransferRepo{pool: pool}
}

// Create inserts a transfer record within a database transaction.
func (r *TransferRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	query := `INSERT INTO transfers (id, from_wallet_id, to_wallet_id, from_treasury, to_treasury,
		amount, description, from_transaction_id, to_transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := tx.Exec(ctx, query,
		t.ID, t.FromWalletID, t.ToWalletID, t.FromTreasury, t.ToTreasury,
		t.Amount, t.Description, t.FromTransactionID, t.ToTransactionID, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// GetByID fetches a transfer by UUID.
func (r *TransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	query := fmt.Sprintf("SELECT %s FROM transfers WHERE id = $1", transferColumns)

	t := &domain.Transfer{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.FromWalletID, &t.ToWalletID, &t.FromTreasury, &t.ToTreasury,
		&t.Amount, &t.Description, &t.FromTransactionID, &t.ToTransactionID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transfer by id: %w", err)
	}
	return t, nil
}

// ListRecent fetches the most recent transfers.
func (r *TransferRepo) ListRecent(ctx context.Context, limit int) ([]domain.Transfer, error) {
	query := fmt.Sprintf("SELECT %s FROM transfers ORDER BY created_at DESC LIMIT $1", transferColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []domain.Transfer
	for rows.Next() {
		t := domain.Transfer{}
		err := rows.Scan(
			&t.ID, &t.FromWalletID, &t.ToWalletID, &t.FromTreasury, &t.ToTreasury,
			&t.Amount, &t.Description, &t.FromTransactionID, &t.ToTransactionID, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transfer row: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfer rows: %w", err)
	}
	return transfers, nil
}

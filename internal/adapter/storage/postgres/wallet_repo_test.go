package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet() *domain.Wallet {
	return &domain.Wallet{
		ID:            uuid.New(),
		Name:          "Main Wallet",
		ContactNumber: "0912345678",
		Fee: domain.FeePolicy{
			Type:       domain.FeeTypePercentage,
			Percentage: decimal.NewFromInt(3),
		},
		MonthlyLimit: decimal.NewFromInt(50000),
		Aggregates: domain.WalletAggregates{
			Balance:       decimal.NewFromInt(3800),
			TotalDeposits: decimal.NewFromInt(5000),
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func walletColumnNames() []string {
	return []string{
		"id", "name", "contact_number", "fee_type", "fee_percentage", "fee_per_thousand",
		"fee_fixed_amount", "min_fee", "max_fee", "monthly_limit", "daily_limit",
		"balance", "total_deposits", "total_withdrawals", "total_fees_earned", "monthly_volume",
		"is_archived", "created_at", "updated_at",
	}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletColumnNames()).AddRow(
		w.ID, w.Name, w.ContactNumber,
		w.Fee.Type, w.Fee.Percentage, w.Fee.PerThousand,
		w.Fee.FixedAmount, w.Fee.MinFee, w.Fee.MaxFee,
		w.MonthlyLimit, w.DailyLimit,
		w.Aggregates.Balance, w.Aggregates.TotalDeposits, w.Aggregates.TotalWithdrawals,
		w.Aggregates.TotalFeesEarned, w.Aggregates.MonthlyVolume,
		w.IsArchived, w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.Name, w.ContactNumber,
			w.Fee.Type, w.Fee.Percentage, w.Fee.PerThousand,
			w.Fee.FixedAmount, w.Fee.MinFee, w.Fee.MaxFee,
			w.MonthlyLimit, w.DailyLimit,
			w.Aggregates.Balance, w.Aggregates.TotalDeposits, w.Aggregates.TotalWithdrawals,
			w.Aggregates.TotalFeesEarned, w.Aggregates.MonthlyVolume,
			w.IsArchived, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id").
		WithArgs(w.ID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.True(t, w.Aggregates.Balance.Equal(result.Aggregates.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(walletColumnNames()))

	result, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id .+ FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(walletRow(w))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), tx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByContactNumber_FiltersArchived(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE contact_number .+ is_archived = FALSE").
		WithArgs(w.ContactNumber).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByContactNumber(context.Background(), w.ContactNumber)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_UpdateAggregates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet()
	agg := domain.WalletAggregates{
		Balance:          decimal.NewFromInt(3800),
		TotalDeposits:    decimal.NewFromInt(5000),
		TotalWithdrawals: decimal.NewFromInt(1200),
		TotalFeesEarned:  decimal.NewFromInt(36),
		MonthlyVolume:    decimal.NewFromInt(6200),
	}

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(agg.Balance, agg.TotalDeposits, agg.TotalWithdrawals,
			agg.TotalFeesEarned, agg.MonthlyVolume, w.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.UpdateAggregates(context.Background(), tx, w.ID, agg)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Archive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE wallets SET is_archived = TRUE").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.Archive(context.Background(), id)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Archive_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE wallets SET is_archived = TRUE").
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Archive(context.Background(), id)
	assert.Error(t, err)
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type expenseService struct {
	expenseRepo ports.ExpenseRepository
	txRepo      ports.TransactionRepository
	walletRepo  ports.WalletRepository
	transactor  ports.DBTransactor
	loc         *time.Location
	log         zerolog.Logger
}

// NewExpenseService creates a new expense service. Expenses bypass fee and
// limit logic but still flow through the wallet aggregate recompute.
func NewExpenseService(
	expenseRepo ports.ExpenseRepository,
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	loc *time.Location,
	log zerolog.Logger,
) ports.ExpenseService {
	return &expenseService{
		expenseRepo: expenseRepo,
		txRepo:      txRepo,
		walletRepo:  walletRepo,
		transactor:  transactor,
		loc:         loc,
		log:         log,
	}
}

func (s *expenseService) CreateExpense(ctx context.Context, req ports.CreateExpenseRequest) (*domain.Expense, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, apperror.Validation("Expense category is required")
	}

	now := time.Now().UTC()
	date := now
	if req.Date != nil {
		date = req.Date.UTC()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, req.WalletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	if wallet.IsArchived {
		return nil, apperror.ErrWalletArchived()
	}
	if wallet.Aggregates.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	expense := &domain.Expense{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
		CreatedAt:   now,
	}

	if err := s.expenseRepo.Create(ctx, dbTx, expense); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create expense: %w", err))
	}

	if _, err := recomputeWalletAggregates(ctx, dbTx, s.txRepo, s.expenseRepo, s.walletRepo, wallet.ID, now, s.loc); err != nil {
		return nil, apperror.InternalError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("expense_id", expense.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("amount", expense.Amount.String()).
		Str("category", expense.Category).
		Msg("expense recorded")

	return expense, nil
}

// DeleteExpense removes an expense; the recompute refunds its amount to the
// wallet balance.
func (s *expenseService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	existing, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find expense: %w", err))
	}
	if existing == nil {
		return apperror.ErrNotFound("expense")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, existing.WalletID)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}

	if err := s.expenseRepo.Delete(ctx, dbTx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete expense: %w", err))
	}

	if _, err := recomputeWalletAggregates(ctx, dbTx, s.txRepo, s.expenseRepo, s.walletRepo, wallet.ID, time.Now().UTC(), s.loc); err != nil {
		return apperror.InternalError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("expense_id", id.String()).
		Str("wallet_id", wallet.ID.String()).
		Msg("expense deleted")

	return nil
}

func (s *expenseService) ListExpenses(ctx context.Context, walletID uuid.UUID) ([]domain.Expense, error) {
	expenses, err := s.expenseRepo.ListByWallet(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return expenses, nil
}

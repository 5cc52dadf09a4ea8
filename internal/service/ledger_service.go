package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	txRepo      ports.TransactionRepository
	walletRepo  ports.WalletRepository
	expenseRepo ports.ExpenseRepository
	transactor  ports.DBTransactor
	monthlyCap  decimal.Decimal
	loc         *time.Location
	log         zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl. monthlyCap is the
// fallback volume ceiling for wallets without a limit of their own.
func NewLedgerService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	expenseRepo ports.ExpenseRepository,
	transactor ports.DBTransactor,
	monthlyCap decimal.Decimal,
	loc *time.Location,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		txRepo:      txRepo,
		walletRepo:  walletRepo,
		expenseRepo: expenseRepo,
		transactor:  transactor,
		monthlyCap:  monthlyCap,
		loc:         loc,
		log:         log,
	}
}

// CreateTransaction records a ledger entry with pessimistic locking: the
// wallet row is locked, the fee and the monthly limit are evaluated against
// the locked state, then the full aggregate set is recomputed.
func (s *LedgerServiceImpl) CreateTransaction(ctx context.Context, req ports.CreateTransactionRequest) (*ports.TransactionResult, error) {
	if !req.Type.Valid() {
		return nil, apperror.ErrInvalidTransactionType()
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
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

	// Limit check counts volume in the month the entry is dated into, so a
	// backdated transaction consumes its own month's cap, not today's.
	month := domain.PeriodOf(date, domain.GranularityMonthly, s.loc)
	monthToDate, err := s.txRepo.SumAmountInWindow(ctx, dbTx, wallet.ID, month.Start, month.End)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum month volume: %w", err))
	}
	if err := CheckMonthlyLimit(wallet, req.Amount, monthToDate, s.monthlyCap); err != nil {
		return nil, err
	}

	if req.Type == domain.TransactionTypeWithdrawal && wallet.Aggregates.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	txn := &domain.Transaction{
		ID:          uuid.New(),
		WalletID:    wallet.ID,
		Type:        req.Type,
		Amount:      req.Amount,
		FeeAmount:   ComputeFee(wallet.Fee, req.Type, req.Amount),
		Description: req.Description,
		Date:        date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.txRepo.Create(ctx, dbTx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}

	if _, err := recomputeWalletAggregates(ctx, dbTx, s.txRepo, s.expenseRepo, s.walletRepo, wallet.ID, now, s.loc); err != nil {
		return nil, apperror.InternalError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", wallet.ID.String()).
		Str("type", string(txn.Type)).
		Str("amount", txn.Amount.String()).
		Str("fee", txn.FeeAmount.String()).
		Msg("transaction recorded")

	return &ports.TransactionResult{Transaction: *txn, WalletName: wallet.Name}, nil
}

// UpdateTransaction edits an existing entry. The entry date is preserved;
// type, amount, description and even the owning wallet may change. Every
// affected wallet gets a full aggregate recompute under its row lock.
func (s *LedgerServiceImpl) UpdateTransaction(ctx context.Context, id uuid.UUID, req ports.UpdateTransactionRequest) (*ports.TransactionResult, error) {
	if !req.Type.Valid() {
		return nil, apperror.ErrInvalidTransactionType()
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	existing, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if existing == nil {
		return nil, apperror.ErrNotFound("transaction")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	target, other, err := s.lockWallets(ctx, dbTx, req.WalletID, existing.WalletID)
	if err != nil {
		return nil, err
	}
	if target.IsArchived {
		return nil, apperror.ErrWalletArchived()
	}

	now := time.Now().UTC()
	txn := *existing
	txn.WalletID = target.ID
	txn.Type = req.Type
	txn.Amount = req.Amount
	txn.FeeAmount = ComputeFee(target.Fee, req.Type, req.Amount)
	txn.Description = req.Description
	txn.UpdatedAt = now

	if err := s.txRepo.Update(ctx, dbTx, &txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update transaction: %w", err))
	}

	if _, err := recomputeWalletAggregates(ctx, dbTx, s.txRepo, s.expenseRepo, s.walletRepo, target.ID, now, s.loc); err != nil {
		return nil, apperror.InternalError(err)
	}
	if other != nil {
		if _, err := recomputeWalletAggregates(ctx, dbTx, s.txRepo, s.expenseRepo, s.walletRepo, other.ID, now, s.loc); err != nil {
			return nil, apperror.InternalError(err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", target.ID.String()).
		Str("amount", txn.Amount.String()).
		Msg("transaction updated")

	return &ports.TransactionResult{Transaction: txn, WalletName: target.Name}, nil
}

// DeleteTransaction removes an entry and recomputes the owning wallet, so
// the balance and fee totals roll back to what they were before the entry.
func (s *LedgerServiceImpl) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	existing, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find transaction: %w", err))
	}
	if existing == nil {
		return apperror.ErrNotFound("transaction")
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

	if err := s.txRepo.Delete(ctx, dbTx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete transaction: %w", err))
	}

	if _, err := recomputeWalletAggregates(ctx, dbTx, s.txRepo, s.expenseRepo, s.walletRepo, wallet.ID, time.Now().UTC(), s.loc); err != nil {
		return apperror.InternalError(err)
	}

	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("tx_id", id.String()).
		Str("wallet_id", wallet.ID.String()).
		Msg("transaction deleted")

	return nil
}

// ListTransactions returns a filtered page of entries and the total count.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// lockWallets locks the target wallet and, when an edit moves an entry
// between wallets, the previous owner too. Locks are taken in ascending
// UUID order so two concurrent edits cannot deadlock each other.
func (s *LedgerServiceImpl) lockWallets(ctx context.Context, dbTx pgx.Tx, targetID, previousID uuid.UUID) (target, previous *domain.Wallet, err error) {
	if targetID == previousID {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, targetID)
		if err != nil {
			return nil, nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if w == nil {
			return nil, nil, apperror.ErrNotFound("wallet")
		}
		return w, nil, nil
	}

	first, second := targetID, previousID
	if bytes.Compare(second[:], first[:]) < 0 {
		first, second = second, first
	}

	byID := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range []uuid.UUID{first, second} {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if w == nil {
			return nil, nil, apperror.ErrNotFound("wallet")
		}
		byID[id] = w
	}
	return byID[targetID], byID[previousID], nil
}

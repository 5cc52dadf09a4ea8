package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const treasuryEntryPageSize = 50

type treasuryService struct {
	treasuryRepo ports.TreasuryRepository
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewTreasuryService creates a new treasury service for direct cash
// deposits and withdrawals against the singleton treasury.
func NewTreasuryService(treasuryRepo ports.TreasuryRepository, transactor ports.DBTransactor, log zerolog.Logger) ports.TreasuryService {
	return &treasuryService{treasuryRepo: treasuryRepo, transactor: transactor, log: log}
}

func (s *treasuryService) Get(ctx context.Context) (*domain.CashTreasury, []domain.TreasuryEntry, error) {
	treasury, err := s.treasuryRepo.Get(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	if treasury == nil {
		return nil, nil, apperror.ErrNotFound("treasury")
	}

	entries, err := s.treasuryRepo.ListEntries(ctx, treasuryEntryPageSize)
	if err != nil {
		return nil, nil, apperror.InternalError(err)
	}
	return treasury, entries, nil
}

func (s *treasuryService) Deposit(ctx context.Context, req ports.TreasuryMovementRequest) (*domain.CashTreasury, error) {
	return s.move(ctx, domain.TreasuryEntryDeposit, req)
}

func (s *treasuryService) Withdraw(ctx context.Context, req ports.TreasuryMovementRequest) (*domain.CashTreasury, error) {
	return s.move(ctx, domain.TreasuryEntryWithdrawal, req)
}

func (s *treasuryService) move(ctx context.Context, entryType domain.TreasuryEntryType, req ports.TreasuryMovementRequest) (*domain.CashTreasury, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	treasury, err := s.treasuryRepo.GetForUpdate(ctx, dbTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock treasury: %w", err))
	}
	if treasury == nil {
		return nil, apperror.ErrNotFound("treasury")
	}

	if entryType.Sign() < 0 && treasury.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	entry := &domain.TreasuryEntry{
		ID:          uuid.New(),
		Type:        entryType,
		Amount:      req.Amount,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.treasuryRepo.AppendEntry(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("append treasury entry: %w", err))
	}

	// Balance is always the signed sum of the log, never an increment.
	balance, err := s.treasuryRepo.SumEntries(ctx, dbTx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum treasury entries: %w", err))
	}
	if err := s.treasuryRepo.UpdateBalance(ctx, dbTx, treasury.ID, balance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update treasury balance: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	treasury.Balance = balance
	s.log.Info().
		Str("entry_type", string(entryType)).
		Str("amount", req.Amount.String()).
		Str("balance", balance.String()).
		Msg("treasury movement recorded")

	return treasury, nil
}

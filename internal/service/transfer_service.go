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

type transferService struct {
	transferRepo ports.TransferRepository
	treasuryRepo ports.TreasuryRepository
	txRepo       ports.TransactionRepository
	expenseRepo  ports.ExpenseRepository
	walletRepo   ports.WalletRepository
	transactor   ports.DBTransactor
	loc          *time.Location
	log          zerolog.Logger
}

// NewTransferService creates a new transfer service. Wallet legs materialize
// as zero-fee ledger transactions; treasury legs append to the treasury log.
func NewTransferService(
	transferRepo ports.TransferRepository,
	treasuryRepo ports.TreasuryRepository,
	txRepo ports.TransactionRepository,
	expenseRepo ports.ExpenseRepository,
	walletRepo ports.WalletRepository,
	transactor ports.DBTransactor,
	loc *time.Location,
	log zerolog.Logger,
) ports.TransferService {
	return &transferService{
		transferRepo: transferRepo,
		treasuryRepo: treasuryRepo,
		txRepo:       txRepo,
		expenseRepo:  expenseRepo,
		walletRepo:   walletRepo,
		transactor:   transactor,
		loc:          loc,
		log:          log,
	}
}

func (s *transferService) CreateTransfer(ctx context.Context, req ports.TransferRequest) (*domain.Transfer, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	transfer := &domain.Transfer{
		ID:           uuid.New(),
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		FromTreasury: req.FromTreasury,
		ToTreasury:   req.ToTreasury,
		Amount:       req.Amount,
		Description:  req.Description,
		CreatedAt:    time.Now().UTC(),
	}
	if !transfer.HasSource() || !transfer.HasDestination() {
		return nil, apperror.ErrMissingTransferParty()
	}
	if req.FromTreasury && req.ToTreasury {
		return nil, apperror.Validation("Transfer cannot both start and end at the treasury")
	}
	if req.FromWalletID != nil && req.ToWalletID != nil && *req.FromWalletID == *req.ToWalletID {
		return nil, apperror.Validation("Transfer source and destination must differ")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Wallet locks first in ascending UUID order, treasury lock last, so
	// concurrent transfers always acquire in the same sequence.
	wallets, err := s.lockTransferWallets(ctx, dbTx, req.FromWalletID, req.ToWalletID)
	if err != nil {
		return nil, err
	}

	var treasury *domain.CashTreasury
	if req.FromTreasury || req.ToTreasury {
		treasury, err = s.treasuryRepo.GetForUpdate(ctx, dbTx)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock treasury: %w", err))
		}
		if treasury == nil {
			return nil, apperror.ErrNotFound("treasury")
		}
	}

	// Source must cover the amount; transfers never overdraw.
	if req.FromWalletID != nil {
		src := wallets[*req.FromWalletID]
		if src.IsArchived {
			return nil, apperror.ErrWalletArchived()
		}
		if src.Aggregates.Balance.LessThan(req.Amount) {
			return nil, apperror.ErrInsufficientBalance()
		}
	}
	if req.FromTreasury && treasury.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}
	if req.ToWalletID != nil && wallets[*req.ToWalletID].IsArchived {
		return nil, apperror.ErrWalletArchived()
	}

	now := time.Now().UTC()

	if req.FromWalletID != nil {
		leg := &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    *req.FromWalletID,
			Type:        domain.TransactionTypeWithdrawal,
			Amount:      req.Amount,
			FeeAmount:   decimal.Zero,
			Description: legDescription("Transfer out", req.Description),
			Date:        now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.txRepo.Create(ctx, dbTx, leg); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create source leg: %w", err))
		}
		transfer.FromTransactionID = &leg.ID
	}

	if req.ToWalletID != nil {
		leg := &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    *req.ToWalletID,
			Type:        domain.TransactionTypeDeposit,
			Amount:      req.Amount,
			FeeAmount:   decimal.Zero,
			Description: legDescription("Transfer in", req.Description),
			Date:        now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.txRepo.Create(ctx, dbTx, leg); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("create destination leg: %w", err))
		}
		transfer.ToTransactionID = &leg.ID
	}

	if err := s.transferRepo.Create(ctx, dbTx, transfer); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transfer: %w", err))
	}

	if req.FromTreasury {
		if err := s.appendTreasuryEntry(ctx, dbTx, treasury, domain.TreasuryEntryTransferOut, transfer, now); err != nil {
			return nil, err
		}
	}
	if req.ToTreasury {
		if err := s.appendTreasuryEntry(ctx, dbTx, treasury, domain.TreasuryEntryTransferIn, transfer, now); err != nil {
			return nil, err
		}
	}

	for id := range wallets {
		if _, err := recomputeWalletAggregates(ctx, dbTx, s.txRepo, s.expenseRepo, s.walletRepo, id, now, s.loc); err != nil {
			return nil, apperror.InternalError(err)
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("transfer_id", transfer.ID.String()).
		Str("amount", transfer.Amount.String()).
		Bool("from_treasury", transfer.FromTreasury).
		Bool("to_treasury", transfer.ToTreasury).
		Msg("transfer completed")

	return transfer, nil
}

func (s *transferService) ListTransfers(ctx context.Context, limit int) ([]domain.Transfer, error) {
	transfers, err := s.transferRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return transfers, nil
}

// appendTreasuryEntry logs a treasury leg and recomputes the treasury
// balance from the signed sum of its log.
func (s *transferService) appendTreasuryEntry(ctx context.Context, dbTx pgx.Tx, treasury *domain.CashTreasury, entryType domain.TreasuryEntryType, transfer *domain.Transfer, now time.Time) error {
	entry := &domain.TreasuryEntry{
		ID:          uuid.New(),
		Type:        entryType,
		Amount:      transfer.Amount,
		Description: transfer.Description,
		TransferID:  &transfer.ID,
		CreatedAt:   now,
	}
	if err := s.treasuryRepo.AppendEntry(ctx, dbTx, entry); err != nil {
		return apperror.InternalError(fmt.Errorf("append treasury entry: %w", err))
	}

	balance, err := s.treasuryRepo.SumEntries(ctx, dbTx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("sum treasury entries: %w", err))
	}
	if err := s.treasuryRepo.UpdateBalance(ctx, dbTx, treasury.ID, balance); err != nil {
		return apperror.InternalError(fmt.Errorf("update treasury balance: %w", err))
	}
	treasury.Balance = balance
	return nil
}

// lockTransferWallets locks the wallets named by a transfer in ascending
// UUID order and returns them keyed by ID.
func (s *transferService) lockTransferWallets(ctx context.Context, dbTx pgx.Tx, from, to *uuid.UUID) (map[uuid.UUID]*domain.Wallet, error) {
	var ids []uuid.UUID
	if from != nil {
		ids = append(ids, *from)
	}
	if to != nil {
		ids = append(ids, *to)
	}
	if len(ids) == 2 && bytes.Compare(ids[1][:], ids[0][:]) < 0 {
		ids[0], ids[1] = ids[1], ids[0]
	}

	wallets := make(map[uuid.UUID]*domain.Wallet, len(ids))
	for _, id := range ids {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if w == nil {
			return nil, apperror.ErrNotFound("wallet")
		}
		wallets[id] = w
	}
	return wallets, nil
}

func legDescription(prefix, desc string) string {
	if desc == "" {
		return prefix
	}
	return prefix + ": " + desc
}

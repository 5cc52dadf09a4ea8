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

type walletService struct {
	walletRepo ports.WalletRepository
	log        zerolog.Logger
}

// NewWalletService creates a new wallet management service.
func NewWalletService(walletRepo ports.WalletRepository, log zerolog.Logger) ports.WalletService {
	return &walletService{walletRepo: walletRepo, log: log}
}

func (s *walletService) CreateWallet(ctx context.Context, req ports.CreateWalletRequest) (*domain.Wallet, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("Wallet name is required")
	}
	if !req.Fee.Type.Valid() {
		return nil, apperror.Validation("Unknown fee type")
	}
	if req.Fee.Percentage.IsNegative() || req.Fee.PerThousand.IsNegative() ||
		req.Fee.FixedAmount.IsNegative() || req.Fee.MinFee.IsNegative() || req.Fee.MaxFee.IsNegative() {
		return nil, apperror.Validation("Fee values must not be negative")
	}

	contact := strings.TrimSpace(req.ContactNumber)
	if contact != "" {
		existing, err := s.walletRepo.GetByContactNumber(ctx, contact)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check contact number: %w", err))
		}
		if existing != nil {
			return nil, apperror.ErrContactNumberTaken()
		}
	}

	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:            uuid.New(),
		Name:          name,
		ContactNumber: contact,
		Fee:           req.Fee,
		MonthlyLimit:  req.MonthlyLimit,
		DailyLimit:    req.DailyLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("fee_type", string(wallet.Fee.Type)).
		Msg("wallet created")

	return wallet, nil
}

func (s *walletService) GetWallet(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}
	return wallet, nil
}

func (s *walletService) ListWallets(ctx context.Context, includeArchived bool) ([]domain.Wallet, error) {
	wallets, err := s.walletRepo.List(ctx, includeArchived)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return wallets, nil
}

func (s *walletService) ArchiveWallet(ctx context.Context, id uuid.UUID) error {
	wallet, err := s.walletRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(err)
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}

	if err := s.walletRepo.Archive(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("archive wallet: %w", err))
	}

	s.log.Info().Str("wallet_id", id.String()).Msg("wallet archived")
	return nil
}

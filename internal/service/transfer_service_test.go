package service

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type transferTestDeps struct {
	svc          ports.TransferService
	transferRepo *mocks.MockTransferRepository
	treasuryRepo *mocks.MockTreasuryRepository
	txRepo       *mocks.MockTransactionRepository
	expenseRepo  *mocks.MockExpenseRepository
	walletRepo   *mocks.MockWalletRepository
	transactor   *mocks.MockDBTransactor
	ctrl         *gomock.Controller
}

func setupTransferService(t *testing.T) *transferTestDeps {
	ctrl := gomock.NewController(t)
	d := &transferTestDeps{
		transferRepo: mocks.NewMockTransferRepository(ctrl),
		treasuryRepo: mocks.NewMockTreasuryRepository(ctrl),
		txRepo:       mocks.NewMockTransactionRepository(ctrl),
		expenseRepo:  mocks.NewMockExpenseRepository(ctrl),
		walletRepo:   mocks.NewMockWalletRepository(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
		ctrl:         ctrl,
	}
	d.svc = NewTransferService(
		d.transferRepo, d.treasuryRepo, d.txRepo, d.expenseRepo,
		d.walletRepo, d.transactor, time.UTC, zerolog.Nop(),
	)
	return d
}

func TestTransferService_WalletToWallet_CreatesZeroFeeLegs(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	src := percentWallet("3", "1000")
	dst := percentWallet("5", "200")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, src.ID).Return(src, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, dst.ID).Return(dst, nil)

	var legs []*domain.Transaction
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, txn *domain.Transaction) error {
			// Transfer legs bypass the fee policy entirely.
			assert.True(t, txn.FeeAmount.IsZero(), "transfer legs carry no fee")
			legs = append(legs, txn)
			return nil
		}).Times(2)
	d.transferRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, tr *domain.Transfer) error {
			assert.NotNil(t, tr.FromTransactionID)
			assert.NotNil(t, tr.ToTransactionID)
			return nil
		})

	d.txRepo.EXPECT().TotalsByWallet(ctx, tx, src.ID, gomock.Any(), gomock.Any()).Return(&ports.LedgerTotals{}, nil)
	d.txRepo.EXPECT().TotalsByWallet(ctx, tx, dst.ID, gomock.Any(), gomock.Any()).Return(&ports.LedgerTotals{}, nil)
	d.expenseRepo.EXPECT().SumByWallet(ctx, tx, src.ID).Return(decimal.Zero, nil)
	d.expenseRepo.EXPECT().SumByWallet(ctx, tx, dst.ID).Return(decimal.Zero, nil)
	d.walletRepo.EXPECT().UpdateAggregates(ctx, tx, src.ID, gomock.Any()).Return(nil)
	d.walletRepo.EXPECT().UpdateAggregates(ctx, tx, dst.ID, gomock.Any()).Return(nil)

	transfer, err := d.svc.CreateTransfer(ctx, ports.TransferRequest{
		FromWalletID: &src.ID,
		ToWalletID:   &dst.ID,
		Amount:       dec("300"),
	})
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, domain.TransactionTypeWithdrawal, legs[0].Type)
	assert.Equal(t, src.ID, legs[0].WalletID)
	assert.Equal(t, domain.TransactionTypeDeposit, legs[1].Type)
	assert.Equal(t, dst.ID, legs[1].WalletID)
	assert.True(t, dec("300").Equal(transfer.Amount))
}

func TestTransferService_WalletToTreasury(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	src := percentWallet("3", "1000")
	treasury := &domain.CashTreasury{ID: uuid.New(), Balance: dec("0")}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, src.ID).Return(src, nil)
	d.treasuryRepo.EXPECT().GetForUpdate(ctx, tx).Return(treasury, nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.transferRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.treasuryRepo.EXPECT().AppendEntry(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, e *domain.TreasuryEntry) error {
			assert.Equal(t, domain.TreasuryEntryTransferIn, e.Type)
			assert.NotNil(t, e.TransferID)
			return nil
		})
	d.treasuryRepo.EXPECT().SumEntries(ctx, tx).Return(dec("400"), nil)
	d.treasuryRepo.EXPECT().UpdateBalance(ctx, tx, treasury.ID, dec("400")).Return(nil)
	d.txRepo.EXPECT().TotalsByWallet(ctx, tx, src.ID, gomock.Any(), gomock.Any()).Return(&ports.LedgerTotals{}, nil)
	d.expenseRepo.EXPECT().SumByWallet(ctx, tx, src.ID).Return(decimal.Zero, nil)
	d.walletRepo.EXPECT().UpdateAggregates(ctx, tx, src.ID, gomock.Any()).Return(nil)

	transfer, err := d.svc.CreateTransfer(ctx, ports.TransferRequest{
		FromWalletID: &src.ID,
		ToTreasury:   true,
		Amount:       dec("400"),
	})
	require.NoError(t, err)
	assert.True(t, transfer.ToTreasury)
	assert.NotNil(t, transfer.FromTransactionID)
	assert.Nil(t, transfer.ToTransactionID)
}

func TestTransferService_MissingParty(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	srcID := uuid.New()
	_, err := d.svc.CreateTransfer(context.Background(), ports.TransferRequest{
		FromWalletID: &srcID,
		Amount:       dec("100"),
	})
	assertAppCode(t, err, "VAL_006")
}

func TestTransferService_SameWalletRejected(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	id := uuid.New()
	_, err := d.svc.CreateTransfer(context.Background(), ports.TransferRequest{
		FromWalletID: &id,
		ToWalletID:   &id,
		Amount:       dec("100"),
	})
	assertAppCode(t, err, "VAL_001")
}

func TestTransferService_SourceInsufficientBalance(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	src := percentWallet("3", "50")
	dst := percentWallet("5", "0")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, src.ID).Return(src, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, dst.ID).Return(dst, nil)

	_, err := d.svc.CreateTransfer(ctx, ports.TransferRequest{
		FromWalletID: &src.ID,
		ToWalletID:   &dst.ID,
		Amount:       dec("100"),
	})
	assertAppCode(t, err, "BAL_001")
}

func TestTransferService_TreasurySourceInsufficient(t *testing.T) {
	d := setupTransferService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	dst := percentWallet("3", "0")
	treasury := &domain.CashTreasury{ID: uuid.New(), Balance: dec("10")}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, dst.ID).Return(dst, nil)
	d.treasuryRepo.EXPECT().GetForUpdate(ctx, tx).Return(treasury, nil)

	_, err := d.svc.CreateTransfer(ctx, ports.TransferRequest{
		FromTreasury: true,
		ToWalletID:   &dst.ID,
		Amount:       dec("100"),
	})
	assertAppCode(t, err, "BAL_001")
}

package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type summaryTestDeps struct {
	svc         ports.SummaryService
	txRepo      *mocks.MockTransactionRepository
	expenseRepo *mocks.MockExpenseRepository
	walletRepo  *mocks.MockWalletRepository
	cache       *mocks.MockSummaryCache
	ctrl        *gomock.Controller
}

func setupSummaryService(t *testing.T) *summaryTestDeps {
	ctrl := gomock.NewController(t)
	d := &summaryTestDeps{
		txRepo:      mocks.NewMockTransactionRepository(ctrl),
		expenseRepo: mocks.NewMockExpenseRepository(ctrl),
		walletRepo:  mocks.NewMockWalletRepository(ctrl),
		cache:       mocks.NewMockSummaryCache(ctrl),
		ctrl:        ctrl,
	}
	d.svc = NewSummaryService(
		d.txRepo, d.expenseRepo, d.walletRepo, d.cache,
		30*time.Second, time.UTC, zerolog.Nop(),
	)
	return d
}

func TestSummaryService_Monthly_ReconciliationIdentity(t *testing.T) {
	d := setupSummaryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	anchor := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	monthStart := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(&domain.Wallet{ID: walletID}, nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)

	// History before the window: 10000 deposited, 2000 withdrawn, 500 spent.
	d.txRepo.EXPECT().WindowTotals(ctx, walletID, time.Time{}, monthStart).Return(&ports.WindowTotals{
		Deposits:    dec("10000"),
		Withdrawals: dec("2000"),
		Fees:        dec("60"),
	}, nil)
	d.expenseRepo.EXPECT().WindowSum(ctx, walletID, time.Time{}, monthStart).Return(dec("500"), int64(2), nil)

	// Inside the window.
	d.txRepo.EXPECT().WindowTotals(ctx, walletID, monthStart, monthEnd).Return(&ports.WindowTotals{
		Deposits:    dec("3000"),
		Withdrawals: dec("1200"),
		Fees:        dec("36"),
		Count:       5,
	}, nil)
	d.expenseRepo.EXPECT().WindowSum(ctx, walletID, monthStart, monthEnd).Return(dec("200"), int64(1), nil)

	d.cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any(), 30*time.Second).Return(nil)

	summary, err := d.svc.Summarize(ctx, walletID, anchor, domain.GranularityMonthly)
	require.NoError(t, err)

	// Opening replays raw balance (fees are not netted out).
	assert.True(t, dec("7500").Equal(summary.OpeningBalance), "opening = 10000-2000-500, got %s", summary.OpeningBalance)

	// Net change is the cash-flow view: fees reduce it.
	assert.True(t, dec("1564").Equal(summary.NetChange), "net = 3000-1200-36-200, got %s", summary.NetChange)
	assert.True(t, summary.ClosingBalance.Equal(summary.OpeningBalance.Add(summary.NetChange)))
	assert.Equal(t, int64(5), summary.TransactionCount)
	assert.Equal(t, int64(1), summary.ExpenseCount)
	assert.True(t, summary.Start.Equal(monthStart))
	assert.True(t, summary.End.Equal(monthEnd))
	assert.Empty(t, summary.Months)
	assert.Empty(t, summary.Quarters)
}

func TestSummaryService_Quarterly_MonthsTileTheQuarter(t *testing.T) {
	d := setupSummaryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	anchor := time.Date(2026, time.May, 10, 0, 0, 0, 0, time.UTC)

	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(&domain.Wallet{ID: walletID}, nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	// Every month of 2026 sees one 100 deposit; history starts in January.
	d.txRepo.EXPECT().WindowTotals(ctx, walletID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ uuid.UUID, from, to time.Time) (*ports.WindowTotals, error) {
			if from.IsZero() {
				from = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
			}
			months := int(to.Month()) - int(from.Month())
			if months < 0 {
				months = 0
			}
			return &ports.WindowTotals{
				Deposits: decimal.NewFromInt(int64(100 * months)),
				Count:    int64(months),
			}, nil
		}).AnyTimes()
	d.expenseRepo.EXPECT().WindowSum(ctx, walletID, gomock.Any(), gomock.Any()).Return(decimal.Zero, int64(0), nil).AnyTimes()

	summary, err := d.svc.Summarize(ctx, walletID, anchor, domain.GranularityQuarterly)
	require.NoError(t, err)
	require.Len(t, summary.Months, 3)
	assert.Empty(t, summary.Quarters)

	// Sub-period totals sum to the quarter total.
	sum := decimal.Zero
	for _, m := range summary.Months {
		sum = sum.Add(m.TotalDeposits)
	}
	assert.True(t, sum.Equal(summary.TotalDeposits), "months sum %s != quarter %s", sum, summary.TotalDeposits)

	// Months chain: each closing balance is the next month's opening.
	assert.True(t, summary.Months[0].ClosingBalance.Equal(summary.Months[1].OpeningBalance))
	assert.True(t, summary.Months[1].ClosingBalance.Equal(summary.Months[2].OpeningBalance))
}

func TestSummaryService_Yearly_HasMonthAndQuarterBreakdown(t *testing.T) {
	d := setupSummaryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	anchor := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)

	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(&domain.Wallet{ID: walletID}, nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(nil, nil)
	d.cache.EXPECT().Set(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	d.txRepo.EXPECT().WindowTotals(ctx, walletID, gomock.Any(), gomock.Any()).Return(&ports.WindowTotals{}, nil).AnyTimes()
	d.expenseRepo.EXPECT().WindowSum(ctx, walletID, gomock.Any(), gomock.Any()).Return(decimal.Zero, int64(0), nil).AnyTimes()

	summary, err := d.svc.Summarize(ctx, walletID, anchor, domain.GranularityYearly)
	require.NoError(t, err)
	assert.Len(t, summary.Months, 12)
	assert.Len(t, summary.Quarters, 4)
}

func TestSummaryService_CacheHit_SkipsReplay(t *testing.T) {
	d := setupSummaryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	anchor := time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)

	cached := domain.PeriodSummary{
		Granularity:    domain.GranularityDaily,
		OpeningBalance: dec("42"),
		ClosingBalance: dec("42"),
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(&domain.Wallet{ID: walletID}, nil)
	d.cache.EXPECT().Get(ctx, gomock.Any()).Return(payload, nil)

	summary, err := d.svc.Summarize(ctx, walletID, anchor, domain.GranularityDaily)
	require.NoError(t, err)
	assert.True(t, dec("42").Equal(summary.OpeningBalance))
}

func TestSummaryService_InvalidGranularity(t *testing.T) {
	d := setupSummaryService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Summarize(context.Background(), uuid.New(), time.Now(), domain.Granularity("hourly"))
	assertAppCode(t, err, "VAL_001")
}

func TestSummaryService_WalletNotFound(t *testing.T) {
	d := setupSummaryService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	walletID := uuid.New()
	d.walletRepo.EXPECT().GetByID(ctx, walletID).Return(nil, nil)

	_, err := d.svc.Summarize(ctx, walletID, time.Now(), domain.GranularityDaily)
	assertAppCode(t, err, "RES_001")
}

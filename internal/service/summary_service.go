package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type summaryService struct {
	txRepo      ports.TransactionRepository
	expenseRepo ports.ExpenseRepository
	walletRepo  ports.WalletRepository
	cache       ports.SummaryCache
	cacheTTL    time.Duration
	loc         *time.Location
	log         zerolog.Logger
}

// NewSummaryService creates the period reconciliation service. Summaries
// are replayed from history on every call and cached briefly; the cache is
// best-effort and never consulted inside storage transactions.
func NewSummaryService(
	txRepo ports.TransactionRepository,
	expenseRepo ports.ExpenseRepository,
	walletRepo ports.WalletRepository,
	cache ports.SummaryCache,
	cacheTTL time.Duration,
	loc *time.Location,
	log zerolog.Logger,
) ports.SummaryService {
	return &summaryService{
		txRepo:      txRepo,
		expenseRepo: expenseRepo,
		walletRepo:  walletRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		loc:         loc,
		log:         log,
	}
}

// Summarize reconstructs opening/closing balances and per-category totals
// for the calendar window containing anchor. Opening balances for every
// granularity replay history strictly before the window start from a zero
// seed, so summaries at different granularities agree with each other.
func (s *summaryService) Summarize(ctx context.Context, walletID uuid.UUID, anchor time.Time, g domain.Granularity) (*domain.PeriodSummary, error) {
	if !g.Valid() {
		return nil, apperror.Validation("Unknown summary granularity")
	}

	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	period := domain.PeriodOf(anchor, g, s.loc)
	cacheKey := summaryCacheKey(walletID, g, period.Start)

	if cached, err := s.cache.Get(ctx, cacheKey); err != nil {
		s.log.Warn().Err(err).Str("key", cacheKey).Msg("summary cache read failed")
	} else if cached != nil {
		var summary domain.PeriodSummary
		if err := json.Unmarshal(cached, &summary); err == nil {
			return &summary, nil
		}
		s.log.Warn().Str("key", cacheKey).Msg("discarding malformed cached summary")
	}

	summary, err := s.buildSummary(ctx, walletID, g, period)
	if err != nil {
		return nil, err
	}

	switch g {
	case domain.GranularityQuarterly:
		summary.Months, err = s.buildSubSummaries(ctx, walletID, domain.GranularityMonthly, period.MonthsIn())
	case domain.GranularityYearly:
		summary.Months, err = s.buildSubSummaries(ctx, walletID, domain.GranularityMonthly, period.MonthsIn())
		if err == nil {
			summary.Quarters, err = s.buildSubSummaries(ctx, walletID, domain.GranularityQuarterly, period.QuartersIn())
		}
	}
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(summary); err == nil {
		if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL); err != nil {
			s.log.Warn().Err(err).Str("key", cacheKey).Msg("summary cache write failed")
		}
	}

	return summary, nil
}

// buildSummary reconciles one window: opening balance from a full replay of
// history before the window, totals from the window itself.
func (s *summaryService) buildSummary(ctx context.Context, walletID uuid.UUID, g domain.Granularity, p domain.Period) (*domain.PeriodSummary, error) {
	before, err := s.txRepo.WindowTotals(ctx, walletID, time.Time{}, p.Start)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("replay history before window: %w", err))
	}
	expensesBefore, _, err := s.expenseRepo.WindowSum(ctx, walletID, time.Time{}, p.Start)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("replay expenses before window: %w", err))
	}

	in, err := s.txRepo.WindowTotals(ctx, walletID, p.Start, p.End)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("aggregate window: %w", err))
	}
	expensesIn, expenseCount, err := s.expenseRepo.WindowSum(ctx, walletID, p.Start, p.End)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("aggregate window expenses: %w", err))
	}

	opening := before.Deposits.Sub(before.Withdrawals).Sub(expensesBefore)

	// Net change is the depositor-facing cash-flow view: fees reduce it,
	// even though the ledger's stored balance never nets fees out.
	netChange := in.Deposits.Sub(in.Withdrawals).Sub(in.Fees).Sub(expensesIn)

	return &domain.PeriodSummary{
		Granularity:      g,
		Start:            p.Start,
		End:              p.End,
		OpeningBalance:   opening,
		ClosingBalance:   opening.Add(netChange),
		TotalDeposits:    in.Deposits,
		TotalWithdrawals: in.Withdrawals,
		TotalFees:        in.Fees,
		TotalExpenses:    expensesIn,
		NetChange:        netChange,
		TransactionCount: in.Count,
		ExpenseCount:     expenseCount,
	}, nil
}

func (s *summaryService) buildSubSummaries(ctx context.Context, walletID uuid.UUID, g domain.Granularity, periods []domain.Period) ([]domain.PeriodSummary, error) {
	out := make([]domain.PeriodSummary, 0, len(periods))
	for _, p := range periods {
		sub, err := s.buildSummary(ctx, walletID, g, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	return out, nil
}

func summaryCacheKey(walletID uuid.UUID, g domain.Granularity, start time.Time) string {
	return fmt.Sprintf("summary:%s:%s:%d", walletID, g, start.Unix())
}

package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// recomputeWalletAggregates rebuilds a wallet's cached totals from its full
// transaction and expense sets and persists them. It must run inside the
// transaction that holds the wallet's row lock, after the mutation that
// triggered it, so the recompute sees the final state.
//
// Balance = deposits - withdrawals - expenses. Fees are tracked as earned
// revenue and never netted out of the balance.
func recomputeWalletAggregates(
	ctx context.Context,
	dbTx pgx.Tx,
	txRepo ports.TransactionRepository,
	expenseRepo ports.ExpenseRepository,
	walletRepo ports.WalletRepository,
	walletID uuid.UUID,
	now time.Time,
	loc *time.Location,
) (*domain.WalletAggregates, error) {
	month := domain.PeriodOf(now, domain.GranularityMonthly, loc)

	totals, err := txRepo.TotalsByWallet(ctx, dbTx, walletID, month.Start, month.End)
	if err != nil {
		return nil, fmt.Errorf("recompute transaction totals: %w", err)
	}

	expenses, err := expenseRepo.SumByWallet(ctx, dbTx, walletID)
	if err != nil {
		return nil, fmt.Errorf("recompute expense total: %w", err)
	}

	agg := domain.WalletAggregates{
		Balance:          totals.Deposits.Sub(totals.Withdrawals).Sub(expenses),
		TotalDeposits:    totals.Deposits,
		TotalWithdrawals: totals.Withdrawals,
		TotalFeesEarned:  totals.Fees,
		MonthlyVolume:    totals.MonthVolume,
	}

	if err := walletRepo.UpdateAggregates(ctx, dbTx, walletID, agg); err != nil {
		return nil, fmt.Errorf("persist aggregates: %w", err)
	}
	return &agg, nil
}

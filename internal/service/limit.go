package service

import (
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
)

// DefaultMonthlyCap applies to wallets without a positive MonthlyLimit of
// their own (currency units).
var DefaultMonthlyCap = decimal.NewFromInt(200000)

// MonthlyCap returns the transaction-volume ceiling for a wallet: the
// wallet's own limit when positive, the global default otherwise.
func MonthlyCap(w *domain.Wallet, fallback decimal.Decimal) decimal.Decimal {
	if w.MonthlyLimit.IsPositive() {
		return w.MonthlyLimit
	}
	return fallback
}

// CheckMonthlyLimit accepts or rejects a proposed transaction amount given
// the volume already recorded in the wallet's current calendar month.
// The check sums amounts only (fees are revenue, not volume); a total equal
// to the cap is accepted. Pure: callers fetch monthToDate inside the same
// storage transaction that will persist the write.
func CheckMonthlyLimit(w *domain.Wallet, proposed, monthToDate, fallbackCap decimal.Decimal) error {
	ceiling := MonthlyCap(w, fallbackCap)
	if monthToDate.Add(proposed).GreaterThan(ceiling) {
		return apperror.ErrMonthlyLimitExceeded()
	}
	return nil
}

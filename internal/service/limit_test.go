package service

import (
	"errors"
	"testing"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthlyCap(t *testing.T) {
	fallback := dec("200000")

	w := &domain.Wallet{MonthlyLimit: dec("50000")}
	assert.True(t, dec("50000").Equal(MonthlyCap(w, fallback)))

	w = &domain.Wallet{} // zero limit falls back to the default
	assert.True(t, fallback.Equal(MonthlyCap(w, fallback)))
}

func TestCheckMonthlyLimit_Boundary(t *testing.T) {
	w := &domain.Wallet{} // default 200,000 cap
	monthToDate := dec("199900")

	// Landing exactly on the cap is allowed.
	err := CheckMonthlyLimit(w, dec("100"), monthToDate, DefaultMonthlyCap)
	assert.NoError(t, err)

	// One unit over is rejected.
	err = CheckMonthlyLimit(w, dec("101"), monthToDate, DefaultMonthlyCap)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "LIM_001", appErr.Code)
}

func TestCheckMonthlyLimit_PerWalletOverride(t *testing.T) {
	w := &domain.Wallet{MonthlyLimit: dec("1000")}

	err := CheckMonthlyLimit(w, dec("400"), dec("600"), DefaultMonthlyCap)
	assert.NoError(t, err)

	err = CheckMonthlyLimit(w, dec("401"), dec("600"), DefaultMonthlyCap)
	assert.Error(t, err)
}

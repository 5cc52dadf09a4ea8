package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.wallets[id]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryWalletRepo) GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if !w.IsArchived && w.ContactNumber == contactNumber {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryWalletRepo) List(ctx context.Context, includeArchived bool) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Wallet
	for _, w := range r.wallets {
		if !includeArchived && w.IsArchived {
			continue
		}
		result = append(result, *w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *inMemoryWalletRepo) UpdateAggregates(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, agg domain.WalletAggregates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.Aggregates = agg
	w.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryWalletRepo) Archive(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[id]
	if !ok {
		return fmt.Errorf("wallet not found")
	}
	w.IsArchived = true
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{transactions: make(map[uuid.UUID]*domain.Transaction)}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransactionRepo) Update(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[t.ID]; !ok {
		return fmt.Errorf("transaction not found")
	}
	cp := *t
	r.transactions[t.ID] = &cp
	return nil
}

func (r *inMemoryTransactionRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transactions[id]; !ok {
		return fmt.Errorf("transaction not found")
	}
	delete(r.transactions, id)
	return nil
}

func (r *inMemoryTransactionRepo) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.transactions {
		if params.WalletID != nil && t.WalletID != *params.WalletID {
			continue
		}
		if params.Type != nil && t.Type != *params.Type {
			continue
		}
		if params.From != nil && t.Date.Before(*params.From) {
			continue
		}
		if params.To != nil && !t.Date.Before(*params.To) {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transaction{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

func (r *inMemoryTransactionRepo) TotalsByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, monthStart, monthEnd time.Time) (*ports.LedgerTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	totals := &ports.LedgerTotals{
		Deposits:    decimal.Zero,
		Withdrawals: decimal.Zero,
		Fees:        decimal.Zero,
		MonthVolume: decimal.Zero,
	}
	for _, t := range r.transactions {
		if t.WalletID != walletID {
			continue
		}
		switch t.Type {
		case domain.TransactionTypeDeposit:
			totals.Deposits = totals.Deposits.Add(t.Amount)
		case domain.TransactionTypeWithdrawal:
			totals.Withdrawals = totals.Withdrawals.Add(t.Amount)
		}
		totals.Fees = totals.Fees.Add(t.FeeAmount)
		if !t.Date.Before(monthStart) && t.Date.Before(monthEnd) {
			totals.MonthVolume = totals.MonthVolume.Add(t.Amount)
		}
	}
	return totals, nil
}

func (r *inMemoryTransactionRepo) SumAmountInWindow(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, t := range r.transactions {
		if t.WalletID != walletID {
			continue
		}
		if t.Date.Before(from) || !t.Date.Before(to) {
			continue
		}
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

func (r *inMemoryTransactionRepo) WindowTotals(ctx context.Context, walletID uuid.UUID, from, to time.Time) (*ports.WindowTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	totals := &ports.WindowTotals{
		Deposits:    decimal.Zero,
		Withdrawals: decimal.Zero,
		Fees:        decimal.Zero,
	}
	for _, t := range r.transactions {
		if t.WalletID != walletID {
			continue
		}
		if !from.IsZero() && t.Date.Before(from) {
			continue
		}
		if !t.Date.Before(to) {
			continue
		}
		switch t.Type {
		case domain.TransactionTypeDeposit:
			totals.Deposits = totals.Deposits.Add(t.Amount)
		case domain.TransactionTypeWithdrawal:
			totals.Withdrawals = totals.Withdrawals.Add(t.Amount)
		}
		totals.Fees = totals.Fees.Add(t.FeeAmount)
		totals.Count++
	}
	return totals, nil
}

// --- In-Memory Expense Repo ---

type inMemoryExpenseRepo struct {
	mu       sync.RWMutex
	expenses map[uuid.UUID]*domain.Expense
}

func newInMemoryExpenseRepo() *inMemoryExpenseRepo {
	return &inMemoryExpenseRepo{expenses: make(map[uuid.UUID]*domain.Expense)}
}

func (r *inMemoryExpenseRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.expenses[e.ID] = &cp
	return nil
}

func (r *inMemoryExpenseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.expenses[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *inMemoryExpenseRepo) Delete(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[id]; !ok {
		return fmt.Errorf("expense not found")
	}
	delete(r.expenses, id)
	return nil
}

func (r *inMemoryExpenseRepo) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Expense
	for _, e := range r.expenses {
		if e.WalletID == walletID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (r *inMemoryExpenseRepo) SumByWallet(ctx context.Context, tx pgx.Tx, walletID uuid.UUID) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for _, e := range r.expenses {
		if e.WalletID == walletID {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (r *inMemoryExpenseRepo) WindowSum(ctx context.Context, walletID uuid.UUID, from, to time.Time) (decimal.Decimal, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	var count int64
	for _, e := range r.expenses {
		if e.WalletID != walletID {
			continue
		}
		if !from.IsZero() && e.Date.Before(from) {
			continue
		}
		if !e.Date.Before(to) {
			continue
		}
		sum = sum.Add(e.Amount)
		count++
	}
	return sum, count, nil
}

// --- In-Memory Transfer Repo ---

type inMemoryTransferRepo struct {
	mu        sync.RWMutex
	transfers map[uuid.UUID]*domain.Transfer
}

func newInMemoryTransferRepo() *inMemoryTransferRepo {
	return &inMemoryTransferRepo{transfers: make(map[uuid.UUID]*domain.Transfer)}
}

func (r *inMemoryTransferRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.transfers[t.ID] = &cp
	return nil
}

func (r *inMemoryTransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransferRepo) ListRecent(ctx context.Context, limit int) ([]domain.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transfer
	for _, t := range r.transfers {
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- In-Memory Treasury Repo ---

type inMemoryTreasuryRepo struct {
	mu       sync.RWMutex
	treasury *domain.CashTreasury
	entries  []domain.TreasuryEntry
}

func newInMemoryTreasuryRepo() *inMemoryTreasuryRepo {
	return &inMemoryTreasuryRepo{}
}

func (r *inMemoryTreasuryRepo) Ensure(ctx context.Context) (*domain.CashTreasury, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.treasury == nil {
		r.treasury = &domain.CashTreasury{
			ID:        uuid.New(),
			Balance:   decimal.Zero,
			UpdatedAt: time.Now().UTC(),
		}
	}
	cp := *r.treasury
	return &cp, nil
}

func (r *inMemoryTreasuryRepo) Get(ctx context.Context) (*domain.CashTreasury, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.treasury == nil {
		return nil, nil
	}
	cp := *r.treasury
	return &cp, nil
}

func (r *inMemoryTreasuryRepo) GetForUpdate(ctx context.Context, tx pgx.Tx) (*domain.CashTreasury, error) {
	return r.Get(ctx)
}

func (r *inMemoryTreasuryRepo) AppendEntry(ctx context.Context, tx pgx.Tx, e *domain.TreasuryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *inMemoryTreasuryRepo) SumEntries(ctx context.Context, tx pgx.Tx) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := decimal.Zero
	for i := range r.entries {
		e := &r.entries[i]
		if e.Type.Sign() > 0 {
			sum = sum.Add(e.Amount)
		} else {
			sum = sum.Sub(e.Amount)
		}
	}
	return sum, nil
}

func (r *inMemoryTreasuryRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, id uuid.UUID, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.treasury == nil || r.treasury.ID != id {
		return fmt.Errorf("treasury not found")
	}
	r.treasury.Balance = balance
	r.treasury.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *inMemoryTreasuryRepo) ListEntries(ctx context.Context, limit int) ([]domain.TreasuryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.TreasuryEntry, len(r.entries))
	copy(result, r.entries)
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

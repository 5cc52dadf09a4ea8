package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpHandler "wallet-ledger/internal/adapter/http/handler"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack on in-memory repos and miniredis.
// This exercises the real HTTP layer, middleware, handlers, services, and
// Redis stores end-to-end.

type testApp struct {
	server     *httptest.Server
	redis      *miniredis.Miniredis
	adminToken string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	// Redis stores
	summaryCache := redisStorage.NewSummaryCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer")

	// In-memory repos
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	expenseRepo := newInMemoryExpenseRepo()
	transferRepo := newInMemoryTransferRepo()
	treasuryRepo := newInMemoryTreasuryRepo()
	transactor := newInMemoryTransactor()

	_, err = treasuryRepo.Ensure(t.Context())
	require.NoError(t, err)

	// Business services
	log := logger.New("debug", false)
	defaultCap := decimal.NewFromInt(200000)
	ledgerSvc := service.NewLedgerService(txRepo, walletRepo, expenseRepo, transactor, defaultCap, time.UTC, log)
	walletSvc := service.NewWalletService(walletRepo, log)
	expenseSvc := service.NewExpenseService(expenseRepo, txRepo, walletRepo, transactor, time.UTC, log)
	transferSvc := service.NewTransferService(transferRepo, treasuryRepo, txRepo, expenseRepo, walletRepo, transactor, time.UTC, log)
	treasurySvc := service.NewTreasuryService(treasuryRepo, transactor, log)
	summarySvc := service.NewSummaryService(txRepo, expenseRepo, walletRepo, summaryCache, time.Second, time.UTC, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		WalletSvc:      walletSvc,
		ExpenseSvc:     expenseSvc,
		TransferSvc:    transferSvc,
		TreasurySvc:    treasurySvc,
		SummarySvc:     summarySvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		Logger:         log,
	})

	server := httptest.NewServer(router)

	adminToken, _, err := tokenSvc.Generate("test-operator", "admin")
	require.NoError(t, err)

	return &testApp{
		server:     server,
		redis:      mr,
		adminToken: adminToken,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

func (a *testApp) request(t *testing.T, method, path string, body any) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.adminToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return resp.StatusCode, parsed
}

func data(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func (a *testApp) createWallet(t *testing.T, name string, fee map[string]any, extra map[string]any) string {
	t.Helper()
	payload := map[string]any{"name": name, "fee": fee}
	for k, v := range extra {
		payload[k] = v
	}
	code, body := a.request(t, http.MethodPost, "/api/v1/wallets", payload)
	require.Equal(t, http.StatusCreated, code, "create wallet: %v", body)
	return data(t, body)["id"].(string)
}

func (a *testApp) walletBalance(t *testing.T, walletID string) string {
	t.Helper()
	code, body := a.request(t, http.MethodGet, "/api/v1/wallets/"+walletID, nil)
	require.Equal(t, http.StatusOK, code)
	return data(t, body)["balance"].(string)
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RequiresToken(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Post(app.server.URL+"/api/v1/transactions", "application/json",
		bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_FeeLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Main Wallet",
		map[string]any{"type": "percentage", "percentage": "3"}, nil)

	// Deposit 5000: free of fees.
	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "5000",
	})
	require.Equal(t, http.StatusCreated, code, "deposit: %v", body)
	assert.Equal(t, "0", data(t, body)["fee_amount"])
	assert.Equal(t, "5000", app.walletBalance(t, walletID))

	// Withdraw 1200 at 3%: fee 36, balance down by the amount only.
	code, body = app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "withdrawal", "amount": "1200",
	})
	require.Equal(t, http.StatusCreated, code, "withdrawal: %v", body)
	withdrawal := data(t, body)
	assert.Equal(t, "36", withdrawal["fee_amount"])
	assert.Equal(t, "3800", app.walletBalance(t, walletID))

	code, body = app.request(t, http.MethodGet, "/api/v1/wallets/"+walletID, nil)
	require.Equal(t, http.StatusOK, code)
	wallet := data(t, body)
	assert.Equal(t, "36", wallet["total_fees_earned"])
	assert.Equal(t, "5000", wallet["total_deposits"])
	assert.Equal(t, "1200", wallet["total_withdrawals"])
	assert.Equal(t, "6200", wallet["monthly_volume"])

	// Deleting the withdrawal restores the balance and the earned fees.
	code, body = app.request(t, http.MethodDelete, "/api/v1/transactions/"+withdrawal["id"].(string), nil)
	require.Equal(t, http.StatusOK, code, "delete: %v", body)

	code, body = app.request(t, http.MethodGet, "/api/v1/wallets/"+walletID, nil)
	require.Equal(t, http.StatusOK, code)
	wallet = data(t, body)
	assert.Equal(t, "5000", wallet["balance"])
	assert.Equal(t, "0", wallet["total_fees_earned"])
	assert.Equal(t, "0", wallet["total_withdrawals"])
}

func TestIntegration_RecomputeIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Steady Wallet",
		map[string]any{"type": "percentage", "percentage": "3"}, nil)

	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "5000",
	})
	require.Equal(t, http.StatusCreated, code, "deposit: %v", body)
	code, body = app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "withdrawal", "amount": "1200",
	})
	require.Equal(t, http.StatusCreated, code, "withdrawal: %v", body)
	withdrawalID := data(t, body)["id"].(string)

	code, body = app.request(t, http.MethodGet, "/api/v1/wallets/"+walletID, nil)
	require.Equal(t, http.StatusOK, code)
	before := data(t, body)

	// An update that rewrites the same values triggers a second full
	// recompute, which must not move any aggregate.
	code, body = app.request(t, http.MethodPut, "/api/v1/transactions/"+withdrawalID, map[string]any{
		"wallet_id": walletID, "type": "withdrawal", "amount": "1200",
	})
	require.Equal(t, http.StatusOK, code, "update: %v", body)

	code, body = app.request(t, http.MethodGet, "/api/v1/wallets/"+walletID, nil)
	require.Equal(t, http.StatusOK, code)
	after := data(t, body)

	for _, field := range []string{"balance", "total_deposits", "total_withdrawals", "total_fees_earned", "monthly_volume"} {
		assert.Equal(t, before[field], after[field], field)
	}
}

func TestIntegration_InsufficientBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Thin Wallet",
		map[string]any{"type": "fixed", "fixed_amount": "5"}, nil)

	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "withdrawal", "amount": "10",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "BAL_001", body["error_code"])
}

func TestIntegration_MonthlyLimit(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Capped Wallet",
		map[string]any{"type": "fixed"},
		map[string]any{"monthly_limit": "1000"})

	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "800",
	})
	require.Equal(t, http.StatusCreated, code, "first deposit: %v", body)

	// 800 + 201 breaches the 1000 cap.
	code, body = app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "201",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "LIM_001", body["error_code"])

	// 800 + 200 hits the cap exactly and is accepted.
	code, body = app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "200",
	})
	assert.Equal(t, http.StatusCreated, code, "boundary deposit: %v", body)
}

func TestIntegration_TransferAndTreasury(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	// Seed the treasury with cash.
	code, body := app.request(t, http.MethodPost, "/api/v1/treasury/deposit", map[string]any{
		"amount": "1000", "description": "opening float",
	})
	require.Equal(t, http.StatusOK, code, "treasury deposit: %v", body)
	assert.Equal(t, "1000", data(t, body)["balance"])

	walletID := app.createWallet(t, "Field Wallet",
		map[string]any{"type": "percentage", "percentage": "3"}, nil)
	code, body = app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "500",
	})
	require.Equal(t, http.StatusCreated, code, "seed deposit: %v", body)

	// Wallet -> treasury. Transfer legs carry no fee.
	code, body = app.request(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"from_wallet_id": walletID, "to_treasury": true, "amount": "200",
	})
	require.Equal(t, http.StatusCreated, code, "transfer out: %v", body)
	assert.Equal(t, "300", app.walletBalance(t, walletID))

	code, body = app.request(t, http.MethodGet, "/api/v1/treasury", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1200", data(t, body)["balance"])

	// Treasury -> wallet.
	code, body = app.request(t, http.MethodPost, "/api/v1/transfers", map[string]any{
		"to_wallet_id": walletID, "from_treasury": true, "amount": "100",
	})
	require.Equal(t, http.StatusCreated, code, "transfer in: %v", body)
	assert.Equal(t, "400", app.walletBalance(t, walletID))

	code, body = app.request(t, http.MethodGet, "/api/v1/treasury", nil)
	require.Equal(t, http.StatusOK, code)
	treasury := data(t, body)
	assert.Equal(t, "1100", treasury["balance"])
	entries := treasury["entries"].([]interface{})
	assert.Len(t, entries, 3)

	// Fee totals are untouched by transfers.
	code, body = app.request(t, http.MethodGet, "/api/v1/wallets/"+walletID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", data(t, body)["total_fees_earned"])
}

func TestIntegration_ExpenseLifecycle(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Office Wallet",
		map[string]any{"type": "fixed"}, nil)
	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "1000",
	})
	require.Equal(t, http.StatusCreated, code, "deposit: %v", body)

	code, body = app.request(t, http.MethodPost, "/api/v1/expenses", map[string]any{
		"wallet_id": walletID, "category": "rent", "amount": "300",
	})
	require.Equal(t, http.StatusCreated, code, "expense: %v", body)
	expenseID := data(t, body)["id"].(string)
	assert.Equal(t, "700", app.walletBalance(t, walletID))

	// Deleting the expense refunds it.
	code, body = app.request(t, http.MethodDelete, "/api/v1/expenses/"+expenseID, nil)
	require.Equal(t, http.StatusOK, code, "delete expense: %v", body)
	assert.Equal(t, "1000", app.walletBalance(t, walletID))
}

func TestIntegration_QuarterlySummary(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "History Wallet",
		map[string]any{"type": "percentage", "percentage": "3"}, nil)

	// Backdated history across Q3 2026.
	deposits := []struct {
		amount string
		date   string
	}{
		{"1000", "2026-07-10T09:00:00Z"},
		{"2000", "2026-08-05T09:00:00Z"},
		{"300", "2026-09-01T09:00:00Z"},
	}
	for _, d := range deposits {
		code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
			"wallet_id": walletID, "type": "deposit", "amount": d.amount, "date": d.date,
		})
		require.Equal(t, http.StatusCreated, code, "deposit %s: %v", d.amount, body)
	}
	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "withdrawal", "amount": "500", "date": "2026-08-20T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, code, "withdrawal: %v", body)
	code, body = app.request(t, http.MethodPost, "/api/v1/expenses", map[string]any{
		"wallet_id": walletID, "category": "commission", "amount": "100", "date": "2026-08-25T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, code, "expense: %v", body)

	code, body = app.request(t, http.MethodGet,
		"/api/v1/wallets/"+walletID+"/summary/quarterly?at=2026-08-15T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, code, "summary: %v", body)
	summary := data(t, body)

	// Quarter: deposits 3300, withdrawals 500, fees 15 (3% of 500),
	// expenses 100. Net change nets fees out; the opening replay does not.
	assert.Equal(t, "0", summary["opening_balance"])
	assert.Equal(t, "3300", summary["total_deposits"])
	assert.Equal(t, "500", summary["total_withdrawals"])
	assert.Equal(t, "15", summary["total_fees"])
	assert.Equal(t, "100", summary["total_expenses"])
	assert.Equal(t, "2685", summary["net_change"])
	assert.Equal(t, "2685", summary["closing_balance"])
	assert.Equal(t, float64(4), summary["transaction_count"])
	assert.Equal(t, float64(1), summary["expense_count"])

	months := summary["months"].([]interface{})
	require.Len(t, months, 3)

	jul := months[0].(map[string]interface{})
	assert.Equal(t, "0", jul["opening_balance"])
	assert.Equal(t, "1000", jul["net_change"])
	assert.Equal(t, "1000", jul["closing_balance"])

	aug := months[1].(map[string]interface{})
	assert.Equal(t, "1000", aug["opening_balance"])
	assert.Equal(t, "1385", aug["net_change"])
	assert.Equal(t, "2385", aug["closing_balance"])

	// September's opening replays the stored-balance rule (fees are revenue,
	// not netted), so it sits 15 above August's cash-flow closing.
	sep := months[2].(map[string]interface{})
	assert.Equal(t, "2400", sep["opening_balance"])
	assert.Equal(t, "300", sep["net_change"])
	assert.Equal(t, "2700", sep["closing_balance"])

	// No quarters breakdown below yearly.
	_, hasQuarters := summary["quarters"]
	assert.False(t, hasQuarters)
}

func TestIntegration_YearlySummaryBreakdowns(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Annual Wallet",
		map[string]any{"type": "fixed", "fixed_amount": "10"}, nil)

	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "1200", "date": "2026-03-10T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, code, "deposit: %v", body)

	code, body = app.request(t, http.MethodGet,
		"/api/v1/wallets/"+walletID+"/summary/yearly?at=2026-06-01T00:00:00Z", nil)
	require.Equal(t, http.StatusOK, code, "summary: %v", body)
	summary := data(t, body)

	months := summary["months"].([]interface{})
	assert.Len(t, months, 12)
	quarters := summary["quarters"].([]interface{})
	require.Len(t, quarters, 4)

	q1 := quarters[0].(map[string]interface{})
	assert.Equal(t, "1200", q1["total_deposits"])
	q2 := quarters[1].(map[string]interface{})
	assert.Equal(t, "1200", q2["opening_balance"])
}

func TestIntegration_ArchiveRejectsNewActivity(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Old Wallet",
		map[string]any{"type": "fixed"}, nil)

	code, body := app.request(t, http.MethodPost, "/api/v1/wallets/"+walletID+"/archive", nil)
	require.Equal(t, http.StatusOK, code, "archive: %v", body)

	code, body = app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "100",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VAL_004", body["error_code"])
}

func TestIntegration_ViewerCannotArchive(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Protected Wallet",
		map[string]any{"type": "fixed"}, nil)

	viewerApp := *app
	viewerToken, _, err := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", 24*time.Hour, "test-issuer").
		Generate("viewer-1", "viewer")
	require.NoError(t, err)
	viewerApp.adminToken = viewerToken

	code, _ := viewerApp.request(t, http.MethodPost, "/api/v1/wallets/"+walletID+"/archive", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestIntegration_SummaryCacheServesRepeatReads(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Cached Wallet",
		map[string]any{"type": "fixed"}, nil)

	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "100", "date": "2026-08-03T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, code, "deposit: %v", body)

	path := "/api/v1/wallets/" + walletID + "/summary/monthly?at=2026-08-15T00:00:00Z"
	code, body = app.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "100", data(t, body)["total_deposits"])

	// A write inside the TTL is not reflected until the cache expires.
	code, body = app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "deposit", "amount": "50", "date": "2026-08-04T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, code, "second deposit: %v", body)

	code, body = app.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "100", data(t, body)["total_deposits"])

	app.redis.FastForward(2 * time.Second)

	code, body = app.request(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "150", data(t, body)["total_deposits"])
}

func TestIntegration_ListTransactionsFilters(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	walletID := app.createWallet(t, "Busy Wallet",
		map[string]any{"type": "fixed"}, nil)

	for i := 0; i < 3; i++ {
		code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
			"wallet_id": walletID, "type": "deposit", "amount": fmt.Sprintf("%d", (i+1)*100),
		})
		require.Equal(t, http.StatusCreated, code, "deposit %d: %v", i, body)
	}
	code, body := app.request(t, http.MethodPost, "/api/v1/transactions", map[string]any{
		"wallet_id": walletID, "type": "withdrawal", "amount": "50",
	})
	require.Equal(t, http.StatusCreated, code, "withdrawal: %v", body)

	code, body = app.request(t, http.MethodGet,
		"/api/v1/transactions?wallet_id="+walletID+"&type=deposit", nil)
	require.Equal(t, http.StatusOK, code)
	list := data(t, body)
	assert.Equal(t, float64(3), list["total"])

	code, body = app.request(t, http.MethodGet,
		"/api/v1/transactions?wallet_id="+walletID+"&page_size=2", nil)
	require.Equal(t, http.StatusOK, code)
	list = data(t, body)
	assert.Equal(t, float64(4), list["total"])
	assert.Equal(t, float64(2), list["total_pages"])
	assert.Len(t, list["items"].([]interface{}), 2)
}

package handler

import (
	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	WalletSvc      ports.WalletService
	ExpenseSvc     ports.ExpenseService
	TransferSvc    ports.TransferService
	TreasurySvc    ports.TreasuryService
	SummarySvc     ports.SummaryService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// All API routes require a bearer token from the identity collaborator.
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", jwtAuth)

	transactionHandler := NewTransactionHandler(deps.LedgerSvc)
	transactions := v1.Group("/transactions")
	{
		transactions.POST("", rl("transactions"), transactionHandler.Create)
		transactions.GET("", rl("transactions"), transactionHandler.List)
		transactions.PUT("/:id", rl("transactions"), transactionHandler.Update)
		transactions.DELETE("/:id", rl("transactions"), transactionHandler.Delete)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	summaryHandler := NewSummaryHandler(deps.SummarySvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallets"), walletHandler.Create)
		wallets.GET("", rl("wallets"), walletHandler.List)
		wallets.GET("/:id", rl("wallets"), walletHandler.Get)
		wallets.POST("/:id/archive", rl("wallets"), middleware.RequireRole("admin"), walletHandler.Archive)
		wallets.GET("/:id/summary/:granularity", rl("summaries"), summaryHandler.Summarize)
	}

	expenseHandler := NewExpenseHandler(deps.ExpenseSvc)
	expenses := v1.Group("/expenses")
	{
		expenses.POST("", rl("expenses"), expenseHandler.Create)
		expenses.GET("", rl("expenses"), expenseHandler.List)
		expenses.DELETE("/:id", rl("expenses"), expenseHandler.Delete)
	}

	transferHandler := NewTransferHandler(deps.TransferSvc)
	transfers := v1.Group("/transfers")
	{
		transfers.POST("", rl("transfers"), transferHandler.Create)
		transfers.GET("", rl("transfers"), transferHandler.List)
	}

	treasuryHandler := NewTreasuryHandler(deps.TreasurySvc)
	treasury := v1.Group("/treasury")
	{
		treasury.GET("", rl("treasury"), treasuryHandler.Get)
		treasury.POST("/deposit", rl("treasury"), middleware.RequireRole("admin"), treasuryHandler.Deposit)
		treasury.POST("/withdraw", rl("treasury"), middleware.RequireRole("admin"), treasuryHandler.Withdraw)
	}

	return r
}

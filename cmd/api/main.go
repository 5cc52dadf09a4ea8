package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wallet-ledger/config"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	pgStorage "wallet-ledger/internal/adapter/storage/postgres"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"

	"github.com/shopspring/decimal"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Wallet Ledger")

	ctx := context.Background()

	// All calendar boundaries (limit windows, summary periods) use one zone.
	loc, err := time.LoadLocation(cfg.Ledger.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Ledger.Timezone).Msg("Invalid ledger timezone")
	}

	defaultCap, err := decimal.NewFromString(cfg.Ledger.DefaultMonthlyCap)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid default monthly cap")
	}

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	expenseRepo := pgStorage.NewExpenseRepo(pool)
	transferRepo := pgStorage.NewTransferRepo(pool)
	treasuryRepo := pgStorage.NewTreasuryRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// The treasury is a singleton row; make sure it exists before serving.
	if _, err := treasuryRepo.Ensure(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure cash treasury row")
	}

	// Initialize Redis stores
	summaryCache := redisStorage.NewSummaryCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	// Initialize business services
	ledgerSvc := service.NewLedgerService(txRepo, walletRepo, expenseRepo, transactor, defaultCap, loc, log)
	walletSvc := service.NewWalletService(walletRepo, log)
	expenseSvc := service.NewExpenseService(expenseRepo, txRepo, walletRepo, transactor, loc, log)
	transferSvc := service.NewTransferService(transferRepo, treasuryRepo, txRepo, expenseRepo, walletRepo, transactor, loc, log)
	treasurySvc := service.NewTreasuryService(treasuryRepo, transactor, log)
	summarySvc := service.NewSummaryService(txRepo, expenseRepo, walletRepo, summaryCache, cfg.Ledger.SummaryCacheTTL, loc, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		LedgerSvc:      ledgerSvc,
		WalletSvc:      walletSvc,
		ExpenseSvc:     expenseSvc,
		TransferSvc:    transferSvc,
		TreasurySvc:    treasurySvc,
		SummarySvc:     summarySvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

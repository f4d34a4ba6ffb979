package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/loopmarket/treasury/internal/adapter/external"
	httpAdapter "github.com/loopmarket/treasury/internal/adapter/http"
	"github.com/loopmarket/treasury/internal/adapter/http/handler"
	postgresRepo "github.com/loopmarket/treasury/internal/adapter/repository/postgres"
	redisRepo "github.com/loopmarket/treasury/internal/adapter/repository/redis"
	"github.com/loopmarket/treasury/internal/infrastructure/auth"
	"github.com/loopmarket/treasury/internal/infrastructure/config"
	"github.com/loopmarket/treasury/internal/infrastructure/eventpublisher"
	"github.com/loopmarket/treasury/internal/infrastructure/logger"
	"github.com/loopmarket/treasury/internal/infrastructure/logging"
	"github.com/loopmarket/treasury/internal/infrastructure/metrics"
	"github.com/loopmarket/treasury/internal/infrastructure/postgres"
	"github.com/loopmarket/treasury/internal/infrastructure/redis"
	"github.com/loopmarket/treasury/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	zl := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = zl

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	orderRepo := postgresRepo.NewOrderRepository(pool)
	loanRepo := postgresRepo.NewLoanRepository(pool)
	listingRepo := postgresRepo.NewListingRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	var outboxRepo usecase.OutboxRepository = postgresRepo.NewOutboxRepository(pool)
	if !cfg.OutboxEnabled {
		outboxRepo = postgresRepo.NewNullOutboxRepository()
	}
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	cache := redisRepo.NewCache(redisClient)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)

	creditBureau := external.NewStaticCreditBureau(
		decimal.RequireFromString(cfg.CreditMaxAmount),
		decimal.RequireFromString(cfg.CreditRate),
	)
	shippingQuoter := external.NewFlatShippingQuoter(
		decimal.RequireFromString(cfg.ShippingFlatFee),
	)

	ledger := usecase.NewLedger(accountRepo, entryRepo, idGen)
	partition := usecase.NewPartitionManager(ledger)

	accountUC := usecase.NewAccountUseCase(txManager, ledger, partition, accountRepo, outboxRepo, auditRepo, idGen, cache, m)
	orderUC := usecase.NewOrderUseCase(txManager, ledger, partition, orderRepo, listingRepo, outboxRepo, auditRepo, idGen, shippingQuoter, m, usecase.OrderPolicy{
		BusinessHoursStart: cfg.BusinessHoursStart,
		BusinessHoursEnd:   cfg.BusinessHoursEnd,
		MonthlySalesLimit:  cfg.MonthlySalesLimit,
	})
	loanUC := usecase.NewLoanUseCase(txManager, ledger, partition, loanRepo, outboxRepo, auditRepo, idGen, creditBureau, m)
	pointsUC := usecase.NewPointsUseCase(txManager, ledger, accountRepo, outboxRepo, auditRepo, idGen, m)
	consistencyUC := usecase.NewConsistencyUseCase(ledgerRepo, orderRepo, loanRepo, m)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	router := httpAdapter.NewRouter(runCtx, httpAdapter.RouterConfig{
		AccountHandler:     handler.NewAccountHandler(accountUC, pointsUC),
		OrderHandler:       handler.NewOrderHandler(orderUC),
		LoanHandler:        handler.NewLoanHandler(loanUC),
		ConsistencyHandler: handler.NewConsistencyHandler(consistencyUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		JWTManager:         jwtManager,
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		Logger:             zl,
		RateLimit:          cfg.RateLimitPerSecond,
		RateBurst:          cfg.RateLimitBurst,
	})

	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventpublisher.NewRedisPublisher(redisClient),
			Logger:     logging.New(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat).Logger,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
		go func() {
			if err := publisher.Start(runCtx); err != nil && runCtx.Err() == nil {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

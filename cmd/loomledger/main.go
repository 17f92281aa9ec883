package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/loomledger/loomledger/internal/accounting"
	"github.com/loomledger/loomledger/internal/accounting/gst"
	"github.com/loomledger/loomledger/internal/accounting/journals"
	"github.com/loomledger/loomledger/internal/accounting/ledgers"
	"github.com/loomledger/loomledger/internal/accounting/posting"
	"github.com/loomledger/loomledger/internal/app"
	"github.com/loomledger/loomledger/internal/balances"
	"github.com/loomledger/loomledger/internal/inventory"
	"github.com/loomledger/loomledger/internal/partners"
	"github.com/loomledger/loomledger/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	ledgerRepo := ledgers.NewRepository(dbpool)
	ledgerService := ledgers.NewService(ledgerRepo)
	journalRepo := journals.NewRepository(dbpool)
	journalService := journals.NewService(journalRepo)
	partnerRepo := partners.NewRepository(dbpool)
	costRepo := inventory.NewCostRepository(dbpool)
	rateProvider := gst.NewRateProvider(dbpool)

	postingService := posting.NewService(logger, ledgerService, journalService, partnerRepo, costRepo, rateProvider)

	balanceCache := balances.NewCache(redisClient, cfg.BalanceCacheTTL)
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	postingService.WithNotifier(balances.NewPostingNotifier(logger, balanceCache, jobClient))

	accountingHandler := accounting.NewHandler(logger, postingService, journalService, ledgerService, balanceCache)
	jobHandler := jobs.NewHandler(asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr}), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountingHandler: accountingHandler,
		JobHandler:        jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}
}

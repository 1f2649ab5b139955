package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"shopmart/internal/config"
	"shopmart/internal/db"
	"shopmart/internal/metrics"
	productrepo "shopmart/internal/repository/product"
	purchaserepo "shopmart/internal/repository/purchase"
	settlementrepo "shopmart/internal/repository/settlement"
	userrepo "shopmart/internal/repository/user"
	settlementsvc "shopmart/internal/service/settlement"
)

// Standalone settlement drainer for running the queue separately from the
// API process. The API binary also runs a worker; both are safe because task
// claims are row-scoped.
func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[settler] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	worker := settlementsvc.NewWorker(
		settlementrepo.NewPostgres(pool, logger),
		purchaserepo.NewPostgres(pool, logger),
		productrepo.NewPostgres(pool, logger),
		userrepo.NewPostgres(pool, logger),
		metrics.New(),
		logger,
		cfg.SettleInterval,
		cfg.SettleBatch,
		cfg.SettleMaxAttempts,
	)

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("worker stopped: %v", err)
	}
	logger.Printf("worker stopped")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shopmart/internal/config"
	"shopmart/internal/db"
	"shopmart/internal/events"
	"shopmart/internal/gateway/recurly"
	"shopmart/internal/httpserver"
	"shopmart/internal/metrics"
	orderrepo "shopmart/internal/repository/order"
	productrepo "shopmart/internal/repository/product"
	purchaserepo "shopmart/internal/repository/purchase"
	settlementrepo "shopmart/internal/repository/settlement"
	tokenrepo "shopmart/internal/repository/token"
	userrepo "shopmart/internal/repository/user"
	ordersvc "shopmart/internal/service/order"
	settlementsvc "shopmart/internal/service/settlement"
	usersvc "shopmart/internal/service/user"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(rootCtx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	purchaseRepo := purchaserepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	userRepo := userrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool)
	taskRepo := settlementrepo.NewPostgres(dbpool, logger)

	m := metrics.New()
	gateway := recurly.New(cfg.RecurlyAPIKey, cfg.RecurlyBaseURL, logger)

	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaBrokers != "" {
		k := events.NewKafka(cfg.KafkaBrokers, "order-events")
		defer k.Close()
		publisher = k
		logger.Printf("publishing order events to kafka brokers=%s", cfg.KafkaBrokers)
	}

	orderService := ordersvc.New(orderRepo, purchaseRepo, productRepo, userRepo, gateway, taskRepo, publisher, m, logger, cfg.ShippingFeeCents)
	userService := usersvc.New(userRepo, tokenRepo)
	worker := settlementsvc.NewWorker(taskRepo, purchaseRepo, productRepo, userRepo, m, logger, cfg.SettleInterval, cfg.SettleBatch, cfg.SettleMaxAttempts)

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Orders:  orderService,
		Users:   userService,
		Billing: gateway,
		Metrics: m,
	})

	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("shutdown with error: %v", err)
	}
	logger.Printf("server stopped")
}

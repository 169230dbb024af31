package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/clients/cache"
	"max.ks1230/budget-tracker/internal/clients/kafka"
	"max.ks1230/budget-tracker/internal/config"
	"max.ks1230/budget-tracker/internal/entity/ledger"
	apihttp "max.ks1230/budget-tracker/internal/http"
	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/budget"
	"max.ks1230/budget-tracker/internal/model/storage"
	"max.ks1230/budget-tracker/internal/tracing"
)

type changeNotifier interface {
	TransactionsChanged(ctx context.Context, change ledger.Change) error
}

func main() {
	defer logger.Sync()
	logger.Info("Server init - start")

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config", zap.Error(err))
	}

	tracer, err := tracing.Init(conf.Tracing(), "server")
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer tracer.Close()

	db, err := storage.New(conf.Database())
	if err != nil {
		logger.Fatal("failed to init storage", zap.Error(err))
	}
	defer db.Close()

	var (
		overview *cache.MemcacheClient
		notifier changeNotifier
	)
	if conf.Memcached().Enabled() {
		overview, err = cache.NewMemcache(conf.Memcached())
		if err != nil {
			logger.Fatal("failed to init memcached", zap.Error(err))
		}
		notifier = overview
	}
	if conf.Kafka().Enabled() {
		producer, err := kafka.NewProducer(conf.Kafka())
		if err != nil {
			logger.Fatal("failed to init kafka producer", zap.Error(err))
		}
		defer producer.Close()
		notifier = producer
	}

	var svc *budget.Service
	if overview != nil {
		svc = budget.NewService(conf.App(), db, notifier, overview)
	} else {
		svc = budget.NewService(conf.App(), db, notifier, nil)
	}

	server := apihttp.NewServer(conf.HTTP(), conf.App(), svc, db)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("Server init - end", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), conf.HTTP().ShutdownTimeout())
	defer shutdownCancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

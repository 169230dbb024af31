package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"max.ks1230/budget-tracker/internal/clients/cache"
	"max.ks1230/budget-tracker/internal/clients/kafka"
	"max.ks1230/budget-tracker/internal/clients/tg"
	"max.ks1230/budget-tracker/internal/config"
	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/logger"
	"max.ks1230/budget-tracker/internal/model/budget"
	"max.ks1230/budget-tracker/internal/model/messages"
	"max.ks1230/budget-tracker/internal/model/reports"
	"max.ks1230/budget-tracker/internal/model/storage"
	"max.ks1230/budget-tracker/internal/tracing"
)

type changeNotifier interface {
	TransactionsChanged(ctx context.Context, change ledger.Change) error
}

func main() {
	defer logger.Sync()
	logger.Info("Bot init - start")

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config", zap.Error(err))
	}

	tracer, err := tracing.Init(conf.Tracing(), "bot")
	if err != nil {
		logger.Fatal("failed to init tracing", zap.Error(err))
	}
	defer tracer.Close()

	client, err := tg.New(conf.Telegram())
	if err != nil {
		logger.Fatal("failed to init client", zap.Error(err))
	}

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

	msgService := messages.NewService(client, svc, reports.NewGenerator(conf.App(), svc))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	if addr := conf.Telegram().MetricsListen(); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metrics := &http.Server{Addr: addr, Handler: mux}

		group.Go(func() error {
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics listener")
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			return metrics.Close()
		})
	}
	group.Go(func() error {
		defer cancel()
		client.ListenUpdates(ctx, msgService)
		return nil
	})

	logger.Info("Bot init - end")
	if err := group.Wait(); err != nil {
		logger.Error("bot stopped with error", zap.Error(err))
	}
}

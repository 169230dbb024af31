package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/clients/cache"
	"max.ks1230/budget-tracker/internal/clients/kafka"
	"max.ks1230/budget-tracker/internal/config"
	"max.ks1230/budget-tracker/internal/logger"
)

func main() {
	defer logger.Sync()
	logger.Info("Invalidator init - start")

	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config", zap.Error(err))
	}
	if !conf.Kafka().Enabled() || !conf.Memcached().Enabled() {
		logger.Fatal("invalidator needs both kafka.brokers and memcached.hosts")
	}

	mc, err := cache.NewMemcache(conf.Memcached())
	if err != nil {
		logger.Fatal("failed to init memcached", zap.Error(err))
	}

	consumer, err := kafka.NewConsumer(conf.Kafka(), mc)
	if err != nil {
		logger.Fatal("failed to init kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	logger.Info("Invalidator init - end")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err = consumer.StartConsuming(ctx); err != nil {
		logger.Error("consuming stopped", zap.Error(err))
	}
}

package kafka

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/logger"
)

type producerConfig interface {
	Brokers() []string
	EventsTopic() string
}

// Producer publishes committed ledger changes. Messages are keyed by user so one
// user's events stay ordered within a partition.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewProducer(cfg producerConfig) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers(), newProducerConfig())
	if err != nil {
		return nil, errors.Wrap(err, "cannot create kafka producer")
	}
	return newProducer(producer, cfg.EventsTopic()), nil
}

func newProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Version = sarama.V2_5_0_0
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Return.Successes = true
	return config
}

func newProducer(producer sarama.SyncProducer, topic string) *Producer {
	return &Producer{producer: producer, topic: topic}
}

// TransactionsChanged publishes the change as a JSON ledger event.
func (p *Producer) TransactionsChanged(_ context.Context, change ledger.Change) error {
	value, err := json.Marshal(change)
	if err != nil {
		return errors.Wrap(err, "encode ledger event")
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(change.UserID),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return errors.Wrap(err, "publish ledger event")
	}

	logger.Debug("ledger event published",
		zap.String("userID", change.UserID),
		zap.String("kind", string(change.Kind)),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

func (p *Producer) Close() {
	err := p.producer.Close()
	if err != nil {
		logger.Error("failed to close producer", zap.Error(err))
	}
}

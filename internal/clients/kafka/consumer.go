package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/budget-tracker/internal/entity/ledger"
	"max.ks1230/budget-tracker/internal/logger"
)

type consumerConfig interface {
	producerConfig
	ConsumerGroup() string
}

type cacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string) error
}

// Consumer reads ledger events and drops the affected user's cached overview.
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	topic         string
	invalidator   cacheInvalidator
}

func NewConsumer(cfg consumerConfig, invalidator cacheInvalidator) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_5_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers(), cfg.ConsumerGroup(), config)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create kafka consumer group")
	}
	return &Consumer{
		consumerGroup: consumerGroup,
		topic:         cfg.EventsTopic(),
		invalidator:   invalidator,
	}, nil
}

func (c *Consumer) StartConsuming(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			err := c.consumerGroup.Consume(ctx, []string{c.topic}, c)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("consume from %s", c.topic))
			}
		}
	}
}

func (c *Consumer) Close() {
	if err := c.consumerGroup.Close(); err != nil {
		logger.Error("failed to close consumer group", zap.Error(err))
	}
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - setup")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - cleanup")
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		c.handle(session.Context(), message)
		session.MarkMessage(message, "")
	}
	return nil
}

// handle never fails the claim: a broken event is logged and skipped.
func (c *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) {
	var change ledger.Change
	if err := json.Unmarshal(message.Value, &change); err != nil {
		logger.Error("cannot unmarshal kafka message", zap.Error(err))
		return
	}
	if change.UserID == "" {
		logger.Warn("ledger event without user", zap.ByteString("key", message.Key))
		return
	}

	logger.Info(
		"received ledger event",
		zap.ByteString("key", message.Key),
		zap.String("userID", change.UserID),
		zap.String("kind", string(change.Kind)),
		zap.String("transactionID", change.TransactionID.String()),
	)
	if err := c.invalidator.InvalidateUser(ctx, change.UserID); err != nil {
		logger.Error("failed to invalidate cache", zap.String("userID", change.UserID), zap.Error(err))
	}
}

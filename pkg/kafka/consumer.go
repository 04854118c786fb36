package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	maxFetchBytes = 10 << 20

	// handlerAttempts bounds redelivery of one message within this process.
	handlerAttempts = 3
	retryBackoff    = 200 * time.Millisecond
)

// Handler processes one consumed message.
type Handler func(ctx context.Context, msg Message) error

// Consumer drives a group reader. Offsets are committed once the handler
// succeeds or its attempts are exhausted, so a poison message cannot stall a
// partition.
type Consumer struct {
	reader  *kafkago.Reader
	handler Handler
	logger  *slog.Logger
}

// NewConsumer joins cfg.ConsumerGroup on topic.
func NewConsumer(cfg Config, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if cfg.ConsumerGroup == "" {
		return nil, errors.New("kafka: consumer group is required")
	}
	dialer, err := cfg.dialer()
	if err != nil {
		return nil, err
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.ConsumerGroup,
		Topic:       topic,
		Dialer:      dialer,
		MaxBytes:    maxFetchBytes,
		StartOffset: kafkago.FirstOffset,
	})
	return &Consumer{
		reader:  reader,
		handler: handler,
		logger:  logger.With("topic", topic, "group", cfg.ConsumerGroup),
	}, nil
}

// Start blocks until ctx ends or the reader fails.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		m, err := c.reader.FetchMessage(ctx)
		switch {
		case ctx.Err() != nil:
			c.logger.Info("consumer stopped")
			return nil
		case err != nil:
			return fmt.Errorf("kafka: fetch: %w", err)
		}

		c.dispatch(ctx, m)
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Warn("commit failed", "partition", m.Partition, "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, m kafkago.Message) {
	msg := toMessage(m)
	for attempt := 1; ; attempt++ {
		err := c.handler(ctx, msg)
		if err == nil {
			return
		}
		if attempt == handlerAttempts || ctx.Err() != nil {
			c.logger.Error("dropping message", "partition", m.Partition, "offset", m.Offset, "attempts", attempt, "error", err)
			return
		}
		select {
		case <-time.After(time.Duration(attempt) * retryBackoff):
		case <-ctx.Done():
		}
	}
}

// Close leaves the group.
func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return fmt.Errorf("kafka: close reader: %w", err)
	}
	return nil
}

func toMessage(m kafkago.Message) Message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return Message{Key: m.Key, Value: m.Value, Headers: headers}
}

package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/liamcoop/spanecho/internal/config"
	"github.com/liamcoop/spanecho/internal/envelope"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer renders ExportTraceServiceRequest messages read from a topic.
type Consumer struct {
	reader MessageReader
	config config.KafkaConfig
	walker *envelope.Walker
	logger *slog.Logger
}

func NewConsumer(cfg config.KafkaConfig, walker *envelope.Walker, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Logger:      loggerFunc(logger, slog.LevelDebug),
		ErrorLogger: loggerFunc(logger, slog.LevelError),
	})

	return newConsumer(r, cfg, walker, logger)
}

func newConsumer(r MessageReader, cfg config.KafkaConfig, walker *envelope.Walker, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader: r,
		config: cfg,
		walker: walker,
		logger: logger,
	}
}

// Start reads until ctx is cancelled. Messages that fail to decode are logged
// and skipped.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.reader.Close()

	c.logger.Info("Starting kafka consumer", slog.String("topic", c.config.Topic))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer context cancelled, shutting down")
			return ctx.Err()

		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					continue
				}
				c.logger.Error("Error reading message", slog.String("error", err.Error()))
				continue
			}

			if err := c.processMessage(msg); err != nil {
				c.logger.Warn("Error processing message",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

func (c *Consumer) processMessage(message kafka.Message) error {
	n, err := c.walker.WalkBytes(message.Value)
	if err != nil {
		return fmt.Errorf("failed to render kafka message: %w", err)
	}

	c.logger.Debug("Rendered kafka message", slog.Int64("offset", message.Offset), slog.Int("spans", n))
	return nil
}

func loggerFunc(logger *slog.Logger, level slog.Level) kafka.LoggerFunc {
	return func(msg string, args ...interface{}) {
		logger.Log(context.Background(), level, fmt.Sprintf(msg, args...), slog.String("component", "kafka"))
	}
}

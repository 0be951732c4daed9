package redpanda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ConsumerConfig holds configuration for the Redpanda consumer
type ConsumerConfig struct {
	// Brokers is a list of broker addresses
	Brokers []string
	// GroupID is the consumer group identifier
	GroupID string
	// Topics is the list of topics to consume
	Topics []string
	// MaxPollRecords limits records fetched per poll
	MaxPollRecords int
	// SessionTimeout for group membership
	SessionTimeout time.Duration
	// StartOffset determines where new groups begin ("earliest" or "latest")
	StartOffset string
}

// DefaultConsumerConfig returns sane defaults for the notification pipeline.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers:        []string{"localhost:9092"},
		GroupID:        "care-notifications",
		Topics:         []string{TopicAlertEvents, TopicCareEvents},
		MaxPollRecords: 100,
		SessionTimeout: 30 * time.Second,
		StartOffset:    "earliest",
	}
}

// ConsumedMessage wraps a record with commit metadata.
type ConsumedMessage struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       string
	Value     []byte
	Timestamp time.Time
	Headers   map[string]string
}

// MessageHandler processes a consumed message. Returning an error leaves the
// offset uncommitted so the message is redelivered.
type MessageHandler func(ctx context.Context, msg ConsumedMessage) error

// Consumer reads care events from Redpanda with manual offset commits.
type Consumer struct {
	client  *kgo.Client
	config  ConsumerConfig
	handler MessageHandler
	logger  *zap.Logger
	tracer  trace.Tracer

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewConsumer creates a consumer for the given topics
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if handler == nil {
		return nil, fmt.Errorf("message handler is required")
	}

	offset := kgo.NewOffset().AtStart()
	if cfg.StartOffset == "latest" {
		offset = kgo.NewOffset().AtEnd()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConsumeResetOffset(offset),
		kgo.SessionTimeout(cfg.SessionTimeout),
		kgo.DisableAutoCommit(),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Consumer{
		client:  client,
		config:  cfg,
		handler: handler,
		logger:  logger,
		tracer:  otel.Tracer("redpanda-consumer"),
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins the consume loop in a background goroutine
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("consumer started",
		zap.String("group", c.config.GroupID),
		zap.Strings("topics", c.config.Topics))
}

// Stop shuts down the consumer and waits for in-flight processing
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	c.wg.Wait()
	c.client.Close()
	c.logger.Info("consumer stopped")
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		fetches := c.client.PollRecords(ctx, c.config.MaxPollRecords)
		if fetches.IsClientClosed() {
			return
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("fetch error",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Error(err))
		})

		var processed []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			if err := c.processRecord(ctx, record); err != nil {
				c.logger.Error("failed to process record",
					zap.String("topic", record.Topic),
					zap.Int64("offset", record.Offset),
					zap.Error(err))
				return
			}
			processed = append(processed, record)
		})

		if len(processed) > 0 {
			if err := c.client.CommitRecords(ctx, processed...); err != nil {
				c.logger.Error("failed to commit offsets", zap.Error(err))
			}
		}
	}
}

func (c *Consumer) processRecord(ctx context.Context, record *kgo.Record) error {
	ctx, span := c.tracer.Start(ctx, "consume_message",
		trace.WithAttributes(
			attribute.String("topic", record.Topic),
			attribute.Int64("offset", record.Offset),
		))
	defer span.End()

	headers := make(map[string]string, len(record.Headers))
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}

	msg := ConsumedMessage{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Key:       string(record.Key),
		Value:     record.Value,
		Timestamp: record.Timestamp,
		Headers:   headers,
	}

	if err := c.handler(ctx, msg); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"travelhub/pkg/logger"
)

// Producer writes JSON events to a single topic
type Producer struct {
	writer *kafka.Writer
}

// NewProducer creates a producer for topic
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer}
}

// Publish implements events.Publisher. The routing key becomes a header and
// messages are keyed by aggregate id when the event exposes one.
func (p *Producer) Publish(ctx context.Context, routingKey string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	key := routingKey
	if k, ok := message.(interface{ PartitionKey() string }); ok {
		key = k.PartitionKey()
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(routingKey)},
		},
	})
}

// Close flushes pending writes
func (p *Producer) Close() error {
	return p.writer.Close()
}

// MessageHandler handles one message; eventType comes from the event_type header
type MessageHandler func(ctx context.Context, eventType string, body []byte) error

// Consumer reads one topic as part of a consumer group
type Consumer struct {
	reader     *kafka.Reader
	eventTypes map[string]bool
	log        *logger.Logger
}

// NewConsumer creates a group reader. Only messages whose event type is in
// eventTypes reach the handler; the rest are committed and skipped.
func NewConsumer(brokers []string, topic, groupID string, eventTypes []string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	wanted := make(map[string]bool, len(eventTypes))
	for _, t := range eventTypes {
		wanted[t] = true
	}
	return &Consumer{reader: reader, eventTypes: wanted, log: log}
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

// Consume starts a goroutine delivering messages to handler until ctx is done.
// A failed message is logged and committed so it cannot block the partition.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	go func() {
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Error("failed to fetch message", zap.Error(err))
				continue
			}

			if t := eventType(msg); c.eventTypes[t] {
				if err := handler(ctx, t, msg.Value); err != nil {
					c.log.WithContext(ctx).Error("failed to handle message",
						zap.Error(err),
						zap.String("topic", msg.Topic),
						zap.String("event_type", t),
					)
				}
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
				c.log.Warn("failed to commit message", zap.Error(err))
			}
		}
	}()

	c.log.Info("kafka consumer started", zap.String("topic", c.reader.Config().Topic))
	return nil
}

// Close stops the reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

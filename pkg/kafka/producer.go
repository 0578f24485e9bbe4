package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/imobsites/imobsites-panel/pkg/config"
	"github.com/imobsites/imobsites-panel/pkg/logger"
)

// Event is a payload that knows its partition key
type Event interface {
	Key() string
}

// Publisher publishes domain events
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close()
}

// Producer is a franz-go backed Publisher
type Producer struct {
	client *kgo.Client
}

// NewProducer creates a producer for the configured brokers
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Producer{client: client}, nil
}

// Publish encodes event as JSON and produces it synchronously
func (p *Producer) Publish(ctx context.Context, topic string, event Event) error {
	record, err := NewRecord(topic, event)
	if err != nil {
		return err
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() {
	p.client.Close()
}

// NewRecord builds the Kafka record for event
func NewRecord(topic string, event Event) (*kgo.Record, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(event.Key()),
		Value: value,
	}, nil
}

// NoOpPublisher drops events, used when Kafka is disabled
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(ctx context.Context, topic string, event Event) error {
	logger.Get().WithContext(ctx).Debug("kafka disabled, event dropped",
		zap.String("topic", topic),
		zap.String("key", event.Key()),
	)
	return nil
}

func (NoOpPublisher) Close() {}

// New returns a Producer when Kafka is enabled and a NoOpPublisher otherwise
func New(cfg config.KafkaConfig) (Publisher, error) {
	if !cfg.Enabled {
		return NoOpPublisher{}, nil
	}
	return NewProducer(cfg)
}

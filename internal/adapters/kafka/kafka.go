package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/meli/ecommerce-orders-api/internal/adapters/config"
	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/logger"
)

const HeaderEventName = "event-name"

// Producer publishes events to the topic <entity><TopicSuffix>, keyed by
// entity id so events of one entity keep their order within a partition.
type Producer struct {
	mu          sync.Mutex
	producer    sarama.SyncProducer
	client      sarama.Client
	topicSuffix string
	closed      bool
}

func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Version = sarama.V2_1_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = cfg.MaxRetries
	saramaConfig.Producer.Retry.Backoff = cfg.RetryDelay
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	client, err := sarama.NewClient(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newProducer(producer, client, cfg.TopicSuffix), nil
}

func newProducer(producer sarama.SyncProducer, client sarama.Client, topicSuffix string) *Producer {
	if topicSuffix == "" {
		topicSuffix = ".events"
	}
	return &Producer{
		producer:    producer,
		client:      client,
		topicSuffix: topicSuffix,
	}
}

func (p *Producer) topic(entityName string) string {
	return entityName + p.topicSuffix
}

func (p *Producer) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.PublishRaw(ctx, event.GetName(), event.GetEntityName(), event.GetEntityID().String(), body)
}

func (p *Producer) PublishRaw(ctx context.Context, eventName, entityName, entityID string, data []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic(entityName),
		Key:   sarama.StringEncoder(entityID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderEventName), Value: []byte(eventName)},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		logger.Error(ctx, "kafka: failed to send message", err, map[string]any{
			"topic":      msg.Topic,
			"event_name": eventName,
			"entity_id":  entityID,
		})
		return fmt.Errorf("failed to send message: %w", err)
	}

	logger.Debug(ctx, "kafka: message sent", map[string]any{
		"topic":     msg.Topic,
		"key":       entityID,
		"partition": partition,
		"offset":    offset,
	})
	return nil
}

func (p *Producer) HealthCheck() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("producer is closed")
	}
	if p.client != nil {
		if p.client.Closed() {
			return errors.New("kafka client is closed")
		}
		if len(p.client.Brokers()) == 0 {
			return errors.New("no kafka brokers available")
		}
	}
	return nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if err := p.producer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing producer: %w", err))
	}
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing client: %w", err))
		}
	}
	return errors.Join(errs...)
}

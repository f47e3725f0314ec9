package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/meli/ecommerce-orders-api/internal/adapters/config"
	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/logger"
	"github.com/meli/ecommerce-orders-api/internal/core/port"
)

var (
	ErrPublisherClosed = errors.New("rabbitmq publisher is closed")
	ErrNotConfirmed    = errors.New("rabbitmq broker rejected the message")
)

var _ port.BrokerPort = (*Publisher)(nil)

// ExchangeName is the exchange events of entityName are routed through.
func ExchangeName(entityName string) string {
	return "exchange." + entityName
}

// Publisher sends outbox events to exchange.<entity> with the event name as
// routing key. Lost channels and connections are re-established on the next
// publish.
type Publisher struct {
	cfg config.RabbitMQConfig

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

func NewPublisher(cfg config.RabbitMQConfig) (*Publisher, error) {
	p := &Publisher{cfg: cfg}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.dial(); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return p, nil
}

// dial opens a connection and a channel on it. Callers hold p.mu.
func (p *Publisher) dial() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := p.openChannel(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}

	p.conn = conn
	p.channel = ch
	go p.watch(conn, conn.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

// openChannel declares the configured exchanges and puts the channel in
// confirm mode when confirms are enabled.
func (p *Publisher) openChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, ex := range p.cfg.ExchangeConfigs {
		if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDelete, false, false, nil); err != nil {
			return nil, fmt.Errorf("declare exchange %s: %w", ex.Name, err)
		}
	}

	if p.cfg.ConfirmTimeout > 0 {
		if err := ch.Confirm(false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("enable confirms: %w", err)
		}
	}
	return ch, nil
}

// ensureChannel replaces a channel closed by a broker exception, dialing
// again when the connection itself is gone. Callers hold p.mu.
func (p *Publisher) ensureChannel() error {
	if p.channel != nil && !p.channel.IsClosed() {
		return nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		return p.dial()
	}

	ch, err := p.openChannel(p.conn)
	if err != nil {
		return err
	}
	p.channel = ch
	return nil
}

// watch drops the cached channel once conn goes away so that the next
// publish dials again.
func (p *Publisher) watch(conn *amqp.Connection, closed <-chan *amqp.Error) {
	amqpErr, ok := <-closed
	if ok && amqpErr != nil {
		logger.Warn(context.Background(), "rabbitmq: connection closed", map[string]any{
			"code":   amqpErr.Code,
			"reason": amqpErr.Reason,
		})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == conn {
		p.conn = nil
		p.channel = nil
	}
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.GetName(), err)
	}
	return p.PublishRaw(ctx, event.GetName(), event.GetEntityName(), event.GetEntityID().String(), body)
}

// PublishRaw retries up to MaxRetries times, waiting RetryDelay between
// attempts. entityID travels as the correlation id.
func (p *Publisher) PublishRaw(ctx context.Context, eventName, entityName, entityID string, data []byte) error {
	msg := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		Type:          eventName,
		CorrelationId: entityID,
		Body:          data,
	}
	exchange := ExchangeName(entityName)

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.cfg.RetryDelay):
			}
		}

		lastErr = p.publishOnce(ctx, exchange, eventName, msg)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrPublisherClosed) {
			return lastErr
		}
		logger.Warn(ctx, "rabbitmq: publish attempt failed", map[string]any{
			"attempt":    attempt,
			"exchange":   exchange,
			"event_name": eventName,
			"error":      lastErr.Error(),
		})
	}

	return fmt.Errorf("failed to publish %s after %d attempts: %w", eventName, p.cfg.MaxRetries+1, lastErr)
}

func (p *Publisher) publishOnce(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPublisherClosed
	}
	if err := p.ensureChannel(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("reconnect: %w", err)
	}
	ch := p.channel
	p.mu.Unlock()

	if p.cfg.ConfirmTimeout <= 0 {
		return ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg)
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, msg)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.ConfirmTimeout)
	defer cancel()
	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("waiting for confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

func (p *Publisher) HealthCheck() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return ErrPublisherClosed
	case p.conn == nil || p.conn.IsClosed():
		return errors.New("rabbitmq connection is down")
	case p.channel == nil || p.channel.IsClosed():
		return errors.New("rabbitmq channel is down")
	}
	return nil
}

// Close is idempotent. Closing the connection also closes its channel.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	conn := p.conn
	p.conn = nil
	p.channel = nil
	if conn == nil || conn.IsClosed() {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("closing RabbitMQ connection: %w", err)
	}
	return nil
}

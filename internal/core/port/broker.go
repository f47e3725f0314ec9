package port

import (
	"context"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

type BrokerPort interface {
	Publish(ctx context.Context, event domain.Event) error
	// PublishRaw sends an already serialized event. entityID is used as the
	// partition or correlation key by brokers that support one.
	PublishRaw(ctx context.Context, eventName, entityName, entityID string, data []byte) error
	HealthCheck() error
	Close() error
}

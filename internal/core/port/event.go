package port

import (
	"context"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
)

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

// EventStorePort records domain events so they can be relayed after the
// surrounding transaction commits.
type EventStorePort interface {
	Append(ctx context.Context, event domain.Event) error
}

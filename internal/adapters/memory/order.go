// Package memory keeps orders and outbox entries in process memory. It is
// meant for local development and tests; nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/port"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[domain.ID]domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[domain.ID]domain.Order)}
}

func (r *OrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return serviceerrors.NewConflictError("order already exists")
	}
	r.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, id domain.ID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, serviceerrors.NewNotFoundError("order not found")
	}
	found := cloneOrder(order)
	return &found, nil
}

// ListActive returns active orders, newest first.
func (r *OrderRepository) ListActive(_ context.Context) ([]*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if !order.IsActive() {
			continue
		}
		o := cloneOrder(order)
		result = append(result, &o)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

func (r *OrderRepository) SoftDelete(_ context.Context, id domain.ID, deletedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok || order.SoftDelete(deletedAt) != nil {
		return serviceerrors.NewNotFoundError("order not found")
	}
	r.orders[id] = order
	return nil
}

// cloneOrder detaches the items slice and deleted timestamp so callers cannot
// mutate stored state.
func cloneOrder(order domain.Order) domain.Order {
	order.Items = append(make([]domain.OrderLineItem, 0, len(order.Items)), order.Items...)
	if order.DeletedAt != nil {
		deletedAt := *order.DeletedAt
		order.DeletedAt = &deletedAt
	}
	return order
}

var _ port.OrderPort = (*OrderRepository)(nil)

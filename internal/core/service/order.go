package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/dto"
	"github.com/meli/ecommerce-orders-api/internal/core/logger"
	"github.com/meli/ecommerce-orders-api/internal/core/port"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
)

const defaultOrderCacheTTL = 15 * time.Minute

type OrderService struct {
	orderRepository port.OrderPort
	eventStore      port.EventStorePort
	orderCache      port.CachePort[domain.Order]
	idempotency     *IdempotencyService[domain.Order]
	txManager       port.TransactionManager
	cacheTTL        time.Duration
	now             func() time.Time
}

func NewOrderService(
	orderRepository port.OrderPort,
	eventStore port.EventStorePort,
	orderCache port.CachePort[domain.Order],
	idempotency *IdempotencyService[domain.Order],
	txManager port.TransactionManager,
	cacheTTL time.Duration,
) *OrderService {
	if cacheTTL <= 0 {
		cacheTTL = defaultOrderCacheTTL
	}
	return &OrderService{
		orderRepository: orderRepository,
		eventStore:      eventStore,
		orderCache:      orderCache,
		idempotency:     idempotency,
		txManager:       txManager,
		cacheTTL:        cacheTTL,
		now:             func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *OrderService) getCacheKey(orderID domain.ID) string {
	return fmt.Sprintf("order:%s", orderID)
}

func (s *OrderService) cacheOrder(ctx context.Context, order *domain.Order) {
	if err := s.orderCache.Set(ctx, s.getCacheKey(order.ID), order, s.cacheTTL); err != nil {
		logger.Error(ctx, "cache: set order failed", err, map[string]any{
			"order_id": order.ID,
		})
	}
}

// fillCache never overwrites an existing entry such as a delete tombstone.
func (s *OrderService) fillCache(ctx context.Context, order *domain.Order) {
	if _, err := s.orderCache.SetNX(ctx, s.getCacheKey(order.ID), order, s.cacheTTL); err != nil {
		logger.Error(ctx, "cache: fill order failed", err, map[string]any{
			"order_id": order.ID,
		})
	}
}

// CreateOrder validates the request and persists a new active order together
// with its order.created event. A non-empty idempotencyKey makes retries safe.
func (s *OrderService) CreateOrder(ctx context.Context, idempotencyKey string, request *dto.CreateOrderRequest) (*domain.Order, error) {
	if request == nil {
		return nil, serviceerrors.NewInvalidRequestError("request body is required")
	}
	if idempotencyKey == "" || s.idempotency == nil {
		return s.processOrder(ctx, request)
	}

	return s.idempotency.Do(ctx, idempotencyKey, request, func(ctx context.Context) (*domain.Order, error) {
		return s.processOrder(ctx, request)
	})
}

func (s *OrderService) processOrder(ctx context.Context, request *dto.CreateOrderRequest) (*domain.Order, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	items := make([]domain.OrderLineItem, len(request.Items))
	for i, item := range request.Items {
		items[i] = *domain.NewOrderLineItem(item.ProductID, strings.TrimSpace(item.ProductName), item.Quantity, item.PricePerUnit)
	}
	order := domain.NewOrder(request.CreatedBy, items)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orderRepository.Create(txCtx, order); err != nil {
			return err
		}
		return s.eventStore.Append(txCtx, domain.NewOrderCreatedEvent(order))
	})
	if err != nil {
		logger.Error(ctx, "transaction: create order failed", err, map[string]any{
			"order_id": order.ID,
		})
		return nil, err
	}

	s.cacheOrder(ctx, order)

	logger.Info(ctx, "Order created successfully", map[string]any{
		"order_id":     order.ID,
		"created_by":   order.CreatedBy,
		"items":        len(order.Items),
		"total_amount": order.TotalAmount.String(),
	})
	return order, nil
}

// ListActiveOrders never returns a nil slice.
func (s *OrderService) ListActiveOrders(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orderRepository.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

// GetOrderByID reports soft deleted orders as not found.
func (s *OrderService) GetOrderByID(ctx context.Context, orderID domain.ID) (*domain.Order, error) {
	if !domain.ValidateID(string(orderID)) {
		return nil, serviceerrors.NewInvalidRequestError("invalid order ID")
	}

	cached, err := s.orderCache.Get(ctx, s.getCacheKey(orderID))
	if err != nil {
		logger.Error(ctx, "cache: get order failed", err, map[string]any{
			"order_id": orderID,
		})
	}
	if cached != nil {
		logger.Debug(ctx, "order found in cache", map[string]any{
			"order_id": orderID,
			"status":   cached.Status,
		})
		if !cached.IsActive() {
			return nil, serviceerrors.NewNotFoundError("order not found")
		}
		return cached, nil
	}

	order, err := s.orderRepository.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.IsActive() {
		return nil, serviceerrors.NewNotFoundError("order not found")
	}

	s.fillCache(ctx, order)
	return order, nil
}

// SoftDeleteOrder marks the order deleted and records an order.deleted event.
// The cache keeps a deleted tombstone until the entry expires.
// Missing and already deleted orders both fail with a not found error.
func (s *OrderService) SoftDeleteOrder(ctx context.Context, orderID domain.ID) error {
	if !domain.ValidateID(string(orderID)) {
		return serviceerrors.NewInvalidRequestError("invalid order ID")
	}

	deletedAt := s.now()
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.orderRepository.SoftDelete(txCtx, orderID, deletedAt); err != nil {
			return err
		}
		return s.eventStore.Append(txCtx, domain.NewOrderDeletedEvent(orderID, deletedAt))
	})
	if err != nil {
		if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
			logger.Error(ctx, "transaction: soft delete order failed", err, map[string]any{
				"order_id": orderID,
			})
		}
		return err
	}

	s.cacheOrder(ctx, &domain.Order{
		ID:        orderID,
		Status:    domain.OrderStatusDeleted,
		UpdatedAt: deletedAt,
		DeletedAt: &deletedAt,
	})

	logger.Info(ctx, "Order soft deleted", map[string]any{
		"order_id":   orderID,
		"deleted_at": deletedAt,
	})
	return nil
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
	"go.uber.org/mock/gomock"
)

// mapCache is a CachePort with real SetNX semantics.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]domain.Order
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]domain.Order{}}
}

func (c *mapCache) Get(_ context.Context, key string) (*domain.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	order, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (c *mapCache) Set(_ context.Context, key string, value *domain.Order, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *value
	return nil
}

func (c *mapCache) SetNX(_ context.Context, key string, value *domain.Order, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		return false, nil
	}
	c.entries[key] = *value
	return true, nil
}

func (c *mapCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func TestOrderService_DeleteDuringCacheFill(t *testing.T) {
	_, m := setupOrderService(t)
	cache := newMapCache()
	svc := NewOrderService(m.orderRepo, m.eventStore, cache, nil, m.txManager, time.Minute)

	active := &domain.Order{ID: testOrderID, Status: domain.OrderStatusActive}
	read := make(chan struct{})
	release := make(chan struct{})

	m.orderRepo.EXPECT().
		GetByID(gomock.Any(), testOrderID).
		DoAndReturn(func(context.Context, domain.ID) (*domain.Order, error) {
			close(read)
			<-release
			return active, nil
		})
	m.runInTransaction()
	m.orderRepo.EXPECT().SoftDelete(gomock.Any(), testOrderID, gomock.Any()).Return(nil)
	m.eventStore.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	type result struct {
		order *domain.Order
		err   error
	}
	done := make(chan result, 1)
	go func() {
		order, err := svc.GetOrderByID(context.Background(), testOrderID)
		done <- result{order, err}
	}()

	<-read
	if err := svc.SoftDeleteOrder(context.Background(), testOrderID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	close(release)

	first := <-done
	if first.err != nil {
		t.Fatalf("read started before the delete should succeed, got %v", first.err)
	}

	_, err := svc.GetOrderByID(context.Background(), testOrderID)
	if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
		t.Fatalf("expected KindNotFound after delete, got %v", err)
	}

	cached, _ := cache.Get(context.Background(), "order:"+string(testOrderID))
	if cached == nil || cached.IsActive() {
		t.Fatalf("expected deleted tombstone in cache, got %+v", cached)
	}
}

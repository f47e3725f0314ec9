package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meli/ecommerce-orders-api/internal/adapters/outbox"
	"github.com/meli/ecommerce-orders-api/internal/adapters/postgres"
	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
)

func newTestOrder() *domain.Order {
	return domain.NewOrder(domain.NewID(), []domain.OrderLineItem{
		*domain.NewOrderLineItem(domain.NewID(), "Product A", 2, domain.MustAmount("10.00")),
		*domain.NewOrderLineItem(domain.NewID(), "Product B", 1, domain.MustAmount("20.55")),
	})
}

func TestMigrate_IsIdempotent(t *testing.T) {
	require.NoError(t, postgres.Migrate(context.Background(), testPool))
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := postgres.NewOrderRepository(testPool)
	ctx := context.Background()
	order := newTestOrder()

	require.NoError(t, repo.Create(ctx, order))

	found, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	assert.Equal(t, order.CreatedBy, found.CreatedBy)
	assert.Equal(t, domain.OrderStatusActive, found.Status)
	assert.True(t, found.TotalAmount.Equal(domain.MustAmount("40.55")))
	assert.True(t, found.CreatedAt.Equal(order.CreatedAt))
	require.Len(t, found.Items, 2)
	assert.Equal(t, order.Items[0].ID, found.Items[0].ID)
	assert.True(t, found.Items[1].PricePerUnit.Equal(domain.MustAmount("20.55")))
	assert.Nil(t, found.DeletedAt)
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo := postgres.NewOrderRepository(testPool)
	ctx := context.Background()
	order := newTestOrder()

	require.NoError(t, repo.Create(ctx, order))
	err := repo.Create(ctx, order)
	assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindConflict), "got %v", err)
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	repo := postgres.NewOrderRepository(testPool)

	_, err := repo.GetByID(context.Background(), domain.NewID())
	assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound), "got %v", err)
}

func TestOrderRepository_SoftDeleteAndListActive(t *testing.T) {
	repo := postgres.NewOrderRepository(testPool)
	ctx := context.Background()

	kept := newTestOrder()
	require.NoError(t, repo.Create(ctx, kept))
	removed := newTestOrder()
	require.NoError(t, repo.Create(ctx, removed))

	deletedAt := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.SoftDelete(ctx, removed.ID, deletedAt))

	err := repo.SoftDelete(ctx, removed.ID, deletedAt)
	assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound), "second delete: got %v", err)

	found, err := repo.GetByID(ctx, removed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDeleted, found.Status)
	require.NotNil(t, found.DeletedAt)
	assert.True(t, found.DeletedAt.Equal(deletedAt))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	ids := make(map[domain.ID]bool)
	for i, o := range active {
		ids[o.ID] = true
		assert.Equal(t, domain.OrderStatusActive, o.Status)
		if i > 0 {
			assert.False(t, o.CreatedAt.After(active[i-1].CreatedAt), "expected newest first")
		}
	}
	assert.True(t, ids[kept.ID])
	assert.False(t, ids[removed.ID])
}

func TestTransactionManager_RollsBackOrderAndOutbox(t *testing.T) {
	repo := postgres.NewOrderRepository(testPool)
	outboxRepo := postgres.NewOutboxRepository(testPool)
	eventStore := outbox.NewEventStore(outboxRepo)
	txManager := postgres.NewTransactionManager(testPool)
	ctx := context.Background()
	order := newTestOrder()

	forced := errors.New("forced failure")
	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, order); err != nil {
			return err
		}
		if err := eventStore.Append(txCtx, domain.NewOrderCreatedEvent(order)); err != nil {
			return err
		}
		return forced
	})
	require.ErrorIs(t, err, forced)

	_, err = repo.GetByID(ctx, order.ID)
	assert.True(t, serviceerrors.IsOfKind(err, serviceerrors.KindNotFound), "got %v", err)

	entries, err := outboxRepo.FetchPending(ctx, 1000)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, order.ID.String(), e.EntityID)
	}
}

func TestOutboxRepository_InsertFetchDelete(t *testing.T) {
	outboxRepo := postgres.NewOutboxRepository(testPool)
	eventStore := outbox.NewEventStore(outboxRepo)
	ctx := context.Background()
	orderID := domain.NewID()

	require.NoError(t, eventStore.Append(ctx, domain.NewOrderDeletedEvent(orderID, time.Now().UTC())))

	entries, err := outboxRepo.FetchPending(ctx, 1000)
	require.NoError(t, err)

	var found *outbox.Entry
	for i := range entries {
		if entries[i].EntityID == orderID.String() {
			found = &entries[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "order.deleted", found.EventName)
	assert.Contains(t, string(found.EventData), orderID.String())

	require.NoError(t, outboxRepo.Delete(ctx, found.ID))

	entries, err = outboxRepo.FetchPending(ctx, 1000)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, found.ID, e.ID)
	}
}

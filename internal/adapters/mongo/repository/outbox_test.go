package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meli/ecommerce-orders-api/internal/adapters/mongo/repository"
	"github.com/meli/ecommerce-orders-api/internal/adapters/outbox"
)

func newEntry(eventName string, createdAt time.Time) outbox.Entry {
	return outbox.Entry{
		ID:         uuid.NewString(),
		EventName:  eventName,
		EntityName: "order",
		EntityID:   uuid.NewString(),
		EventData:  []byte(`{"order_id":"123"}`),
		CreatedAt:  createdAt,
	}
}

func TestOutboxRepository_Insert(t *testing.T) {
	freshDB := testClient.Database("test_outbox_insert")
	repo := repository.NewOutboxRepository(freshDB)
	ctx := context.Background()

	t.Run("inserts entry successfully", func(t *testing.T) {
		err := repo.Insert(ctx, newEntry("order.created", time.Now().UTC()))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestOutboxRepository_FetchPending(t *testing.T) {
	freshDB := testClient.Database("test_outbox_fetch")
	repo := repository.NewOutboxRepository(freshDB)
	ctx := context.Background()

	t.Run("returns empty when no entries", func(t *testing.T) {
		entries, err := repo.FetchPending(ctx, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected 0 entries, got %d", len(entries))
		}
	})

	t.Run("fetches inserted entries oldest first", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Millisecond)
		newer := newEntry("order.deleted", now)
		older := newEntry("order.created", now.Add(-time.Second))
		_ = repo.Insert(ctx, newer)
		_ = repo.Insert(ctx, older)

		entries, err := repo.FetchPending(ctx, 10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].ID != older.ID {
			t.Fatalf("expected oldest entry first, got %s", entries[0].EventName)
		}
		if entries[0].EntityID != older.EntityID || string(entries[0].EventData) != string(older.EventData) {
			t.Fatalf("entry fields not preserved: %+v", entries[0])
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		entries, err := repo.FetchPending(ctx, 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry (limit=1), got %d", len(entries))
		}
	})
}

func TestOutboxRepository_Delete(t *testing.T) {
	freshDB := testClient.Database("test_outbox_delete")
	repo := repository.NewOutboxRepository(freshDB)
	ctx := context.Background()

	t.Run("deletes entry by ID", func(t *testing.T) {
		entry := newEntry("order.created", time.Now().UTC())
		_ = repo.Insert(ctx, entry)

		if err := repo.Delete(ctx, entry.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		remaining, _ := repo.FetchPending(ctx, 10)
		if len(remaining) != 0 {
			t.Fatalf("expected 0 entries after delete, got %d", len(remaining))
		}
	})

	t.Run("deleting a missing entry is a no-op", func(t *testing.T) {
		if err := repo.Delete(ctx, uuid.NewString()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

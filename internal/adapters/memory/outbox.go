package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/meli/ecommerce-orders-api/internal/adapters/outbox"
)

type OutboxRepository struct {
	mu      sync.RWMutex
	entries map[string]outbox.Entry
}

func NewOutboxRepository() *OutboxRepository {
	return &OutboxRepository{entries: make(map[string]outbox.Entry)}
}

func (r *OutboxRepository) Insert(_ context.Context, entry outbox.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.EventData = append([]byte(nil), entry.EventData...)
	r.entries[entry.ID] = entry
	return nil
}

// FetchPending returns up to limit entries, oldest first.
func (r *OutboxRepository) FetchPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]outbox.Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *OutboxRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
	return nil
}

var _ outbox.Repository = (*OutboxRepository)(nil)

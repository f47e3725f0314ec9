package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meli/ecommerce-orders-api/internal/core/domain"
)

type Entry struct {
	ID         string
	EventName  string
	EntityName string
	EntityID   string
	EventData  []byte
	CreatedAt  time.Time
}

// NewEntry serializes event into a pending outbox entry.
func NewEntry(event domain.Event) (Entry, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to marshal event %s: %w", event.GetName(), err)
	}
	return Entry{
		ID:         uuid.NewString(),
		EventName:  event.GetName(),
		EntityName: event.GetEntityName(),
		EntityID:   event.GetEntityID().String(),
		EventData:  data,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

// Repository stores pending entries. Insert must join the transaction carried
// by ctx, if any. FetchPending returns the oldest entries first.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	FetchPending(ctx context.Context, limit int) ([]Entry, error)
	Delete(ctx context.Context, id string) error
}

// EventStore appends domain events to an outbox Repository.
type EventStore struct {
	repository Repository
}

func NewEventStore(repository Repository) *EventStore {
	return &EventStore{repository: repository}
}

func (s *EventStore) Append(ctx context.Context, event domain.Event) error {
	entry, err := NewEntry(event)
	if err != nil {
		return err
	}
	if err := s.repository.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert outbox entry: %w", err)
	}
	return nil
}

package document

import (
	"time"

	"github.com/meli/ecommerce-orders-api/internal/adapters/outbox"
)

type OutboxDocument struct {
	ID         string    `bson:"_id"`
	EventName  string    `bson:"event_name"`
	EntityName string    `bson:"entity_name"`
	EntityID   string    `bson:"entity_id"`
	EventData  string    `bson:"event_data"`
	CreatedAt  time.Time `bson:"created_at"`
}

func (doc OutboxDocument) GetID() string {
	return doc.ID
}

func ToOutboxDocument(entry outbox.Entry) OutboxDocument {
	return OutboxDocument{
		ID:         entry.ID,
		EventName:  entry.EventName,
		EntityName: entry.EntityName,
		EntityID:   entry.EntityID,
		EventData:  string(entry.EventData),
		CreatedAt:  entry.CreatedAt,
	}
}

func (doc OutboxDocument) ToEntry() outbox.Entry {
	return outbox.Entry{
		ID:         doc.ID,
		EventName:  doc.EventName,
		EntityName: doc.EntityName,
		EntityID:   doc.EntityID,
		EventData:  []byte(doc.EventData),
		CreatedAt:  doc.CreatedAt,
	}
}

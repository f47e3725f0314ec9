package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meli/ecommerce-orders-api/internal/adapters/outbox"
)

type OutboxRepository struct {
	pool *pgxpool.Pool
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) Insert(ctx context.Context, entry outbox.Entry) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO outbox (id, event_name, entity_name, entity_id, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.EventName, entry.EntityName, entry.EntityID, string(entry.EventData), entry.CreatedAt,
	)
	if err != nil {
		return parseError(err, "outbox entry")
	}
	return nil
}

func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id::text, event_name, entity_name, entity_id, event_data::text, created_at
		FROM outbox
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, parseError(err, "outbox entry")
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (outbox.Entry, error) {
		var (
			entry outbox.Entry
			data  string
		)
		err := row.Scan(&entry.ID, &entry.EventName, &entry.EntityName, &entry.EntityID, &data, &entry.CreatedAt)
		entry.EventData = []byte(data)
		return entry, err
	})
	if err != nil {
		return nil, parseError(err, "outbox entry")
	}
	return entries, nil
}

func (r *OutboxRepository) Delete(ctx context.Context, id string) error {
	if _, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM outbox WHERE id = $1`, id); err != nil {
		return parseError(err, "outbox entry")
	}
	return nil
}

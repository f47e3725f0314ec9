package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/meli/ecommerce-orders-api/internal/adapters/config"
	"github.com/meli/ecommerce-orders-api/internal/core/logger"
	"github.com/meli/ecommerce-orders-api/internal/core/port"
)

const defaultBatchSize = 100

// Recorder receives one call per publish attempt.
type Recorder interface {
	OutboxPublished(eventName string)
	OutboxFailed(eventName string)
}

type noopRecorder struct{}

func (noopRecorder) OutboxPublished(string) {}
func (noopRecorder) OutboxFailed(string)    {}

// Handler relays pending entries to the broker. An entry is deleted only
// after the broker accepted it, so delivery is at least once.
type Handler struct {
	outbox   Repository
	broker   port.BrokerPort
	recorder Recorder
	interval time.Duration
	batch    int
}

func NewHandler(outbox Repository, broker port.BrokerPort, cfg config.OutboxConfig, recorder Recorder) *Handler {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	return &Handler{
		outbox:   outbox,
		broker:   broker,
		recorder: recorder,
		interval: cfg.Interval,
		batch:    batch,
	}
}

// Start relays on every tick until ctx is canceled. A tick that published a
// full batch keeps draining instead of waiting for the next one.
func (h *Handler) Start(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for ctx.Err() == nil {
			published, err := h.Relay(ctx)
			if err != nil {
				logger.Error(ctx, "outbox: relay failed", err, map[string]any{"batch": h.batch})
				break
			}
			if published < h.batch {
				break
			}
		}
	}
}

// Relay publishes one batch of pending entries and returns how many reached
// the broker. Publish failures are recorded and the entry stays pending.
func (h *Handler) Relay(ctx context.Context) (int, error) {
	entries, err := h.outbox.FetchPending(ctx, h.batch)
	if err != nil {
		return 0, fmt.Errorf("fetch pending entries: %w", err)
	}

	published := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			return published, nil
		}
		if h.relayEntry(ctx, entry) {
			published++
		}
	}
	return published, nil
}

func (h *Handler) relayEntry(ctx context.Context, entry Entry) bool {
	attrs := map[string]any{
		"event_id":    entry.ID,
		"event_name":  entry.EventName,
		"entity_name": entry.EntityName,
		"entity_id":   entry.EntityID,
	}

	if err := h.broker.PublishRaw(ctx, entry.EventName, entry.EntityName, entry.EntityID, entry.EventData); err != nil {
		h.recorder.OutboxFailed(entry.EventName)
		logger.Error(ctx, "outbox: failed to publish event", err, attrs)
		return false
	}
	h.recorder.OutboxPublished(entry.EventName)
	logger.Debug(ctx, "outbox: event published", attrs)

	// a failed delete means the entry is published again on a later tick
	if err := h.outbox.Delete(ctx, entry.ID); err != nil {
		logger.Error(ctx, "outbox: failed to delete event after publish", err, attrs)
	}
	return true
}

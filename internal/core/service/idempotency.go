package service

import (
	"context"
	"fmt"
	"time"

	"github.com/meli/ecommerce-orders-api/internal/core/logger"
	"github.com/meli/ecommerce-orders-api/internal/core/port"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
	"github.com/meli/ecommerce-orders-api/internal/core/utils"
)

const (
	defaultIdempotencyPollInterval = 50 * time.Millisecond
	defaultIdempotencyPollTimeout  = 5 * time.Second
)

type IdempotencyState string

const (
	IdempotencyPending   IdempotencyState = "pending"
	IdempotencyCompleted IdempotencyState = "completed"
)

// IdempotencyRecord is what is stored under an idempotency key.
type IdempotencyRecord[T any] struct {
	State       IdempotencyState `json:"state"`
	RequestHash string           `json:"request_hash"`
	Response    *T               `json:"response,omitempty"`
}

type IdempotencyConfig struct {
	// TTL bounds how long a key is remembered, pending or completed.
	TTL          time.Duration
	PollInterval time.Duration
	PollTimeout  time.Duration
}

type IdempotencyService[T any] struct {
	store  port.CachePort[IdempotencyRecord[T]]
	config IdempotencyConfig
}

func NewIdempotencyService[T any](store port.CachePort[IdempotencyRecord[T]], config IdempotencyConfig) *IdempotencyService[T] {
	if config.PollInterval <= 0 {
		config.PollInterval = defaultIdempotencyPollInterval
	}
	if config.PollTimeout <= 0 {
		config.PollTimeout = defaultIdempotencyPollTimeout
	}
	return &IdempotencyService[T]{store: store, config: config}
}

// Do runs fn at most once per key.
//
// The first caller stores a pending record and runs fn. Later callers with the
// same request wait for that run and get its response; callers with another
// request get an unprocessable entity error. When fn fails the key is freed so
// the client can retry.
func (s *IdempotencyService[T]) Do(ctx context.Context, key string, request any, fn func(ctx context.Context) (*T, error)) (*T, error) {
	requestHash, err := utils.HashJSON(request)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.SetNX(ctx, key, &IdempotencyRecord[T]{
		State:       IdempotencyPending,
		RequestHash: requestHash,
	}, s.config.TTL)
	if err != nil {
		logger.Error(ctx, "idempotency: failed to reserve key", err, map[string]any{"idempotency_key": key})
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}

	if !owner {
		logger.Info(ctx, "idempotency: key already used, waiting for its response", map[string]any{"idempotency_key": key})
		return s.await(ctx, key, requestHash)
	}

	response, err := fn(ctx)
	if err != nil {
		s.forget(ctx, key)
		return nil, err
	}

	s.remember(ctx, key, requestHash, response)
	return response, nil
}

// await polls the record of key until it completes, the key is freed or the
// poll timeout elapses.
func (s *IdempotencyService[T]) await(ctx context.Context, key, requestHash string) (*T, error) {
	deadline := time.NewTimer(s.config.PollTimeout)
	defer deadline.Stop()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		response, done, err := s.inspect(ctx, key, requestHash)
		if done || err != nil {
			return response, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, serviceerrors.NewConflictError("a request with this idempotency key is still in progress")
		case <-ticker.C:
		}
	}
}

// inspect reports done once the stored record holds a response.
func (s *IdempotencyService[T]) inspect(ctx context.Context, key, requestHash string) (*T, bool, error) {
	record, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read idempotency key: %w", err)
	}

	switch {
	case record == nil:
		return nil, false, serviceerrors.NewConflictError("previous request with this idempotency key failed, retry")
	case record.RequestHash != requestHash:
		return nil, false, serviceerrors.NewUnprocessableEntityError("idempotency key already used with a different payload")
	case record.State == IdempotencyCompleted && record.Response != nil:
		return record.Response, true, nil
	default:
		return nil, false, nil
	}
}

func (s *IdempotencyService[T]) remember(ctx context.Context, key, requestHash string, response *T) {
	err := s.store.Set(ctx, key, &IdempotencyRecord[T]{
		State:       IdempotencyCompleted,
		RequestHash: requestHash,
		Response:    response,
	}, s.config.TTL)
	if err != nil {
		logger.Error(ctx, "idempotency: failed to store response", err, map[string]any{"idempotency_key": key})
	}
}

func (s *IdempotencyService[T]) forget(ctx context.Context, key string) {
	if err := s.store.Del(ctx, key); err != nil {
		logger.Error(ctx, "idempotency: failed to free key", err, map[string]any{"idempotency_key": key})
	}
}

package memory

import (
	"context"

	"github.com/meli/ecommerce-orders-api/internal/core/port"
)

// TransactionManager runs fn directly. Writes made before a failure are not
// rolled back.
type TransactionManager struct{}

func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

func (m *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ port.TransactionManager = (*TransactionManager)(nil)

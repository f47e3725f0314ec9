package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
)

const selectOrdersSQL = `
SELECT o.id::text, o.created_by::text, o.status, o.total_amount::text, o.created_at, o.updated_at, o.deleted_at,
       i.id::text, i.product_id::text, i.product_name, i.quantity, i.price_per_unit::text
FROM orders o
LEFT JOIN order_items i ON i.order_id = o.id
`

type OrderRepository struct {
	pool *pgxpool.Pool
	tx   *TransactionManager
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, tx: NewTransactionManager(pool)}
}

// Create writes the order row and its items atomically, joining the caller's
// transaction when there is one.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		_, err := q.Exec(ctx, `
			INSERT INTO orders (id, created_by, status, total_amount, created_at, updated_at, deleted_at)
			VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7)`,
			string(order.ID), string(order.CreatedBy), string(order.Status), order.TotalAmount.String(),
			order.CreatedAt, order.UpdatedAt, order.DeletedAt,
		)
		if err != nil {
			return parseError(err, "order")
		}

		batch := &pgx.Batch{}
		for i, item := range order.Items {
			batch.Queue(`
				INSERT INTO order_items (id, order_id, position, product_id, product_name, quantity, price_per_unit)
				VALUES ($1, $2, $3, $4, $5, $6, $7::text::numeric)`,
				string(item.ID), string(order.ID), i, string(item.ProductID), item.ProductName, item.Quantity,
				item.PricePerUnit.String(),
			)
		}
		if err := q.SendBatch(ctx, batch).Close(); err != nil {
			return parseError(err, "order item")
		}
		return nil
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Order, error) {
	orders, err := r.queryOrders(ctx, selectOrdersSQL+`WHERE o.id = $1 ORDER BY i.position`, string(id))
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, serviceerrors.NewNotFoundError("order not found")
	}
	return orders[0], nil
}

func (r *OrderRepository) ListActive(ctx context.Context) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		selectOrdersSQL+`WHERE o.status = $1 ORDER BY o.created_at DESC, o.id, i.position`,
		string(domain.OrderStatusActive),
	)
}

// SoftDelete only matches active orders, so a second delete reports not found.
func (r *OrderRepository) SoftDelete(ctx context.Context, id domain.ID, deletedAt time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE orders SET status = $2, deleted_at = $3, updated_at = $3
		WHERE id = $1 AND status = $4`,
		string(id), string(domain.OrderStatusDeleted), deletedAt, string(domain.OrderStatusActive),
	)
	if err != nil {
		return parseError(err, "order")
	}
	if tag.RowsAffected() == 0 {
		return serviceerrors.NewNotFoundError("order not found")
	}
	return nil
}

type orderRow struct {
	id, createdBy, status, totalAmount string
	createdAt, updatedAt               time.Time
	deletedAt                          *time.Time

	itemID, productID, productName, pricePerUnit *string
	quantity                                     *int
}

// queryOrders folds joined order/item rows into orders, keeping row order.
func (r *OrderRepository) queryOrders(ctx context.Context, sql string, args ...any) ([]*domain.Order, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, parseError(err, "order")
	}
	defer rows.Close()

	var orderRows []orderRow
	for rows.Next() {
		var row orderRow
		if err := rows.Scan(
			&row.id, &row.createdBy, &row.status, &row.totalAmount, &row.createdAt, &row.updatedAt, &row.deletedAt,
			&row.itemID, &row.productID, &row.productName, &row.quantity, &row.pricePerUnit,
		); err != nil {
			return nil, parseError(err, "order")
		}
		orderRows = append(orderRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, parseError(err, "order")
	}

	return foldOrderRows(orderRows)
}

func foldOrderRows(rows []orderRow) ([]*domain.Order, error) {
	orders := make([]*domain.Order, 0)
	byID := make(map[string]*domain.Order)

	for _, row := range rows {
		order, ok := byID[row.id]
		if !ok {
			total, err := decimal.NewFromString(row.totalAmount)
			if err != nil {
				return nil, fmt.Errorf("invalid stored total for order %s: %w", row.id, err)
			}
			order = &domain.Order{
				ID:          domain.ID(row.id),
				CreatedBy:   domain.ID(row.createdBy),
				Items:       []domain.OrderLineItem{},
				Status:      domain.OrderStatus(row.status),
				TotalAmount: total,
				CreatedAt:   row.createdAt.UTC(),
				UpdatedAt:   row.updatedAt.UTC(),
			}
			if row.deletedAt != nil {
				deletedAt := row.deletedAt.UTC()
				order.DeletedAt = &deletedAt
			}
			byID[row.id] = order
			orders = append(orders, order)
		}

		if row.itemID == nil {
			continue
		}
		price, err := decimal.NewFromString(*row.pricePerUnit)
		if err != nil {
			return nil, fmt.Errorf("invalid stored price for item %s: %w", *row.itemID, err)
		}
		order.Items = append(order.Items, domain.OrderLineItem{
			ID:           domain.ID(*row.itemID),
			ProductID:    domain.ID(*row.productID),
			ProductName:  *row.productName,
			Quantity:     *row.quantity,
			PricePerUnit: price,
		})
	}

	return orders, nil
}

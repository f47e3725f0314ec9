package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusActive  OrderStatus = "active"
	OrderStatusDeleted OrderStatus = "deleted"
)

func (s OrderStatus) IsValid() bool {
	return s == OrderStatusActive || s == OrderStatusDeleted
}

var ErrOrderAlreadyDeleted = errors.New("order already deleted")

type Order struct {
	ID          ID
	CreatedBy   ID
	Items       []OrderLineItem
	Status      OrderStatus
	TotalAmount Amount
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

type OrderLineItem struct {
	ID           ID
	ProductID    ID
	ProductName  string
	Quantity     int
	PricePerUnit Amount
}

func (i *OrderLineItem) CalculateTotalAmount() Amount {
	return i.PricePerUnit.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func NewOrderLineItem(productID ID, productName string, quantity int, pricePerUnit Amount) *OrderLineItem {
	return &OrderLineItem{
		ID:           NewID(),
		ProductID:    productID,
		ProductName:  productName,
		Quantity:     quantity,
		PricePerUnit: pricePerUnit,
	}
}

func CalculateTotalAmount(items []OrderLineItem) Amount {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.CalculateTotalAmount())
	}
	return total
}

// NewOrder builds an active order with a fresh identifier. Timestamps are
// truncated to milliseconds so they survive a round trip through any store.
func NewOrder(createdBy ID, items []OrderLineItem) *Order {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &Order{
		ID:          NewID(),
		CreatedBy:   createdBy,
		Items:       items,
		Status:      OrderStatusActive,
		TotalAmount: CalculateTotalAmount(items),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (o *Order) IsActive() bool {
	return o.Status == OrderStatusActive
}

func (o *Order) SoftDelete(at time.Time) error {
	if !o.IsActive() {
		return ErrOrderAlreadyDeleted
	}
	o.Status = OrderStatusDeleted
	o.DeletedAt = &at
	o.UpdatedAt = at
	return nil
}

type OrderCreatedEvent struct {
	OrderID     ID        `json:"order_id"`
	CreatedBy   ID        `json:"created_by"`
	ItemCount   int       `json:"item_count"`
	TotalAmount Amount    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e *OrderCreatedEvent) GetName() string {
	return "order.created"
}

func (e *OrderCreatedEvent) GetEntityName() string {
	return "order"
}

func (e *OrderCreatedEvent) GetEntityID() ID {
	return e.OrderID
}

func NewOrderCreatedEvent(order *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		OrderID:     order.ID,
		CreatedBy:   order.CreatedBy,
		ItemCount:   len(order.Items),
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
}

type OrderDeletedEvent struct {
	OrderID   ID        `json:"order_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

func (e *OrderDeletedEvent) GetName() string {
	return "order.deleted"
}

func (e *OrderDeletedEvent) GetEntityName() string {
	return "order"
}

func (e *OrderDeletedEvent) GetEntityID() ID {
	return e.OrderID
}

func NewOrderDeletedEvent(orderID ID, deletedAt time.Time) *OrderDeletedEvent {
	return &OrderDeletedEvent{
		OrderID:   orderID,
		DeletedAt: deletedAt,
	}
}

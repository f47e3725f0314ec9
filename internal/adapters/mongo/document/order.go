package document

import (
	"time"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderLineItemDocument struct {
	ID           string               `bson:"id"`
	ProductID    string               `bson:"product_id"`
	ProductName  string               `bson:"product_name"`
	Quantity     int                  `bson:"quantity"`
	PricePerUnit primitive.Decimal128 `bson:"price_per_unit"`
}

type OrderDocument struct {
	ID          string                  `bson:"_id"`
	CreatedBy   string                  `bson:"created_by"`
	Items       []OrderLineItemDocument `bson:"items"`
	Status      string                  `bson:"status"`
	TotalAmount primitive.Decimal128    `bson:"total_amount"`
	CreatedAt   time.Time               `bson:"created_at"`
	UpdatedAt   time.Time               `bson:"updated_at"`
	DeletedAt   *time.Time              `bson:"deleted_at,omitempty"`
}

func (doc OrderDocument) GetID() string {
	return doc.ID
}

func (doc *OrderDocument) ToDomain() (*domain.Order, error) {
	items := make([]domain.OrderLineItem, len(doc.Items))
	for i, itemDoc := range doc.Items {
		price, err := fromDecimal128(itemDoc.PricePerUnit)
		if err != nil {
			return nil, err
		}
		items[i] = domain.OrderLineItem{
			ID:           domain.ID(itemDoc.ID),
			ProductID:    domain.ID(itemDoc.ProductID),
			ProductName:  itemDoc.ProductName,
			Quantity:     itemDoc.Quantity,
			PricePerUnit: price,
		}
	}

	total, err := fromDecimal128(doc.TotalAmount)
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:          domain.ID(doc.ID),
		CreatedBy:   domain.ID(doc.CreatedBy),
		Items:       items,
		Status:      domain.OrderStatus(doc.Status),
		TotalAmount: total,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		DeletedAt:   doc.DeletedAt,
	}, nil
}

func ToDocument(order *domain.Order) (*OrderDocument, error) {
	items := make([]OrderLineItemDocument, len(order.Items))
	for i, item := range order.Items {
		price, err := toDecimal128(item.PricePerUnit)
		if err != nil {
			return nil, err
		}
		items[i] = OrderLineItemDocument{
			ID:           string(item.ID),
			ProductID:    string(item.ProductID),
			ProductName:  item.ProductName,
			Quantity:     item.Quantity,
			PricePerUnit: price,
		}
	}

	total, err := toDecimal128(order.TotalAmount)
	if err != nil {
		return nil, err
	}

	return &OrderDocument{
		ID:          string(order.ID),
		CreatedBy:   string(order.CreatedBy),
		Items:       items,
		Status:      string(order.Status),
		TotalAmount: total,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
		DeletedAt:   order.DeletedAt,
	}, nil
}

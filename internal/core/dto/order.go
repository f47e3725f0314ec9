package dto

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
	"github.com/shopspring/decimal"
)

const (
	MaxOrderItems      = 100
	MaxQuantity        = 1_000_000
	maxProductNameSize = 255
	maxPriceScale      = 2
	maxPriceDigits     = 16
)

// priceLimit is the first price with more than maxPriceDigits integer digits.
// With the quantity and item caps every total fits a decimal128.
var priceLimit = decimal.New(1, maxPriceDigits)

type OrderLineItemRequest struct {
	ProductID    domain.ID       `json:"productId" binding:"required,uuid"`
	ProductName  string          `json:"productName" binding:"required,max=255"`
	Quantity     int             `json:"quantity" binding:"required,gt=0,lte=1000000"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
}

type CreateOrderRequest struct {
	CreatedBy domain.ID              `json:"createdBy" binding:"required,uuid"`
	Items     []OrderLineItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
}

// Validate applies the rules binding tags cannot express. It is also the
// last line of defence when the service is called without the HTTP layer.
func (r *CreateOrderRequest) Validate() error {
	var details []serviceerrors.FieldError

	if !domain.ValidateID(string(r.CreatedBy)) {
		details = append(details, serviceerrors.FieldError{Field: "createdBy", Message: "must be a valid UUID"})
	}
	if len(r.Items) == 0 {
		details = append(details, serviceerrors.FieldError{Field: "items", Message: "must contain at least 1 entry"})
	}
	if len(r.Items) > MaxOrderItems {
		details = append(details, serviceerrors.FieldError{Field: "items", Message: fmt.Sprintf("must contain at most %d entries", MaxOrderItems)})
	}

	for i, item := range r.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if !domain.ValidateID(string(item.ProductID)) {
			details = append(details, serviceerrors.FieldError{Field: prefix + "productId", Message: "must be a valid UUID"})
		}
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			details = append(details, serviceerrors.FieldError{Field: prefix + "productName", Message: "must not be blank"})
		} else if utf8.RuneCountInString(name) > maxProductNameSize {
			details = append(details, serviceerrors.FieldError{Field: prefix + "productName", Message: fmt.Sprintf("must be at most %d characters", maxProductNameSize)})
		}
		if item.Quantity <= 0 {
			details = append(details, serviceerrors.FieldError{Field: prefix + "quantity", Message: "must be greater than 0"})
		} else if item.Quantity > MaxQuantity {
			details = append(details, serviceerrors.FieldError{Field: prefix + "quantity", Message: fmt.Sprintf("must be less than or equal to %d", MaxQuantity)})
		}
		if item.PricePerUnit.IsNegative() {
			details = append(details, serviceerrors.FieldError{Field: prefix + "pricePerUnit", Message: "must be greater than or equal to 0"})
		} else if item.PricePerUnit.GreaterThanOrEqual(priceLimit) {
			details = append(details, serviceerrors.FieldError{Field: prefix + "pricePerUnit", Message: fmt.Sprintf("must have at most %d integer digits", maxPriceDigits)})
		} else if !item.PricePerUnit.Equal(item.PricePerUnit.Truncate(maxPriceScale)) {
			details = append(details, serviceerrors.FieldError{Field: prefix + "pricePerUnit", Message: fmt.Sprintf("must have at most %d decimal places", maxPriceScale)})
		}
	}

	if len(details) > 0 {
		return serviceerrors.NewInvalidRequestError("invalid order payload", details...)
	}
	return nil
}

package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
	"github.com/shopspring/decimal"
)

const (
	creatorID = "0b8f6f4e-5a36-4c57-9a9c-3f0f3f1d2a11"
	productID = "9d1e6a7c-2b3f-4c5d-8e9f-a0b1c2d3e4f5"
)

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		CreatedBy: creatorID,
		Items: []OrderLineItemRequest{
			{ProductID: productID, ProductName: "Keyboard", Quantity: 2, PricePerUnit: decimal.RequireFromString("49.90")},
		},
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	svcErr, ok := err.(*serviceerrors.ServiceError)
	if !ok {
		t.Fatalf("expected *ServiceError, got %T", err)
	}
	if svcErr.Kind != serviceerrors.KindInvalidRequest {
		t.Fatalf("expected KindInvalidRequest, got %v", svcErr.Kind)
	}
	fields := make([]string, len(svcErr.Details))
	for i, d := range svcErr.Details {
		fields[i] = d.Field
	}
	return fields
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		if err := validRequest().Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("empty request", func(t *testing.T) {
		err := (&CreateOrderRequest{}).Validate()
		fields := fieldsOf(t, err)
		if strings.Join(fields, ",") != "createdBy,items" {
			t.Fatalf("unexpected fields %v", fields)
		}
	})

	t.Run("too many items", func(t *testing.T) {
		req := validRequest()
		for len(req.Items) <= MaxOrderItems {
			req.Items = append(req.Items, req.Items[0])
		}
		fields := fieldsOf(t, req.Validate())
		if len(fields) != 1 || fields[0] != "items" {
			t.Fatalf("unexpected fields %v", fields)
		}
	})

	t.Run("invalid line item", func(t *testing.T) {
		req := validRequest()
		req.Items[0] = OrderLineItemRequest{
			ProductID:    "nope",
			ProductName:  "   ",
			Quantity:     0,
			PricePerUnit: decimal.RequireFromString("-1"),
		}
		fields := fieldsOf(t, req.Validate())
		want := "items[0].productId,items[0].productName,items[0].quantity,items[0].pricePerUnit"
		if strings.Join(fields, ",") != want {
			t.Fatalf("expected %s, got %v", want, fields)
		}
	})

	t.Run("price with too many decimals", func(t *testing.T) {
		req := validRequest()
		req.Items[0].PricePerUnit = decimal.RequireFromString("1.999")
		fields := fieldsOf(t, req.Validate())
		if len(fields) != 1 || fields[0] != "items[0].pricePerUnit" {
			t.Fatalf("unexpected fields %v", fields)
		}
	})

	t.Run("trailing zeros are not extra precision", func(t *testing.T) {
		req := validRequest()
		req.Items[0].PricePerUnit = decimal.RequireFromString("1.5000")
		if err := req.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("zero price is allowed", func(t *testing.T) {
		req := validRequest()
		req.Items[0].PricePerUnit = decimal.Zero
		if err := req.Validate(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestCreateOrderRequest_ValidateBounds(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(item *OrderLineItemRequest)
		wantField string
	}{
		{"largest quantity", func(item *OrderLineItemRequest) { item.Quantity = MaxQuantity }, ""},
		{"quantity above limit", func(item *OrderLineItemRequest) { item.Quantity = MaxQuantity + 1 }, "items[0].quantity"},
		{"quantity beyond int32", func(item *OrderLineItemRequest) { item.Quantity = 3_000_000_000 }, "items[0].quantity"},
		{"largest price", func(item *OrderLineItemRequest) {
			item.PricePerUnit = decimal.RequireFromString("9999999999999999.99")
		}, ""},
		{"price with 17 integer digits", func(item *OrderLineItemRequest) {
			item.PricePerUnit = decimal.RequireFromString("10000000000000000")
		}, "items[0].pricePerUnit"},
		{"price in exponent form", func(item *OrderLineItemRequest) {
			item.PricePerUnit = decimal.RequireFromString("1e7000")
		}, "items[0].pricePerUnit"},
		{"price with tiny fraction", func(item *OrderLineItemRequest) {
			item.PricePerUnit = decimal.RequireFromString("1e-40")
		}, "items[0].pricePerUnit"},
		{"multibyte name at limit", func(item *OrderLineItemRequest) {
			item.ProductName = strings.Repeat("é", 255)
		}, ""},
		{"multibyte name above limit", func(item *OrderLineItemRequest) {
			item.ProductName = strings.Repeat("é", 256)
		}, "items[0].productName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req.Items[0])

			err := req.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			fields := fieldsOf(t, err)
			if len(fields) != 1 || fields[0] != tt.wantField {
				t.Fatalf("expected %s, got %v", tt.wantField, fields)
			}
		})
	}
}

func TestCreateOrderRequest_JSON(t *testing.T) {
	payload := `{"createdBy":"` + creatorID + `","items":[{"productId":"` + productID + `","productName":"Mouse","quantity":1,"pricePerUnit":12.5}]}`

	var req CreateOrderRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if req.CreatedBy != creatorID {
		t.Fatalf("expected createdBy %s, got %s", creatorID, req.CreatedBy)
	}
	if !req.Items[0].PricePerUnit.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("expected price 12.5, got %s", req.Items[0].PricePerUnit)
	}
}

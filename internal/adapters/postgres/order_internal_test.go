package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meli/ecommerce-orders-api/internal/core/domain"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestFoldOrderRows(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []orderRow{
		{
			id: "o-2", createdBy: "u-1", status: "active", totalAmount: "30.00", createdAt: now, updatedAt: now,
			itemID: strPtr("i-1"), productID: strPtr("p-1"), productName: strPtr("A"), quantity: intPtr(1), pricePerUnit: strPtr("10.00"),
		},
		{
			id: "o-2", createdBy: "u-1", status: "active", totalAmount: "30.00", createdAt: now, updatedAt: now,
			itemID: strPtr("i-2"), productID: strPtr("p-2"), productName: strPtr("B"), quantity: intPtr(2), pricePerUnit: strPtr("10.00"),
		},
		{
			id: "o-1", createdBy: "u-2", status: "deleted", totalAmount: "0", createdAt: now, updatedAt: now, deletedAt: &now,
		},
	}

	orders, err := foldOrderRows(rows)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, domain.ID("o-2"), orders[0].ID)
	require.Len(t, orders[0].Items, 2)
	assert.Equal(t, "B", orders[0].Items[1].ProductName)
	assert.True(t, orders[0].TotalAmount.Equal(domain.MustAmount("30")))

	assert.Equal(t, domain.OrderStatusDeleted, orders[1].Status)
	assert.Empty(t, orders[1].Items)
	require.NotNil(t, orders[1].DeletedAt)
}

func TestFoldOrderRows_InvalidDecimal(t *testing.T) {
	_, err := foldOrderRows([]orderRow{{id: "o-1", totalAmount: "abc"}})
	assert.Error(t, err)
}

func TestFoldOrderRows_Empty(t *testing.T) {
	orders, err := foldOrderRows(nil)
	require.NoError(t, err)
	assert.NotNil(t, orders)
	assert.Empty(t, orders)
}

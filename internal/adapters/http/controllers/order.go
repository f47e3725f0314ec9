package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meli/ecommerce-orders-api/internal/adapters/http/handlers"
	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/dto"
	"github.com/meli/ecommerce-orders-api/internal/core/serviceerrors"
)

const amountScale = 2

//go:generate mockgen -source=$GOFILE -destination=mock/$GOFILE -package=mock

// OrderService is what the order endpoints need from the core.
type OrderService interface {
	CreateOrder(ctx context.Context, idempotencyKey string, request *dto.CreateOrderRequest) (*domain.Order, error)
	ListActiveOrders(ctx context.Context) ([]*domain.Order, error)
	GetOrderByID(ctx context.Context, orderID domain.ID) (*domain.Order, error)
	SoftDeleteOrder(ctx context.Context, orderID domain.ID) error
}

type OrderController struct {
	orderService OrderService
}

type OrderLineItemResponse struct {
	ID           string `json:"id" example:"5b0f2a0e-7c1f-4a4b-9a57-1d1d7f0e6a10"`
	ProductID    string `json:"productId" example:"0d6f7c54-7f3d-4c55-8f1e-2f1f5d9b6c11"`
	ProductName  string `json:"productName" example:"Mechanical keyboard"`
	Quantity     int    `json:"quantity" example:"2"`
	PricePerUnit string `json:"pricePerUnit" example:"49.90"`
}

type OrderResponse struct {
	ID          string                  `json:"id" example:"8a6e0804-2bd0-4672-b79d-d97027f9071a"`
	CreatedBy   string                  `json:"createdBy" example:"c1f7b0de-3f1e-4d6b-8c1a-0a4f0c5d2e77"`
	Items       []OrderLineItemResponse `json:"items"`
	Status      string                  `json:"status" example:"active"`
	TotalAmount string                  `json:"totalAmount" example:"99.80"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
	DeletedAt   *time.Time              `json:"deletedAt,omitempty"`
}

func NewOrderLineItemResponse(item domain.OrderLineItem) OrderLineItemResponse {
	return OrderLineItemResponse{
		ID:           item.ID.String(),
		ProductID:    item.ProductID.String(),
		ProductName:  item.ProductName,
		Quantity:     item.Quantity,
		PricePerUnit: item.PricePerUnit.StringFixed(amountScale),
	}
}

func NewOrderResponse(order *domain.Order) OrderResponse {
	items := make([]OrderLineItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = NewOrderLineItemResponse(item)
	}
	return OrderResponse{
		ID:          order.ID.String(),
		CreatedBy:   order.CreatedBy.String(),
		Items:       items,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.StringFixed(amountScale),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
		DeletedAt:   order.DeletedAt,
	}
}

func NewOrderController(orderService OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder godoc
// @Summary     Create an order
// @Description Creates an active order. Retries carrying the same Idempotency-Key return the first result.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header   string                 false "Idempotency key"
// @Param       request         body     dto.CreateOrderRequest true  "Order data"
// @Success     201             {object} OrderResponse
// @Failure     400             {object} handlers.ErrorResponse
// @Failure     409             {object} handlers.ErrorResponse
// @Failure     422             {object} handlers.ErrorResponse
// @Failure     429             {object} handlers.ErrorResponse
// @Failure     500             {object} handlers.ErrorResponse
// @Router      /api/v1/orders [post]
func (orderController *OrderController) CreateOrder(c *gin.Context) {
	var request dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handlers.HandleError(c, &handlers.BindingError{Err: err})
		return
	}
	if err := request.Validate(); err != nil {
		handlers.HandleError(c, err)
		return
	}
	idempotencyKey := c.GetHeader("Idempotency-Key")
	order, err := orderController.orderService.CreateOrder(c.Request.Context(), idempotencyKey, &request)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewOrderResponse(order))
}

// ListActiveOrders godoc
// @Summary     List active orders
// @Description Returns every order that has not been deleted, newest first
// @Tags        orders
// @Produce     json
// @Success     200 {array}  OrderResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /api/v1/orders [get]
func (orderController *OrderController) ListActiveOrders(c *gin.Context) {
	orders, err := orderController.orderService.ListActiveOrders(c.Request.Context())
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	response := make([]OrderResponse, len(orders))
	for i, order := range orders {
		response[i] = NewOrderResponse(order)
	}
	c.JSON(http.StatusOK, response)
}

// GetOrderByID godoc
// @Summary     Get order by ID
// @Description Returns a single active order by its ID
// @Tags        orders
// @Produce     json
// @Param       id  path     string true "Order ID"
// @Success     200 {object} OrderResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /api/v1/orders/{id} [get]
func (orderController *OrderController) GetOrderByID(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := orderController.orderService.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewOrderResponse(order))
}

// SoftDeleteOrder godoc
// @Summary     Delete an order
// @Description Marks an order as deleted. It no longer shows up in listings or lookups.
// @Tags        orders
// @Param       id  path string true "Order ID"
// @Success     204
// @Failure     400 {object} handlers.ErrorResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Failure     429 {object} handlers.ErrorResponse
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /api/v1/orders/{id} [delete]
func (orderController *OrderController) SoftDeleteOrder(c *gin.Context) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	if err := orderController.orderService.SoftDeleteOrder(c.Request.Context(), orderID); err != nil {
		handlers.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func orderIDParam(c *gin.Context) (domain.ID, bool) {
	orderID := c.Param("id")
	if !domain.ValidateID(orderID) {
		handlers.HandleError(c, serviceerrors.NewInvalidRequestError("invalid order ID", serviceerrors.FieldError{
			Field:   "id",
			Message: "must be a valid UUID",
		}))
		return "", false
	}
	return domain.ID(orderID), true
}

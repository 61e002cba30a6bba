// controllers/order_controller.go
package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyldo/vyldo_backend/models"
	"github.com/vyldo/vyldo_backend/repositories"
	"github.com/vyldo/vyldo_backend/services"
	"github.com/vyldo/vyldo_backend/utils"
)

// OrderController handles fee quotes, checkout and order intake
type OrderController struct {
	orders *services.OrderService
	users  *repositories.UserRepository
}

// NewOrderController creates a new order controller
func NewOrderController(orders *services.OrderService, users *repositories.UserRepository) *OrderController {
	return &OrderController{orders: orders, users: users}
}

// FeeQuote returns the fee breakdown for a given price without creating
// anything. The UI calls this while the buyer is still browsing.
func (c *OrderController) FeeQuote(ctx echo.Context) error {
	price, err := utils.ParseFloat(ctx.QueryParam("price"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid price",
		})
	}

	breakdown, err := c.orders.FeeQuote(price)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Fee quote calculated",
		Data:    breakdown,
	})
}

// Checkout issues a payment memo and QR code for a gig package
func (c *OrderController) Checkout(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.CheckoutRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ctx.Validate(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	resp, err := c.orders.Checkout(context.Background(), user, &req)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Checkout session created",
		Data:    resp,
	})
}

// CreateOrder verifies the buyer's payment on chain and records the order
func (c *OrderController) CreateOrder(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.CreateOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}
	if err := ctx.Validate(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	order, err := c.orders.CreateOrder(context.Background(), user, &req)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Order created successfully",
		Data:    order,
	})
}

// GetOrder returns a single order visible to the caller
func (c *OrderController) GetOrder(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	orderID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
		})
	}

	order, err := c.orders.GetOrder(context.Background(), user, orderID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Order retrieved successfully",
		Data:    order,
	})
}

// ListOrders returns the caller's orders, as buyer or seller
func (c *OrderController) ListOrders(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	orders, err := c.orders.ListOrders(context.Background(), user)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Orders retrieved successfully",
		Data:    orders,
	})
}

// ReleaseEarnings completes an order and moves seller earnings from pending
// to available. Admin only.
func (c *OrderController) ReleaseEarnings(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	orderID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid order ID",
		})
	}

	order, err := c.orders.ReleaseEarnings(context.Background(), user, orderID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Earnings released successfully",
		Data:    order,
	})
}

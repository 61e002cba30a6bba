package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/vyldo/vyldo_backend/controllers"
	"github.com/vyldo/vyldo_backend/middleware"
	"github.com/vyldo/vyldo_backend/models"
)

// RegisterOrderRoutes sets up gig and order routes behind JWT auth
func RegisterOrderRoutes(api *echo.Group, gigController *controllers.GigController, orderController *controllers.OrderController) {
	// Gigs
	api.POST("/gigs", gigController.CreateGig, middleware.RequireUserType(models.UserTypeSeller))
	api.GET("/gigs", gigController.ListMyGigs)

	// Orders
	api.POST("/orders/checkout", orderController.Checkout)
	api.POST("/orders", orderController.CreateOrder)
	api.GET("/orders", orderController.ListOrders)
	api.GET("/orders/:id", orderController.GetOrder)
	api.POST("/orders/:id/release", orderController.ReleaseEarnings, middleware.RequireUserType(models.UserTypeAdmin))
}

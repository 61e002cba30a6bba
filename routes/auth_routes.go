package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/vyldo/vyldo_backend/controllers"
)

// RegisterAuthRoutes sets up authentication and public routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController, gigController *controllers.GigController, orderController *controllers.OrderController) {
	// Public authentication routes
	e.POST("/api/auth/signup", authController.Signup)
	e.POST("/api/auth/login", authController.Login)
	e.POST("/api/auth/logout", authController.Logout)

	// Public catalog routes
	e.GET("/api/gigs/:id", gigController.GetGig)

	// Fee quote is public so the UI can show the breakdown before login
	e.GET("/api/orders/fee-quote", orderController.FeeQuote)
}

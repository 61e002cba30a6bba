package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vyldo/vyldo_backend/controllers"
	"github.com/vyldo/vyldo_backend/middleware"
	"github.com/vyldo/vyldo_backend/models"
	"github.com/vyldo/vyldo_backend/websocket"
)

// Controllers bundles every controller the route tree needs.
type Controllers struct {
	Auth          *controllers.AuthController
	Gigs          *controllers.GigController
	Orders        *controllers.OrderController
	Withdrawals   *controllers.WithdrawalController
	Staff         *controllers.StaffController
	Tickets       *controllers.TicketController
	Notifications *controllers.NotificationController
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, db *mongo.Client, hub *websocket.Hub, c Controllers) {
	RegisterAuthRoutes(e, c.Auth, c.Gigs, c.Orders)

	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware())
	api.Use(middleware.ActivityTracker(db))

	api.GET("/auth/me", c.Auth.Me)

	RegisterOrderRoutes(api, c.Gigs, c.Orders)
	RegisterWithdrawalRoutes(api, c.Withdrawals)
	RegisterStaffRoutes(api, c.Staff, c.Tickets, c.Notifications)

	// WebSocket endpoint for real-time notifications
	api.GET("/ws", func(ctx echo.Context) error {
		claims := middleware.GetUserFromToken(ctx)
		if claims == nil {
			return ctx.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			return ctx.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid user ID",
			})
		}
		return websocket.HandleWebSocket(ctx, hub, userID)
	})
}

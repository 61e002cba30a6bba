package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/vyldo/vyldo_backend/controllers"
	"github.com/vyldo/vyldo_backend/middleware"
	"github.com/vyldo/vyldo_backend/models"
)

// RegisterStaffRoutes sets up staff availability, ticket and notification
// routes behind JWT auth
func RegisterStaffRoutes(api *echo.Group, staffController *controllers.StaffController, ticketController *controllers.TicketController, notificationController *controllers.NotificationController) {
	// Availability
	api.GET("/staff/availability", staffController.GetAvailability, middleware.RequireStaff())
	api.PUT("/staff/:id/availability", staffController.SetStaffAvailability, middleware.RequireStaff())
	api.GET("/staff", staffController.Roster, middleware.RequireUserType(models.UserTypeAdmin))

	// Support tickets
	api.POST("/tickets", ticketController.CreateTicket)
	api.GET("/tickets", ticketController.ListTickets)
	api.POST("/tickets/:id/messages", ticketController.ReplyTicket)
	api.PATCH("/tickets/:id", ticketController.UpdateTicket, middleware.RequireStaff())

	// Notifications
	api.GET("/notifications", notificationController.ListNotifications)
	api.PUT("/notifications/:id/read", notificationController.MarkRead)
	api.PUT("/notifications/read-all", notificationController.MarkAllRead)
}

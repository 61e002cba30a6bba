package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/vyldo/vyldo_backend/controllers"
	"github.com/vyldo/vyldo_backend/middleware"
)

// RegisterWithdrawalRoutes sets up withdrawal routes behind JWT auth
func RegisterWithdrawalRoutes(api *echo.Group, withdrawalController *controllers.WithdrawalController) {
	api.POST("/withdrawals", withdrawalController.RequestWithdrawal)
	api.GET("/withdrawals/my", withdrawalController.ListMyWithdrawals)

	// Staff processing surface
	api.GET("/withdrawals", withdrawalController.ListWithdrawals, middleware.RequireStaff())
	api.POST("/withdrawals/:id/lock", withdrawalController.AcquireLock, middleware.RequireStaff())
	api.DELETE("/withdrawals/:id/lock", withdrawalController.ReleaseLock, middleware.RequireStaff())
	api.PATCH("/withdrawals/:id", withdrawalController.ProcessWithdrawal, middleware.RequireStaff())
	api.POST("/withdrawals/:id/notes", withdrawalController.AddNote, middleware.RequireStaff())
}

// controllers/staff_controller.go
package controllers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyldo/vyldo_backend/models"
	"github.com/vyldo/vyldo_backend/repositories"
	"github.com/vyldo/vyldo_backend/services"
)

// StaffController handles staff availability and the admin roster
type StaffController struct {
	availability *services.AvailabilityService
	users        *repositories.UserRepository
}

// NewStaffController creates a new staff controller
func NewStaffController(availability *services.AvailabilityService, users *repositories.UserRepository) *StaffController {
	return &StaffController{availability: availability, users: users}
}

// GetAvailability returns the caller's availability row
func (c *StaffController) GetAvailability(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}
	if !user.IsStaff() {
		return ctx.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "Staff access required",
		})
	}

	availability, err := c.availability.Get(context.Background(), user.ID)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Availability retrieved successfully",
		Data:    availability,
	})
}

// SetStaffAvailability toggles a staff member's availability. Staff can
// only toggle themselves; admins can toggle or lock anyone. Going
// unavailable reassigns the member's open withdrawals and tickets.
func (c *StaffController) SetStaffAvailability(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	targetID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid staff ID",
		})
	}

	var req models.SetAvailabilityRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	resp, err := c.availability.SetAvailability(context.Background(), user, targetID, &req)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Availability updated",
		Data:    resp,
	})
}

// Roster returns every staff member's availability and task stats. Admin
// only.
func (c *StaffController) Roster(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	roster, err := c.availability.Roster(context.Background(), user)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Roster retrieved successfully",
		Data:    roster,
	})
}

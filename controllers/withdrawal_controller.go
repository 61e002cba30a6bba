// controllers/withdrawal_controller.go
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

// WithdrawalController handles withdrawal requests and staff processing
type WithdrawalController struct {
	withdrawals *services.WithdrawalService
	users       *repositories.UserRepository
}

// NewWithdrawalController creates a new withdrawal controller
func NewWithdrawalController(withdrawals *services.WithdrawalService, users *repositories.UserRepository) *WithdrawalController {
	return &WithdrawalController{withdrawals: withdrawals, users: users}
}

// RequestWithdrawal debits the caller's balance and queues a withdrawal
func (c *WithdrawalController) RequestWithdrawal(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	var req models.WithdrawalRequest
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

	withdrawal, err := c.withdrawals.Request(context.Background(), user, &req)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Withdrawal requested successfully",
		Data:    withdrawal,
	})
}

// ListWithdrawals returns withdrawals for staff review. Supports status and
// assignee query filters.
func (c *WithdrawalController) ListWithdrawals(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	withdrawals, err := c.withdrawals.List(context.Background(), user, ctx.QueryParam("status"), ctx.QueryParam("assignee"))
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawals retrieved successfully",
		Data:    withdrawals,
	})
}

// ListMyWithdrawals returns the caller's own withdrawal history
func (c *WithdrawalController) ListMyWithdrawals(ctx echo.Context) error {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		return ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
	}

	withdrawals, err := c.withdrawals.ListMine(context.Background(), user)
	if err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawals retrieved successfully",
		Data:    withdrawals,
	})
}

// AcquireLock takes the advisory processing lock on a withdrawal
func (c *WithdrawalController) AcquireLock(ctx echo.Context) error {
	user, withdrawalID, ok := c.staffAndID(ctx)
	if !ok {
		return nil
	}

	token, lockErr := c.withdrawals.AcquireLock(context.Background(), user, withdrawalID)
	if lockErr != nil {
		return respondError(ctx, lockErr)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Lock acquired",
		Data:    map[string]string{"lockToken": token},
	})
}

// ReleaseLock releases a previously acquired processing lock
func (c *WithdrawalController) ReleaseLock(ctx echo.Context) error {
	user, withdrawalID, ok := c.staffAndID(ctx)
	if !ok {
		return nil
	}

	var body struct {
		LockToken string `json:"lockToken"`
	}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request",
		})
	}

	if err := c.withdrawals.ReleaseLock(context.Background(), user, withdrawalID, body.LockToken); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Lock released",
	})
}

// ProcessWithdrawal approves or rejects a withdrawal
func (c *WithdrawalController) ProcessWithdrawal(ctx echo.Context) error {
	user, withdrawalID, ok := c.staffAndID(ctx)
	if !ok {
		return nil
	}

	var req models.ProcessWithdrawalRequest
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

	withdrawal, processErr := c.withdrawals.Process(context.Background(), user, withdrawalID, &req)
	if processErr != nil {
		return respondError(ctx, processErr)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal processed successfully",
		Data:    withdrawal,
	})
}

// AddNote appends a staff note to a withdrawal
func (c *WithdrawalController) AddNote(ctx echo.Context) error {
	user, withdrawalID, ok := c.staffAndID(ctx)
	if !ok {
		return nil
	}

	var body struct {
		Content string `json:"content" validate:"required"`
	}
	if err := ctx.Bind(&body); err != nil || body.Content == "" {
		return ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Note content is required",
		})
	}

	if err := c.withdrawals.AddNote(context.Background(), user, withdrawalID, body.Content); err != nil {
		return respondError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Note added",
	})
}

// staffAndID resolves the caller and the withdrawal ID path param, writing
// the error response itself when either fails.
func (c *WithdrawalController) staffAndID(ctx echo.Context) (*models.User, primitive.ObjectID, bool) {
	user, err := currentUser(ctx, c.users)
	if err != nil {
		_ = ctx.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Unauthorized",
		})
		return nil, primitive.NilObjectID, false
	}

	withdrawalID, err := primitive.ObjectIDFromHex(ctx.Param("id"))
	if err != nil {
		_ = ctx.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal ID",
		})
		return nil, primitive.NilObjectID, false
	}

	return user, withdrawalID, true
}

package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vyldo/vyldo_backend/middleware"
	"github.com/vyldo/vyldo_backend/models"
	"github.com/vyldo/vyldo_backend/repositories"
)

// statusFor maps domain errors onto HTTP status codes so every controller
// reports failures the same way.
func statusFor(err error) int {
	switch {
	case models.IsValidation(err),
		errors.Is(err, models.ErrInvalidRequirements),
		errors.Is(err, models.ErrRejectionReason):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrGigNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrWithdrawalNotFound),
		errors.Is(err, models.ErrTicketNotFound),
		errors.Is(err, models.ErrStaffNotFound),
		errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotPermitted),
		errors.Is(err, models.ErrLockedByAdmin),
		errors.Is(err, models.ErrUserSuspended):
		return http.StatusForbidden
	case errors.Is(err, models.ErrDuplicatePayment),
		errors.Is(err, models.ErrAlreadyProcessed),
		errors.Is(err, models.ErrLockConflict),
		errors.Is(err, models.ErrTicketClosed),
		errors.Is(err, models.ErrOrderNotPaid),
		errors.Is(err, models.ErrMemoUnavailable):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientBalance),
		errors.Is(err, models.ErrPackageUnavailable),
		errors.Is(err, models.ErrUnknownMemo),
		errors.Is(err, models.ErrPaymentVerificationFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx echo.Context, err error) error {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	return ctx.JSON(status, models.Response{
		Status:  status,
		Message: message,
	})
}

// currentUser loads the authenticated user from the database using the JWT
// claims set by the auth middleware.
func currentUser(ctx echo.Context, users *repositories.UserRepository) (*models.User, error) {
	claims := middleware.GetUserFromToken(ctx)
	if claims == nil {
		return nil, errors.New("unauthorized")
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, models.ErrUserNotFound
	}

	user, err := users.FindByID(context.Background(), userID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

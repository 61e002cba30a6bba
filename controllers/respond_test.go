package controllers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vyldo/vyldo_backend/models"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.NewValidationError("bad input"), http.StatusBadRequest},
		{"empty requirements", models.ErrInvalidRequirements, http.StatusBadRequest},
		{"order not found", models.ErrOrderNotFound, http.StatusNotFound},
		{"not permitted", models.ErrNotPermitted, http.StatusForbidden},
		{"locked by admin", models.ErrLockedByAdmin, http.StatusForbidden},
		{"duplicate payment", models.ErrDuplicatePayment, http.StatusConflict},
		{"already processed", models.ErrAlreadyProcessed, http.StatusConflict},
		{"lock conflict", models.ErrLockConflict, http.StatusConflict},
		{"insufficient balance", models.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"verification failed", models.ErrPaymentVerificationFailed, http.StatusUnprocessableEntity},
		{"oracle down", models.ErrOracleUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, statusFor(tc.err))
		})
	}
}

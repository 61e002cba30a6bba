package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyldo/vyldo_backend/models"
)

func TestFeePercentageFor(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		want  float64
	}{
		{"lowest tier floor", 1, 9},
		{"lowest tier", 1500, 9},
		{"just below second tier", 1999.999, 9},
		{"second tier floor", 2000, 8},
		{"second tier", 3500, 8},
		{"third tier floor", 5000, 7},
		{"just below top tier", 8999.999, 7},
		{"top tier floor", 9000, 6},
		{"large price", 250000, 6},
		{"below one falls back to default", 0.5, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FeePercentageFor(tt.price))
		})
	}
}

func TestComputeFee(t *testing.T) {
	breakdown, err := ComputeFee(2500)
	require.NoError(t, err)

	assert.Equal(t, 2500.0, breakdown.Price)
	assert.Equal(t, 8.0, breakdown.FeePercentage)
	assert.Equal(t, 200.0, breakdown.PlatformFee)
	assert.Equal(t, 2300.0, breakdown.SellerEarnings)
}

func TestComputeFeeSplitIsExact(t *testing.T) {
	// Both halves are persisted, so the split must reassemble into the
	// price.
	prices := []float64{1, 19.99, 333.333, 1999.999, 2000, 4999.5, 7250.125, 9000, 123456.789}

	for _, price := range prices {
		breakdown, err := ComputeFee(price)
		require.NoError(t, err)
		assert.InDelta(t, price, breakdown.PlatformFee+breakdown.SellerEarnings, 1e-9, "price %v", price)
		assert.Greater(t, breakdown.PlatformFee, 0.0)
		assert.Less(t, breakdown.PlatformFee, price)
	}
}

func TestComputeFeeRejectsNonPositive(t *testing.T) {
	for _, price := range []float64{0, -1, -1000} {
		_, err := ComputeFee(price)
		require.Error(t, err)
		assert.True(t, models.IsValidation(err))
	}
}

func TestRoundAmount(t *testing.T) {
	assert.Equal(t, 0.001, RoundAmount(0.0009999))
	assert.Equal(t, 12.346, RoundAmount(12.34567))
	assert.Equal(t, 12.345, RoundAmount(12.3454))
	assert.Equal(t, 100.0, RoundAmount(100))
}

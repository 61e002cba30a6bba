// utils/fees.go
package utils

import (
	"math"

	"github.com/vyldo/vyldo_backend/models"
)

// Platform fee tiers. Lower bound inclusive, upper bound exclusive; prices
// below 1 fall through to the default 9%.
var feeTiers = []struct {
	min, max   float64
	percentage float64
}{
	{1, 2000, 9},
	{2000, 5000, 8},
	{5000, 9000, 7},
	{9000, math.Inf(1), 6},
}

const defaultFeePercentage = 9

// FeePercentageFor returns the platform fee percentage for a package price.
func FeePercentageFor(price float64) float64 {
	for _, tier := range feeTiers {
		if price >= tier.min && price < tier.max {
			return tier.percentage
		}
	}
	return defaultFeePercentage
}

// ComputeFee splits a package price into the platform fee and seller
// earnings. Only the fee is rounded (3 decimal places, matching on-chain
// amount precision); earnings are derived by subtraction so that
// platformFee + sellerEarnings == price holds exactly.
func ComputeFee(price float64) (models.FeeBreakdown, error) {
	if price <= 0 {
		return models.FeeBreakdown{}, models.NewValidationError("price must be greater than zero")
	}

	percentage := FeePercentageFor(price)
	platformFee := RoundAmount(price * percentage / 100)
	sellerEarnings := price - platformFee

	return models.FeeBreakdown{
		Price:          price,
		PlatformFee:    platformFee,
		SellerEarnings: sellerEarnings,
		FeePercentage:  percentage,
	}, nil
}

// RoundAmount rounds a monetary amount to 3 decimal places, the precision
// used by Hive transfer amounts.
func RoundAmount(amount float64) float64 {
	return math.Round(amount*1000) / 1000
}

// Package annuity provides common loan payment math.
package annuity

import (
	"math"

	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/mathutil"
)

// MonthlyRate converts an annual percentage rate to a monthly fractional rate.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / constants.MonthlyRateDivisor
}

// Payment calculates the constant periodic payment that retires the given
// outstanding principal plus interest over the remaining number of periods at
// the given monthly rate, using the standard amortization formula.
func Payment(outstanding, monthlyRate float64, remainingPeriods int) float64 {
	if remainingPeriods <= 0 {
		return 0
	}
	if monthlyRate == 0 {
		// For zero interest, simply divide the outstanding principal by the
		// remaining term
		return outstanding / float64(remainingPeriods)
	}

	power := math.Pow(1.00+monthlyRate, float64(remainingPeriods))
	return outstanding * monthlyRate * power / (power - 1.00)
}

// Interest calculates the interest accrued over one period on the given
// interest-bearing balance. Negative balances accrue nothing.
func Interest(balance, monthlyRate float64) float64 {
	return mathutil.Max(0, balance) * monthlyRate
}

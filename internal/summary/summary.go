// Package summary reduces computed loan time series into per-offer comparison
// statistics.
package summary

import (
	"fmt"
	"sync"

	"github.com/iwvelando/loan-compare/internal/projection"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/mathutil"
	"go.uber.org/zap"
)

// OfferSummary holds the comparison statistics for one offer.
type OfferSummary struct {
	Name string `json:"name"`

	// Feasible reports whether the starting capital covers deposit plus
	// stamp duty for this offer.
	Feasible bool `json:"feasible"`

	// AverageRepayment is the mean monthly repayment among months with a
	// positive repayment.
	AverageRepayment float64 `json:"averageRepayment"`

	// InterestAndFeesAtHorizon is the cumulative interest plus fees at the
	// 10-year horizon, clamped to the last month for shorter loans.
	InterestAndFeesAtHorizon float64 `json:"interestAndFeesAtHorizon"`

	// PercentOwnedAtHorizon is the share of the property owned at the same
	// clamped horizon, counting the deposit.
	PercentOwnedAtHorizon float64 `json:"percentOwnedAtHorizon"`

	// TotalInterestAndFees is the cumulative interest plus fees over the
	// full loan horizon.
	TotalInterestAndFees float64 `json:"totalInterestAndFees"`

	// HorizonTruncated flags that the loan is shorter than the 10-year
	// horizon and the horizon statistics were clamped to the last month.
	HorizonTruncated bool `json:"horizonTruncated,omitempty"`
}

// Summarize reduces one computed time series into its comparison statistics.
func Summarize(name string, series *projection.TimeSeries, feasible bool) OfferSummary {
	result := OfferSummary{Name: name, Feasible: feasible}
	n := series.Len()
	if n == 0 {
		return result
	}

	horizon := constants.SummaryHorizonMonths
	if horizon > n-1 {
		horizon = n - 1
		result.HorizonTruncated = true
	}

	repaymentSum := 0.0
	repaymentMonths := 0
	interestAndFees := 0.0
	for i, row := range series.Rows {
		if mathutil.IsPositive(row.Repayment) {
			repaymentSum += row.Repayment
			repaymentMonths++
		}
		interestAndFees += row.Interest + row.Fee
		if i == horizon {
			result.InterestAndFeesAtHorizon = mathutil.Round(interestAndFees)
		}
	}
	if repaymentMonths > 0 {
		result.AverageRepayment = mathutil.Round(repaymentSum / float64(repaymentMonths))
	}
	result.TotalInterestAndFees = mathutil.Round(interestAndFees)

	deposit := series.Deposit()
	owned := series.Rows[n-1].PrincipalPaid + deposit
	if owned != 0 {
		result.PercentOwnedAtHorizon = (series.Rows[horizon].PrincipalPaid + deposit) / owned * constants.PercentageMultiplier
	}

	return result
}

// Compare computes and summarizes every offer against the shared project.
// Offers are independent pure computations, so they run concurrently; results
// come back in offer order.
func Compare(logger *zap.Logger, engine *projection.Engine, project projection.Project,
	offers []projection.Offer, forecast []projection.RateDelta, expenses []projection.Expense) []OfferSummary {
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]OfferSummary, len(offers))
	var wg sync.WaitGroup
	for i, offer := range offers {
		wg.Add(1)
		go func(i int, offer projection.Offer) {
			defer wg.Done()
			series, feasible := engine.Compute(project, offer, forecast, expenses)
			results[i] = Summarize(offer.Name, series, feasible)
		}(i, offer)
	}
	wg.Wait()

	logger.Debug(fmt.Sprintf("summarized %d offers", len(offers)),
		zap.String("op", "summary.Compare"),
	)
	return results
}

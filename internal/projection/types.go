// Package projection implements the loan cashflow projection engine: given a
// purchase project, a loan offer, a variable-rate forecast, and a schedule of
// future expenses it produces a deterministic monthly time series of
// principal, interest, fees, and offset balance, plus a feasibility flag.
package projection

import (
	"time"

	"github.com/iwvelando/loan-compare/pkg/constants"
)

// Project holds the purchase parameters shared by all offers.
type Project struct {
	PropertyValue  float64
	StartCapital   float64
	MonthlyIncome  float64
	MonthlyCosts   float64
	SettlementDate time.Time
	StampDutyRate  float64
}

// Offer holds one named loan scenario.
type Offer struct {
	Name              string
	Rate              float64
	BorrowedShare     float64
	LoanDurationYears int
	YearlyFees        float64
	WithFixedRate     bool
	FixedRate         float64
	FixedRateDuration int
	WithOffsetAccount bool
}

// TermMonths returns the loan horizon in months.
func (o Offer) TermMonths() int {
	return o.LoanDurationYears * constants.MonthsPerYear
}

// Principal returns the borrowed amount for the given property value.
func (o Offer) Principal(propertyValue float64) float64 {
	return propertyValue * o.BorrowedShare / constants.PercentageMultiplier
}

// RateDelta is a dated percentage-point adjustment to the baseline annual
// rate. Deltas are cumulative: each one shifts the rate from its date onward
// on top of all earlier deltas.
type RateDelta struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Expense is a dated one-off cost that reduces offset savings in the month it
// occurs.
type Expense struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Row is one month of the projected loan cashflow.
type Row struct {
	Date             time.Time
	PrincipalPaid    float64
	Offset           float64
	PrincipalPayment float64
	Interest         float64
	Fee              float64
	Repayment        float64
	Deposit          float64
	StampDuty        float64
}

// TimeSeries is the full monthly projection for one offer, one Row per month
// from settlement for the loan term.
type TimeSeries struct {
	Rows []Row
}

// Len returns the number of projected months.
func (ts *TimeSeries) Len() int {
	return len(ts.Rows)
}

// Deposit returns the one-time deposit paid at settlement.
func (ts *TimeSeries) Deposit() float64 {
	if len(ts.Rows) == 0 {
		return 0
	}
	return ts.Rows[0].Deposit
}

// Feasible reports whether the starting capital covers the deposit plus stamp
// duty without borrowing beyond the declared share.
func Feasible(project Project, offer Offer) bool {
	return project.StartCapital >= project.PropertyValue*
		(constants.PercentageMultiplier-offer.BorrowedShare+project.StampDutyRate)/constants.PercentageMultiplier
}

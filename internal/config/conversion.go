package config

import (
	"fmt"

	"github.com/iwvelando/loan-compare/internal/projection"
	"github.com/iwvelando/loan-compare/pkg/datetime"
)

// ProjectionProject converts the configured project into engine form. The
// configuration must already be validated.
func (conf *Configuration) ProjectionProject() (projection.Project, error) {
	settlement, err := datetime.ParseDate(conf.Project.SettlementDate)
	if err != nil {
		return projection.Project{}, fmt.Errorf("invalid settlementDate %q: %v", conf.Project.SettlementDate, err)
	}
	return projection.Project{
		PropertyValue:  conf.Project.PropertyValue,
		StartCapital:   conf.Project.StartCapital,
		MonthlyIncome:  conf.Project.MonthlyIncome,
		MonthlyCosts:   conf.Project.MonthlyCosts,
		SettlementDate: settlement,
		StampDutyRate:  conf.Project.StampDutyRate,
	}, nil
}

// ProjectionOffer converts one configured offer into engine form.
func (o Offer) ProjectionOffer() projection.Offer {
	offer := projection.Offer{
		Name:              o.Name,
		Rate:              o.Rate,
		BorrowedShare:     o.BorrowedShare,
		LoanDurationYears: o.LoanDuration,
		YearlyFees:        o.YearlyFees,
		WithFixedRate:     o.WithFixedRate,
		WithOffsetAccount: o.WithOffsetAccount,
	}
	if o.FixedRate != nil {
		offer.FixedRate = *o.FixedRate
	}
	if o.FixedRateDuration != nil {
		offer.FixedRateDuration = *o.FixedRateDuration
	}
	return offer
}

// ProjectionForecast converts the configured rate deltas into engine form.
func (conf *Configuration) ProjectionForecast() ([]projection.RateDelta, error) {
	return ProjectionDeltas(conf.RatesForecast)
}

// ProjectionExpenses converts the configured future expenses into engine form.
func (conf *Configuration) ProjectionExpenses() ([]projection.Expense, error) {
	return ProjectionExpenses(conf.FutureExpenses)
}

// ProjectionDeltas converts config rate deltas into engine form.
func ProjectionDeltas(deltas []RateDelta) ([]projection.RateDelta, error) {
	converted := make([]projection.RateDelta, 0, len(deltas))
	for _, delta := range deltas {
		date, err := datetime.ParseDate(delta.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid rate delta date %q: %v", delta.Date, err)
		}
		converted = append(converted, projection.RateDelta{Date: date, Value: delta.Value})
	}
	return converted, nil
}

// ProjectionExpenses converts config expenses into engine form.
func ProjectionExpenses(expenses []Expense) ([]projection.Expense, error) {
	converted := make([]projection.Expense, 0, len(expenses))
	for _, expense := range expenses {
		date, err := datetime.ParseDate(expense.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid expense date %q: %v", expense.Date, err)
		}
		converted = append(converted, projection.Expense{Date: date, Value: expense.Value})
	}
	return converted, nil
}

package projection

import (
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/loan-compare/pkg/datetime"
)

// ErrIncompleteInput signals that a required project or offer field is
// missing from an invocation bundle. Callers check for it with errors.Is; it
// is an absence-of-result signal, not a failure.
var ErrIncompleteInput = errors.New("incomplete input")

// ErrConfiguration signals an invalid offer configuration, e.g. a fixed-rate
// offer without the fixed-rate fields.
var ErrConfiguration = errors.New("invalid configuration")

// Input is the flattened invocation bundle: the project fields merged with
// one offer's fields plus the rate forecast and expense schedule. Required
// fields are pointers so that an absent field is distinguishable from zero.
type Input struct {
	PropertyValue     *float64    `json:"propertyValue"`
	Rate              *float64    `json:"rate"`
	BorrowedShare     *float64    `json:"borrowedShare"`
	LoanDuration      *int        `json:"loanDuration"`
	StartCapital      *float64    `json:"startCapital"`
	StampDutyRate     *float64    `json:"stampDutyRate"`
	MonthlyIncome     *float64    `json:"monthlyIncome"`
	MonthlyCosts      *float64    `json:"monthlyCosts"`
	YearlyFees        *float64    `json:"yearlyFees"`
	SettlementDate    *string     `json:"settlementDate"`
	Name              string      `json:"name,omitempty"`
	WithFixedRate     bool        `json:"withFixedRate,omitempty"`
	FixedRate         *float64    `json:"fixedRate,omitempty"`
	FixedRateDuration *int        `json:"fixedRateDuration,omitempty"`
	WithOffsetAccount bool        `json:"withOffsetAccount,omitempty"`
	RatesForecast     []RateDelta `json:"ratesForecast,omitempty"`
	FutureExpenses    []Expense   `json:"futureExpenses,omitempty"`
}

// Evaluate validates the bundle and runs the engine. Missing required fields
// yield ErrIncompleteInput without invoking the engine; out-of-range values
// and a fixed-rate offer missing its fixed-rate fields yield ErrConfiguration.
func (e *Engine) Evaluate(input Input) (*TimeSeries, bool, error) {
	missing := input.missingFields()
	if len(missing) > 0 {
		return nil, false, fmt.Errorf("%w: missing %v", ErrIncompleteInput, missing)
	}
	if input.WithFixedRate && (input.FixedRate == nil || input.FixedRateDuration == nil) {
		return nil, false, fmt.Errorf("%w: fixedRate and fixedRateDuration are required when withFixedRate is set", ErrConfiguration)
	}
	if err := input.validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	settlement, err := datetime.ParseDate(*input.SettlementDate)
	if err != nil {
		return nil, false, fmt.Errorf("%w: invalid settlementDate %q", ErrConfiguration, *input.SettlementDate)
	}

	project, offer := input.split(settlement)
	series, feasible := e.Compute(project, offer, input.RatesForecast, input.FutureExpenses)
	return series, feasible, nil
}

func (input Input) missingFields() []string {
	var missing []string
	if input.PropertyValue == nil {
		missing = append(missing, "propertyValue")
	}
	if input.Rate == nil {
		missing = append(missing, "rate")
	}
	if input.BorrowedShare == nil {
		missing = append(missing, "borrowedShare")
	}
	if input.LoanDuration == nil {
		missing = append(missing, "loanDuration")
	}
	if input.StartCapital == nil {
		missing = append(missing, "startCapital")
	}
	if input.StampDutyRate == nil {
		missing = append(missing, "stampDutyRate")
	}
	if input.MonthlyIncome == nil {
		missing = append(missing, "monthlyIncome")
	}
	if input.MonthlyCosts == nil {
		missing = append(missing, "monthlyCosts")
	}
	if input.YearlyFees == nil {
		missing = append(missing, "yearlyFees")
	}
	if input.SettlementDate == nil {
		missing = append(missing, "settlementDate")
	}
	return missing
}

// validate checks the numeric bounds of a complete bundle. Every required
// field must already be present.
func (input Input) validate() error {
	if *input.PropertyValue <= 0 {
		return fmt.Errorf("propertyValue must be positive, got %.2f", *input.PropertyValue)
	}
	if *input.StartCapital < 0 {
		return fmt.Errorf("startCapital must not be negative, got %.2f", *input.StartCapital)
	}
	if *input.StampDutyRate < 0 || *input.StampDutyRate > 100 {
		return fmt.Errorf("stampDutyRate must be between 0 and 100, got %.2f", *input.StampDutyRate)
	}
	if *input.Rate < 0 || *input.Rate > 100 {
		return fmt.Errorf("rate must be between 0 and 100, got %.2f", *input.Rate)
	}
	if *input.BorrowedShare < 0 || *input.BorrowedShare > 100 {
		return fmt.Errorf("borrowedShare must be between 0 and 100, got %.2f", *input.BorrowedShare)
	}
	if *input.LoanDuration < 1 {
		return fmt.Errorf("loanDuration must be at least 1 year, got %d", *input.LoanDuration)
	}
	if *input.YearlyFees < 0 {
		return fmt.Errorf("yearlyFees must not be negative, got %.2f", *input.YearlyFees)
	}
	return nil
}

func (input Input) split(settlement time.Time) (Project, Offer) {
	project := Project{
		PropertyValue:  *input.PropertyValue,
		StartCapital:   *input.StartCapital,
		MonthlyIncome:  *input.MonthlyIncome,
		MonthlyCosts:   *input.MonthlyCosts,
		SettlementDate: settlement,
		StampDutyRate:  *input.StampDutyRate,
	}
	offer := Offer{
		Name:              input.Name,
		Rate:              *input.Rate,
		BorrowedShare:     *input.BorrowedShare,
		LoanDurationYears: *input.LoanDuration,
		YearlyFees:        *input.YearlyFees,
		WithFixedRate:     input.WithFixedRate,
		WithOffsetAccount: input.WithOffsetAccount,
	}
	if input.FixedRate != nil {
		offer.FixedRate = *input.FixedRate
	}
	if input.FixedRateDuration != nil {
		offer.FixedRateDuration = *input.FixedRateDuration
	}
	return project, offer
}

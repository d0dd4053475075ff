package projection

import (
	"errors"
	"testing"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }
func str(v string) *string   { return &v }

func completeInput() Input {
	return Input{
		PropertyValue:  f64(780000),
		Rate:           f64(3.64),
		BorrowedShare:  f64(70),
		LoanDuration:   i(30),
		StartCapital:   f64(300000),
		StampDutyRate:  f64(5.5),
		MonthlyIncome:  f64(13500),
		MonthlyCosts:   f64(6000),
		YearlyFees:     f64(395),
		SettlementDate: str("2022-11-01"),
	}
}

func TestEvaluateComplete(t *testing.T) {
	engine := NewEngine(nil, nil)

	series, feasible, err := engine.Evaluate(completeInput())

	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if !feasible {
		t.Error("expected feasible result")
	}
	if series.Len() != 360 {
		t.Errorf("got %d months, expected 360", series.Len())
	}
}

func TestEvaluateIncompleteInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"Missing property value", func(in *Input) { in.PropertyValue = nil }},
		{"Missing rate", func(in *Input) { in.Rate = nil }},
		{"Missing borrowed share", func(in *Input) { in.BorrowedShare = nil }},
		{"Missing loan duration", func(in *Input) { in.LoanDuration = nil }},
		{"Missing start capital", func(in *Input) { in.StartCapital = nil }},
		{"Missing stamp duty rate", func(in *Input) { in.StampDutyRate = nil }},
		{"Missing monthly income", func(in *Input) { in.MonthlyIncome = nil }},
		{"Missing monthly costs", func(in *Input) { in.MonthlyCosts = nil }},
		{"Missing yearly fees", func(in *Input) { in.YearlyFees = nil }},
		{"Missing settlement date", func(in *Input) { in.SettlementDate = nil }},
	}

	engine := NewEngine(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := completeInput()
			tt.mutate(&input)

			series, feasible, err := engine.Evaluate(input)

			if !errors.Is(err, ErrIncompleteInput) {
				t.Errorf("expected ErrIncompleteInput, got %v", err)
			}
			if series != nil || feasible {
				t.Error("expected the empty sentinel pair alongside ErrIncompleteInput")
			}
		})
	}
}

func TestEvaluateOutOfRangeInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"Negative loan duration", func(in *Input) { in.LoanDuration = i(-1) }},
		{"Zero loan duration", func(in *Input) { in.LoanDuration = i(0) }},
		{"Zero property value", func(in *Input) { in.PropertyValue = f64(0) }},
		{"Negative start capital", func(in *Input) { in.StartCapital = f64(-1) }},
		{"Rate above 100", func(in *Input) { in.Rate = f64(364) }},
		{"Negative rate", func(in *Input) { in.Rate = f64(-1) }},
		{"Borrowed share above 100", func(in *Input) { in.BorrowedShare = f64(170) }},
		{"Stamp duty rate above 100", func(in *Input) { in.StampDutyRate = f64(105) }},
		{"Negative yearly fees", func(in *Input) { in.YearlyFees = f64(-395) }},
	}

	engine := NewEngine(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := completeInput()
			tt.mutate(&input)

			series, feasible, err := engine.Evaluate(input)

			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
			if series != nil || feasible {
				t.Error("expected no result alongside ErrConfiguration")
			}
		})
	}
}

func TestEvaluateFixedRateInvariant(t *testing.T) {
	engine := NewEngine(nil, nil)
	input := completeInput()
	input.WithFixedRate = true
	input.FixedRate = f64(2.5)
	// fixedRateDuration deliberately absent

	_, _, err := engine.Evaluate(input)

	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestEvaluateFixedRateComplete(t *testing.T) {
	engine := NewEngine(nil, nil)
	input := completeInput()
	input.WithFixedRate = true
	input.FixedRate = f64(2.5)
	input.FixedRateDuration = i(2)

	series, _, err := engine.Evaluate(input)

	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if series.Len() != 360 {
		t.Errorf("got %d months, expected 360", series.Len())
	}
}

func TestEvaluateInvalidSettlementDate(t *testing.T) {
	engine := NewEngine(nil, nil)
	input := completeInput()
	input.SettlementDate = str("01/11/2022")

	_, _, err := engine.Evaluate(input)

	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for malformed date, got %v", err)
	}
}

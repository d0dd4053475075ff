package projection

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/iwvelando/loan-compare/internal/rates"
	"github.com/iwvelando/loan-compare/pkg/datetime"
)

var errStub = errors.New("stub failure")

type stubSource struct {
	changes []rates.Change
	err     error
}

func (s *stubSource) Changes() ([]rates.Change, error) {
	return s.changes, s.err
}

func fixedNow(dateStr string) func() time.Time {
	return func() time.Time {
		return datetime.MustParseTime(datetime.DateLayout, dateStr)
	}
}

func TestMonthlyRatesFlat(t *testing.T) {
	engine := NewEngine(nil, nil)
	settlement := datetime.MustParseTime(datetime.DateLayout, "2023-01-01")
	period := datetime.MonthSequence(settlement, 24)
	offer := Offer{Name: "flat", Rate: 5, LoanDurationYears: 2}

	monthly := engine.MonthlyRates(period, offer, settlement, nil)

	if len(monthly) != 24 {
		t.Fatalf("got %d months, expected 24", len(monthly))
	}
	expected := 5.0 / 1200
	for i, rate := range monthly {
		if math.Abs(rate-expected) > 1e-12 {
			t.Errorf("month %d rate = %v, expected %v", i, rate, expected)
		}
	}
}

func TestMonthlyRatesDeltaSteps(t *testing.T) {
	engine := NewEngine(nil, nil)
	settlement := datetime.MustParseTime(datetime.DateLayout, "2023-01-01")
	period := datetime.MonthSequence(settlement, 12)
	offer := Offer{Name: "steps", Rate: 4, LoanDurationYears: 1}
	forecast := []RateDelta{
		{Date: datetime.MustParseTime(datetime.DateLayout, "2023-04-01"), Value: 0.25},
		{Date: datetime.MustParseTime(datetime.DateLayout, "2023-08-01"), Value: 0.50},
	}

	monthly := engine.MonthlyRates(period, offer, settlement, forecast)

	tests := []struct {
		month    int
		expected float64
	}{
		{0, 4.0},  // before first delta
		{2, 4.0},  // last month before first delta
		{3, 4.25}, // first delta applies
		{6, 4.25}, // held until next delta
		{7, 4.75}, // deltas accumulate
		{11, 4.75},
	}
	for _, tt := range tests {
		expected := tt.expected / 1200
		if math.Abs(monthly[tt.month]-expected) > 1e-12 {
			t.Errorf("month %d rate = %v, expected %v", tt.month, monthly[tt.month], expected)
		}
	}
}

func TestMonthlyRatesSameDateDeltasSum(t *testing.T) {
	engine := NewEngine(nil, nil)
	settlement := datetime.MustParseTime(datetime.DateLayout, "2023-01-01")
	period := datetime.MonthSequence(settlement, 6)
	offer := Offer{Name: "same-date", Rate: 4, LoanDurationYears: 1}
	forecast := []RateDelta{
		{Date: datetime.MustParseTime(datetime.DateLayout, "2023-03-01"), Value: 0.25},
		{Date: datetime.MustParseTime(datetime.DateLayout, "2023-03-01"), Value: 0.25},
	}

	monthly := engine.MonthlyRates(period, offer, settlement, forecast)

	expected := 4.5 / 1200
	if math.Abs(monthly[2]-expected) > 1e-12 {
		t.Errorf("month 2 rate = %v, expected %v (same-date deltas must sum)", monthly[2], expected)
	}
}

func TestMonthlyRatesFixedRateOverride(t *testing.T) {
	engine := NewEngine(nil, nil)
	settlement := datetime.MustParseTime(datetime.DateLayout, "2023-01-01")
	period := datetime.MonthSequence(settlement, 48)
	offer := Offer{
		Name:              "fixed",
		Rate:              5,
		LoanDurationYears: 4,
		WithFixedRate:     true,
		FixedRate:         2,
		FixedRateDuration: 2,
	}
	forecast := []RateDelta{
		{Date: datetime.MustParseTime(datetime.DateLayout, "2023-06-01"), Value: 0.75},
	}

	monthly := engine.MonthlyRates(period, offer, settlement, forecast)

	for i := 0; i < 24; i++ {
		if monthly[i] != 2.0/1200 {
			t.Errorf("month %d rate = %v, expected fixed %v", i, monthly[i], 2.0/1200)
		}
	}
	// After the window the variable rate plus the accumulated delta applies.
	expected := (5.0 + 0.75) / 1200
	for i := 24; i < 48; i++ {
		if math.Abs(monthly[i]-expected) > 1e-12 {
			t.Errorf("month %d rate = %v, expected %v after fixed window", i, monthly[i], expected)
		}
	}
}

func TestMonthlyRatesIdempotent(t *testing.T) {
	engine := NewEngine(nil, &stubSource{changes: []rates.Change{
		{EffectiveDate: datetime.MustParseTime(datetime.DateLayout, "2023-02-07"), Value: 0.25},
	}}).WithNow(fixedNow("2024-06-15"))
	settlement := datetime.MustParseTime(datetime.DateLayout, "2023-01-01")
	period := datetime.MonthSequence(settlement, 24)
	offer := Offer{Name: "idempotent", Rate: 4.5, LoanDurationYears: 2}
	forecast := []RateDelta{
		{Date: datetime.MustParseTime(datetime.DateLayout, "2024-09-01"), Value: -0.25},
	}

	first := engine.MonthlyRates(period, offer, settlement, forecast)
	second := engine.MonthlyRates(period, offer, settlement, forecast)

	if len(first) != len(second) {
		t.Fatalf("series lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("month %d differs between runs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestHistoricalDeltasRebaseline(t *testing.T) {
	changes := []rates.Change{
		{EffectiveDate: datetime.MustParseTime(datetime.DateLayout, "2022-12-07"), Value: 0.25},
		{EffectiveDate: datetime.MustParseTime(datetime.DateLayout, "2023-02-08"), Value: 0.25},
		{EffectiveDate: datetime.MustParseTime(datetime.DateLayout, "2023-05-03"), Value: 0.25},
	}
	settlement := datetime.MustParseTime(datetime.DateLayout, "2023-01-01")

	deltas := HistoricalDeltas(changes, settlement)

	if len(deltas) != 3 {
		t.Fatalf("got %d deltas, expected 3", len(deltas))
	}

	// Cumulative adjustment at settlement must be zero: the first change
	// lands on the settlement month and is normalized away.
	cumulative := 0.0
	for _, delta := range deltas {
		if !delta.Date.After(settlement) {
			cumulative += delta.Value
		}
	}
	if math.Abs(cumulative) > 1e-12 {
		t.Errorf("cumulative adjustment at settlement = %v, expected 0", cumulative)
	}

	// Later changes keep their full effect relative to the settlement
	// baseline.
	total := 0.0
	for _, delta := range deltas {
		total += delta.Value
	}
	if math.Abs(total-0.5) > 1e-12 {
		t.Errorf("cumulative adjustment after all changes = %v, expected 0.5", total)
	}
}

func TestMonthlyRatesWithHistoricalSource(t *testing.T) {
	source := &stubSource{changes: []rates.Change{
		{EffectiveDate: datetime.MustParseTime(datetime.DateLayout, "2022-12-07"), Value: 0.25},
		{EffectiveDate: datetime.MustParseTime(datetime.DateLayout, "2023-03-08"), Value: 0.50},
	}}
	engine := NewEngine(nil, source).WithNow(fixedNow("2024-01-15"))
	settlement := datetime.MustParseTime(datetime.DateLayout, "2023-01-01")
	period := datetime.MonthSequence(settlement, 12)
	offer := Offer{Name: "history", Rate: 4, LoanDurationYears: 1}

	monthly := engine.MonthlyRates(period, offer, settlement, nil)

	// The December change lands on the settlement month and is normalized
	// away; the March change takes effect from April.
	for i := 0; i < 3; i++ {
		if math.Abs(monthly[i]-4.0/1200) > 1e-12 {
			t.Errorf("month %d rate = %v, expected baseline %v", i, monthly[i], 4.0/1200)
		}
	}
	for i := 3; i < 12; i++ {
		if math.Abs(monthly[i]-4.5/1200) > 1e-12 {
			t.Errorf("month %d rate = %v, expected shifted %v", i, monthly[i], 4.5/1200)
		}
	}
}

func TestMonthlyRatesCurrentMonthSettlementUsesHistory(t *testing.T) {
	// Settlement earlier in the current month still counts as the past: a
	// change that already landed this month must show up in the series.
	source := &stubSource{changes: []rates.Change{
		{EffectiveDate: datetime.MustParseTime(datetime.DateLayout, "2024-06-05"), Value: 0.25},
	}}
	engine := NewEngine(nil, source).WithNow(fixedNow("2024-06-15"))
	settlement := datetime.MustParseTime(datetime.DateLayout, "2024-06-01")
	period := datetime.MonthSequence(settlement, 12)
	offer := Offer{Name: "current-month", Rate: 4, LoanDurationYears: 1}

	monthly := engine.MonthlyRates(period, offer, settlement, nil)

	if math.Abs(monthly[0]-4.0/1200) > 1e-12 {
		t.Errorf("month 0 rate = %v, expected baseline %v", monthly[0], 4.0/1200)
	}
	for i := 1; i < 12; i++ {
		if math.Abs(monthly[i]-4.25/1200) > 1e-12 {
			t.Errorf("month %d rate = %v, expected shifted %v", i, monthly[i], 4.25/1200)
		}
	}
}

func TestMonthlyRatesSourceFailureFallsBackToForecast(t *testing.T) {
	engine := NewEngine(nil, &stubSource{err: errStub}).WithNow(fixedNow("2024-01-15"))
	settlement := datetime.MustParseTime(datetime.DateLayout, "2023-01-01")
	period := datetime.MonthSequence(settlement, 12)
	offer := Offer{Name: "degraded", Rate: 4, LoanDurationYears: 1}

	monthly := engine.MonthlyRates(period, offer, settlement, nil)

	for i, rate := range monthly {
		if math.Abs(rate-4.0/1200) > 1e-12 {
			t.Errorf("month %d rate = %v, expected baseline despite source failure", i, rate)
		}
	}
}

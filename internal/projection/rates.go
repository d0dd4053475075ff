package projection

import (
	"fmt"
	"sort"
	"time"

	"github.com/iwvelando/loan-compare/internal/rates"
	"github.com/iwvelando/loan-compare/pkg/annuity"
	"github.com/iwvelando/loan-compare/pkg/datetime"
	"go.uber.org/zap"
)

// MonthlyRates builds the monthly interest-rate series over the given month
// period. The series starts flat at baseRate, steps at each forecast delta
// (deltas accumulate and hold until the next one), and is overridden by the
// flat fixed rate during the fixed-rate window when the offer carries one.
// When settlement is in the past, historical deltas synthesized from the rate
// source are applied ahead of the forecast ones.
func (e *Engine) MonthlyRates(period []time.Time, offer Offer, settlement time.Time, forecast []RateDelta) []float64 {
	deltas := make([]RateDelta, 0, len(forecast))
	if settlement.Before(datetime.DayStart(e.now())) && e.history != nil {
		changes, err := e.history.Changes()
		if err != nil {
			// The source stack is expected to fall back internally; a
			// residual failure means no historical data at all.
			e.logger.Warn("historical rate source unavailable, using forecast only",
				zap.String("op", "projection.MonthlyRates"),
				zap.Error(err),
			)
		} else {
			deltas = append(deltas, HistoricalDeltas(changes, settlement)...)
		}
	}
	deltas = append(deltas, forecast...)
	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].Date.Before(deltas[j].Date)
	})

	annual := make([]float64, len(period))
	for i := range annual {
		annual[i] = offer.Rate
	}

	// Piecewise-constant step series: accumulate deltas and hold the running
	// total forward for every month at or after each delta's date.
	cumulative := 0.0
	next := 0
	for i, month := range period {
		for next < len(deltas) && !deltas[next].Date.After(month) {
			cumulative += deltas[next].Value
			next++
		}
		annual[i] += cumulative
	}

	if offer.WithFixedRate {
		fixedEnd := settlement.AddDate(offer.FixedRateDuration, 0, 0).AddDate(0, 0, -1)
		for i, month := range period {
			if month.After(fixedEnd) {
				break
			}
			annual[i] = offer.FixedRate
		}
		e.logger.Debug(fmt.Sprintf("applied fixed rate %.2f%% through %s for offer %s",
			offer.FixedRate, fixedEnd.Format(datetime.DateLayout), offer.Name),
			zap.String("op", "projection.MonthlyRates"),
		)
	}

	monthly := make([]float64, len(annual))
	for i, rate := range annual {
		monthly[i] = annuity.MonthlyRate(rate)
	}
	return monthly
}

// HistoricalDeltas converts historical rate changes into forecast-style
// deltas. Each change takes effect on the month start following its effective
// date, and the sequence is re-baselined so its cumulative sum at the
// settlement date is zero: the offer's base rate is the actual rate at
// settlement, so only movement relative to that point matters.
func HistoricalDeltas(changes []rates.Change, settlement time.Time) []RateDelta {
	if len(changes) == 0 {
		return nil
	}

	deltas := make([]RateDelta, len(changes))
	for i, change := range changes {
		deltas[i] = RateDelta{
			Date:  datetime.NextMonthStart(change.EffectiveDate),
			Value: change.Value,
		}
	}
	sort.SliceStable(deltas, func(i, j int) bool {
		return deltas[i].Date.Before(deltas[j].Date)
	})

	// Cumulative value observed at or before settlement; subtracting it from
	// the first delta re-baselines the whole cumulative series.
	baseline := 0.0
	for _, delta := range deltas {
		if delta.Date.After(settlement) {
			break
		}
		baseline += delta.Value
	}
	deltas[0].Value -= baseline

	return deltas
}

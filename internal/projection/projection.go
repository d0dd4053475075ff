package projection

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-compare/internal/rates"
	"github.com/iwvelando/loan-compare/pkg/annuity"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/datetime"
	"github.com/iwvelando/loan-compare/pkg/mathutil"
	"go.uber.org/zap"
)

// Engine computes loan cashflow projections. The historical rate source is
// consulted only for settlement dates in the past; now is injectable for
// tests.
type Engine struct {
	logger  *zap.Logger
	history rates.Source
	now     func() time.Time
}

// NewEngine constructs an Engine. A nil history source disables historical
// rate reconstruction.
func NewEngine(logger *zap.Logger, history rates.Source) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger, history: history, now: time.Now}
}

// WithNow overrides the engine's clock. Intended for tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Compute produces the full monthly time series for one offer against the
// project, along with the feasibility flag.
func (e *Engine) Compute(project Project, offer Offer, forecast []RateDelta, expenses []Expense) (*TimeSeries, bool) {
	projector := e.NewProjector(project, offer, forecast, expenses)
	series := &TimeSeries{Rows: make([]Row, 0, projector.n)}
	for {
		row, ok := projector.Next()
		if !ok {
			break
		}
		series.Rows = append(series.Rows, row)
	}

	e.logger.Debug(fmt.Sprintf("computed %d-month projection for offer %s", series.Len(), offer.Name),
		zap.String("op", "projection.Compute"),
	)
	return series, Feasible(project, offer)
}

// Projector is the per-period state machine behind a projection. Each call to
// Next advances one month and yields that month's row; the carried state is
// the cumulative principal paid and the offset balance. A projector is not
// resumable across inputs; re-invoke NewProjector to restart.
type Projector struct {
	dates      []time.Time
	rates      []float64
	expenses   []float64
	principal  float64
	deposit    float64
	stampDuty  float64
	monthlyFee float64
	income     float64
	costs      float64
	withOffset bool

	n             int
	i             int
	principalPaid float64
	offset        float64
}

// NewProjector prepares the monthly rate and expense series and the initial
// state for the given project and offer.
func (e *Engine) NewProjector(project Project, offer Offer, forecast []RateDelta, expenses []Expense) *Projector {
	n := offer.TermMonths()
	settlement := datetime.MonthStart(project.SettlementDate)
	period := datetime.MonthSequence(settlement, n)

	upfrontShare := constants.PercentageMultiplier - offer.BorrowedShare + project.StampDutyRate
	startOffset := 0.0
	if offer.WithOffsetAccount {
		// May go negative: a shortfall shows up as a negative offset balance
		// rather than being rejected here.
		startOffset = project.StartCapital - project.PropertyValue*upfrontShare/constants.PercentageMultiplier
	}

	return &Projector{
		dates:      period,
		rates:      e.MonthlyRates(period, offer, settlement, forecast),
		expenses:   MonthlyExpenses(period, expenses),
		principal:  offer.Principal(project.PropertyValue),
		deposit:    project.PropertyValue * (constants.PercentageMultiplier - offer.BorrowedShare) / constants.PercentageMultiplier,
		stampDuty:  project.PropertyValue * project.StampDutyRate / constants.PercentageMultiplier,
		monthlyFee: offer.YearlyFees / constants.MonthsPerYear,
		income:     project.MonthlyIncome,
		costs:      project.MonthlyCosts,
		withOffset: offer.WithOffsetAccount,
		n:          n,
		offset:     startOffset,
	}
}

// Next advances the projector one month. It returns false once the loan
// horizon is exhausted.
func (p *Projector) Next() (Row, bool) {
	if p.i >= p.n {
		return Row{}, false
	}

	rate := p.rates[p.i]
	outstanding := p.principal - p.principalPaid

	// The annuity payment is recomputed every period against the current
	// outstanding principal and rate, so rate moves and extra repayments
	// reflow into a new flat payment for the remaining term.
	amortisationPayment := annuity.Payment(outstanding, rate, p.n-p.i)
	loanPayment := mathutil.Min(amortisationPayment, outstanding)

	// The offset balance only ever reduces the interest-bearing principal;
	// it never turns interest negative.
	interest := annuity.Interest(p.principal-p.offset-p.principalPaid, rate)

	// Fees stop once the loan is fully repaid.
	fee := 0.0
	if mathutil.IsPositive(loanPayment) {
		fee = p.monthlyFee
	}

	p.principalPaid += loanPayment - interest
	if p.withOffset {
		p.offset += p.income - loanPayment - p.costs - fee - p.expenses[p.i]
	}

	row := Row{
		Date:             p.dates[p.i],
		PrincipalPaid:    p.principalPaid,
		Offset:           p.offset,
		PrincipalPayment: loanPayment - interest,
		Interest:         interest,
		Fee:              fee,
		Repayment:        loanPayment + fee,
	}
	if p.i == 0 {
		row.Deposit = p.deposit
		row.StampDuty = p.stampDuty
	}

	p.i++
	return row, true
}

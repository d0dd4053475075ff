package projection

import (
	"time"

	"github.com/iwvelando/loan-compare/pkg/datetime"
)

// MonthlyExpenses densifies a sparse list of dated one-off expenses over the
// given month period. Expenses are aligned to the start of the month they
// fall in; months without an entry are zero. When several expenses land in
// the same month the last one wins.
func MonthlyExpenses(period []time.Time, expenses []Expense) []float64 {
	series := make([]float64, len(period))
	if len(expenses) == 0 {
		return series
	}

	byMonth := make(map[time.Time]float64, len(expenses))
	for _, expense := range expenses {
		byMonth[datetime.MonthStart(expense.Date)] = expense.Value
	}
	for i, month := range period {
		if value, ok := byMonth[month]; ok {
			series[i] = value
		}
	}
	return series
}

// Package output provides utilities for formatting and displaying projection
// and comparison results.
package output

import (
	"fmt"
	"strings"

	"github.com/iwvelando/loan-compare/internal/projection"
	"github.com/iwvelando/loan-compare/internal/summary"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ValidateFormat checks that the requested output format is supported.
func ValidateFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV:
		return nil
	default:
		return fmt.Errorf("invalid output format %q, expected %s or %s",
			format, constants.OutputFormatPretty, constants.OutputFormatCSV)
	}
}

// PrettySummaries outputs a human-readable comparison table, one row per
// offer.
func PrettySummaries(summaries []summary.OfferSummary) {
	p := message.NewPrinter(language.English)
	fmt.Printf("--- Offer comparison ---\n")
	fmt.Printf("%-20s | %-8s | %-14s | %-18s | %-12s | %-16s\n",
		"Offer", "Feasible", "Avg repayment", "Interest+fees 10y", "Owned 10y", "Total interest+fees")
	for _, s := range summaries {
		horizonNote := ""
		if s.HorizonTruncated {
			horizonNote = "*"
		}
		_, _ = p.Printf("%-20s | %-8t | $%-13.2f | $%-16.2f%s | %-11.1f%% | $%-15.2f\n",
			s.Name, s.Feasible, s.AverageRepayment, s.InterestAndFeesAtHorizon, horizonNote,
			s.PercentOwnedAtHorizon, s.TotalInterestAndFees)
	}
	for _, s := range summaries {
		if s.HorizonTruncated {
			fmt.Printf("* loan shorter than 10 years, horizon statistics clamped to final month\n")
			break
		}
	}
}

// CsvSummaries outputs the comparison table in comma-separated value format.
func CsvSummaries(summaries []summary.OfferSummary) {
	fmt.Printf(`"offer","feasible","average repayment","interest+fees at 10y","percent owned at 10y","total interest+fees","horizon truncated"`)
	fmt.Printf("\n")
	for _, s := range summaries {
		fmt.Printf(`"%s","%t","%.2f","%.2f","%.2f","%.2f","%t"`,
			s.Name, s.Feasible, s.AverageRepayment, s.InterestAndFeesAtHorizon,
			s.PercentOwnedAtHorizon, s.TotalInterestAndFees, s.HorizonTruncated)
		fmt.Printf("\n")
	}
}

// PrettySeries outputs a human-readable monthly time series for one offer.
func PrettySeries(name string, feasible bool, series *projection.TimeSeries) {
	p := message.NewPrinter(language.English)
	fmt.Printf("--- Projection for offer %s (feasible: %t) ---\n", name, feasible)
	fmt.Printf("%-8s | %-14s | %-13s | %-12s | %-10s | %-8s | %-12s\n",
		"Month", "Principal paid", "Offset", "Principal", "Interest", "Fee", "Repayment")
	for _, row := range series.Rows {
		_, _ = p.Printf("%s  | $%-13.2f | $%-12.2f | $%-11.2f | $%-9.2f | $%-7.2f | $%-11.2f\n",
			row.Date.Format(constants.MonthLayout), row.PrincipalPaid, row.Offset,
			row.PrincipalPayment, row.Interest, row.Fee, row.Repayment)
	}
}

// CsvSeries outputs the monthly time series in comma-separated value format.
func CsvSeries(series *projection.TimeSeries) {
	columns := []string{
		"month", "principal paid", "offset", "principal payment",
		"interest", "fee", "repayment", "deposit", "stamp duty",
	}
	fmt.Printf(`"%s"`, strings.Join(columns, `","`))
	fmt.Printf("\n")
	for _, row := range series.Rows {
		fmt.Printf(`"%s","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f"`,
			row.Date.Format(constants.MonthLayout), row.PrincipalPaid, row.Offset,
			row.PrincipalPayment, row.Interest, row.Fee, row.Repayment, row.Deposit, row.StampDuty)
		fmt.Printf("\n")
	}
}

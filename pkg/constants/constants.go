// Package constants provides shared constants for the loan-compare application.
package constants

// DateLayout is the format expected for dates in config files and is also the
// output date format.
const DateLayout = "2006-01-02"

// MonthLayout is the format used for month-granularity output.
const MonthLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// MonthlyRateDivisor converts an annual percentage rate to a monthly fraction
	MonthlyRateDivisor = PercentageMultiplier * MonthsPerYear

	// SummaryHorizonMonths is the month index used for the 10-year comparison
	// statistics (0-indexed, i.e. the 120th month)
	SummaryHorizonMonths = 119
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (256 KB)
	DefaultMaxBodySizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Package config defines the data structures related to configuration and
// includes functions for loading, parsing, and validating the config.
package config

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/spf13/viper"
)

// DateLayout is the format expected for dates in config files and is also the
// output date format.
const DateLayout = constants.DateLayout

// Configuration holds all configuration for loan-compare.
type Configuration struct {
	Project        Project
	Offers         []Offer
	RatesForecast  []RateDelta   `yaml:"ratesForecast,omitempty"`
	FutureExpenses []Expense     `yaml:"futureExpenses,omitempty"`
	Logging        LoggingConfig `yaml:"logging,omitempty"`
	Output         OutputConfig  `yaml:"output,omitempty"`
	Server         ServerConfig  `yaml:"server,omitempty"`
	Store          StoreConfig   `yaml:"store,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// ServerConfig holds options for the comparison API server.
type ServerConfig struct {
	Address         string `yaml:"address,omitempty"`
	RateFeedURL     string `yaml:"rateFeedUrl,omitempty"`
	RefreshSchedule string `yaml:"refreshSchedule,omitempty"` // cron spec, e.g. @daily
}

// StoreConfig selects the offer store backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // memory, csv, postgres
	Path    string `yaml:"path,omitempty"`    // csv backend file path
	DSN     string `yaml:"dsn,omitempty"`     // postgres backend connection string
}

// Project holds the shared purchase parameters independent of any offer.
type Project struct {
	PropertyValue  float64 `yaml:"propertyValue" json:"propertyValue"`
	StartCapital   float64 `yaml:"startCapital" json:"startCapital"`
	MonthlyIncome  float64 `yaml:"monthlyIncome" json:"monthlyIncome"`
	MonthlyCosts   float64 `yaml:"monthlyCosts" json:"monthlyCosts"`
	SettlementDate string  `yaml:"settlementDate,omitempty" json:"settlementDate,omitempty"`
	StampDutyRate  float64 `yaml:"stampDutyRate" json:"stampDutyRate"`
}

// Offer holds one named loan scenario.
type Offer struct {
	Name              string   `yaml:"name" json:"name"`
	Rate              float64  `yaml:"rate" json:"rate"`
	BorrowedShare     float64  `yaml:"borrowedShare" json:"borrowedShare"`
	LoanDuration      int      `yaml:"loanDuration" json:"loanDuration"`
	YearlyFees        float64  `yaml:"yearlyFees" json:"yearlyFees"`
	WithFixedRate     bool     `yaml:"withFixedRate,omitempty" json:"withFixedRate,omitempty"`
	FixedRate         *float64 `yaml:"fixedRate,omitempty" json:"fixedRate,omitempty"`
	FixedRateDuration *int     `yaml:"fixedRateDuration,omitempty" json:"fixedRateDuration,omitempty"`
	WithOffsetAccount bool     `yaml:"withOffsetAccount,omitempty" json:"withOffsetAccount,omitempty"`
}

// RateDelta is a dated percentage-point shift of the baseline annual rate.
type RateDelta struct {
	Date  string  `yaml:"date" json:"date"`
	Value float64 `yaml:"value" json:"value"`
}

// Expense is a dated one-off expense.
type Expense struct {
	Date  string  `yaml:"date" json:"date"`
	Value float64 `yaml:"value" json:"value"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.ApplyDefaults()

	return &configuration, nil
}

// ApplyDefaults fills in the defaulted fields: settlement defaults to today.
func (conf *Configuration) ApplyDefaults() {
	if conf.Project.SettlementDate == "" {
		conf.Project.SettlementDate = time.Now().Format(DateLayout)
	}
}

// Validate checks the whole configuration: the project bounds, every offer,
// and name uniqueness across offers.
func (conf *Configuration) Validate() error {
	if err := conf.Project.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(conf.Offers))
	for _, offer := range conf.Offers {
		if err := offer.Validate(); err != nil {
			return err
		}
		if seen[offer.Name] {
			return fmt.Errorf("duplicate offer name %q", offer.Name)
		}
		seen[offer.Name] = true
	}
	for _, delta := range conf.RatesForecast {
		if _, err := time.Parse(DateLayout, delta.Date); err != nil {
			return fmt.Errorf("invalid rate delta date %q: %v", delta.Date, err)
		}
	}
	for _, expense := range conf.FutureExpenses {
		if _, err := time.Parse(DateLayout, expense.Date); err != nil {
			return fmt.Errorf("invalid expense date %q: %v", expense.Date, err)
		}
	}
	return nil
}

// Validate checks the project bounds.
func (p Project) Validate() error {
	if p.PropertyValue <= 0 {
		return fmt.Errorf("propertyValue must be positive, got %.2f", p.PropertyValue)
	}
	if p.StartCapital < 0 {
		return fmt.Errorf("startCapital must not be negative, got %.2f", p.StartCapital)
	}
	if p.StampDutyRate < 0 || p.StampDutyRate > 100 {
		return fmt.Errorf("stampDutyRate must be between 0 and 100, got %.2f", p.StampDutyRate)
	}
	if _, err := time.Parse(DateLayout, p.SettlementDate); err != nil {
		return fmt.Errorf("invalid settlementDate %q: %v", p.SettlementDate, err)
	}
	return nil
}

// Validate checks the offer bounds and the fixed-rate invariant: a fixed-rate
// offer must declare both the fixed rate and its duration.
func (o Offer) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("offer name must not be empty")
	}
	if o.Rate < 0 || o.Rate > 100 {
		return fmt.Errorf("offer %s: rate must be between 0 and 100, got %.2f", o.Name, o.Rate)
	}
	if o.BorrowedShare < 0 || o.BorrowedShare > 100 {
		return fmt.Errorf("offer %s: borrowedShare must be between 0 and 100, got %.2f", o.Name, o.BorrowedShare)
	}
	if o.LoanDuration < 1 {
		return fmt.Errorf("offer %s: loanDuration must be at least 1 year, got %d", o.Name, o.LoanDuration)
	}
	if o.YearlyFees < 0 {
		return fmt.Errorf("offer %s: yearlyFees must not be negative, got %.2f", o.Name, o.YearlyFees)
	}
	if o.WithFixedRate && (o.FixedRate == nil || o.FixedRateDuration == nil) {
		return fmt.Errorf("offer %s: fixedRate and fixedRateDuration are required when withFixedRate is set", o.Name)
	}
	return nil
}

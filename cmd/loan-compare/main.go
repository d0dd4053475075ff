package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/internal/projection"
	"github.com/iwvelando/loan-compare/internal/rates"
	"github.com/iwvelando/loan-compare/internal/server"
	"github.com/iwvelando/loan-compare/internal/store"
	"github.com/iwvelando/loan-compare/internal/summary"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"github.com/iwvelando/loan-compare/pkg/output"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via -ldflags.
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	offerName := flag.String("offer", "", "print the full monthly time series for one offer instead of the comparison table")
	serve := flag.Bool("serve", false, "run the comparison API server")
	addr := flag.String("addr", "", "API server listen address override")
	flag.Parse()

	// Load environment overrides (e.g. DATABASE_URL) from an optional .env file.
	_ = godotenv.Load()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Historical rate stack: remote feed, bundled snapshot fallback, cached.
	rateCache := rates.NewDefaultSource(conf.Server.RateFeedURL, logger)
	engine := projection.NewEngine(logger, rateCache)

	if *serve {
		runServer(logger, conf, engine, rateCache, *addr)
		return
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = output.ValidateFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	project, err := conf.ProjectionProject()
	if err != nil {
		logger.Fatal("failed to parse project", zap.String("op", "main"), zap.Error(err))
	}
	forecast, err := conf.ProjectionForecast()
	if err != nil {
		logger.Fatal("failed to parse rates forecast", zap.String("op", "main"), zap.Error(err))
	}
	expenses, err := conf.ProjectionExpenses()
	if err != nil {
		logger.Fatal("failed to parse future expenses", zap.String("op", "main"), zap.Error(err))
	}

	if *offerName != "" {
		printSeries(logger, conf, engine, project, forecast, expenses, *offerName, outputFormat)
		return
	}

	offers := make([]projection.Offer, 0, len(conf.Offers))
	for _, offer := range conf.Offers {
		offers = append(offers, offer.ProjectionOffer())
	}
	summaries := summary.Compare(logger, engine, project, offers, forecast, expenses)

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettySummaries(summaries)
	case constants.OutputFormatCSV:
		output.CsvSummaries(summaries)
	}
}

func printSeries(logger *zap.Logger, conf *config.Configuration, engine *projection.Engine,
	project projection.Project, forecast []projection.RateDelta, expenses []projection.Expense,
	offerName, outputFormat string) {
	for _, offer := range conf.Offers {
		if offer.Name != offerName {
			continue
		}
		series, feasible := engine.Compute(project, offer.ProjectionOffer(), forecast, expenses)
		switch outputFormat {
		case constants.OutputFormatPretty:
			output.PrettySeries(offer.Name, feasible, series)
		case constants.OutputFormatCSV:
			output.CsvSeries(series)
		}
		return
	}
	logger.Fatal(fmt.Sprintf("no offer named %q in configuration", offerName),
		zap.String("op", "main"),
	)
}

func runServer(logger *zap.Logger, conf *config.Configuration, engine *projection.Engine,
	rateCache *rates.Cache, addrOverride string) {
	offers, err := store.Open(conf.Store)
	if err != nil {
		logger.Fatal("failed to open offer store",
			zap.String("op", "main.runServer"),
			zap.Error(err),
		)
	}

	// Seed the store with the offers declared in the config file.
	for _, offer := range conf.Offers {
		if err := offers.Put(offer); err != nil {
			logger.Fatal("failed to seed offer store",
				zap.String("op", "main.runServer"),
				zap.Error(err),
			)
		}
	}

	refreshSchedule := conf.Server.RefreshSchedule
	if refreshSchedule == "" {
		refreshSchedule = "@daily"
	}
	runner, err := rateCache.ScheduleRefresh(refreshSchedule)
	if err != nil {
		logger.Fatal("failed to schedule rate cache refresh",
			zap.String("op", "main.runServer"),
			zap.Error(err),
		)
	}
	defer runner.Stop()

	addr := conf.Server.Address
	if addrOverride != "" {
		addr = addrOverride
	}
	if addr == "" {
		addr = constants.DefaultServerAddress
	}

	handler := server.NewHandler(logger, engine, offers, conf, constants.DefaultMaxBodySizeBytes, version)
	logger.Info(fmt.Sprintf("listening on %s", addr),
		zap.String("op", "main.runServer"),
	)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("server failed",
			zap.String("op", "main.runServer"),
			zap.Error(err),
		)
	}
}

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/payment-plan/internal/config"
	"github.com/iwvelando/payment-plan/internal/observability"
	"github.com/iwvelando/payment-plan/internal/planner"
	"github.com/iwvelando/payment-plan/pkg/constants"
	"github.com/iwvelando/payment-plan/pkg/output"
	"github.com/iwvelando/payment-plan/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file, or - to read it from stdin")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	var conf *config.Configuration
	var err error
	if *configLocation == "-" {
		conf, err = config.LoadConfigurationFromReader(os.Stdin)
	} else {
		conf, err = config.LoadConfiguration(*configLocation)
	}
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := observability.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Derive the plan and its schedule.
	result, err := planner.New(logger).Build(conf.Plan)
	if err != nil {
		logger.Fatal("failed to build payment plan",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Validation failures are reported, not fatal.
	if err := result.Validation.Err(); err != nil {
		logger.Warn("Plan warning: "+err.Error(),
			zap.String("op", "main"),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(result)
	case constants.OutputFormatCSV:
		output.CsvFormat(result)
	}
}

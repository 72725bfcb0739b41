package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/saas-metrics/internal/calculator"
	"github.com/iwvelando/saas-metrics/internal/config"
	"github.com/iwvelando/saas-metrics/internal/logging"
	"github.com/iwvelando/saas-metrics/pkg/constants"
	"github.com/iwvelando/saas-metrics/pkg/output"
	"github.com/iwvelando/saas-metrics/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, prometheus")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	watch := flag.Bool("watch", false, "recalculate whenever the configuration file changes")
	flag.Parse()

	// Environment overrides may live in a .env file
	envFile, err := config.LoadEnvFile(".env")
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load environment file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if envFile != "" {
		logger.Debug("loaded environment file",
			zap.String("op", "main"),
			zap.String("path", envFile),
		)
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := run(logger, conf, outputFormat); err != nil && !*watch {
		logger.Fatal("failed to calculate metrics",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = config.Watch(ctx, logger, *configLocation, func(updated *config.Configuration) {
		if err := run(logger, updated, outputFormat); err != nil {
			logger.Error("failed to recalculate metrics",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		logger.Fatal("failed to watch configuration",
			zap.String("op", "main"),
			zap.String("path", *configLocation),
			zap.Error(err),
		)
	}
}

// run validates the configuration, evaluates every active scenario and writes
// the results to stdout.
func run(logger *zap.Logger, conf *config.Configuration, outputFormat string) error {
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	results, err := calculator.Evaluate(logger, *conf)
	if errors.Is(err, calculator.ErrNoActiveScenarios) {
		// Already reported as a configuration warning.
		return nil
	}
	if err != nil {
		return err
	}

	return output.Write(os.Stdout, outputFormat, results)
}

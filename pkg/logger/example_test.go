package logger_test

import (
	"errors"

	"github.com/wonny/qpcr/pkg/config"
	"github.com/wonny/qpcr/pkg/logger"
)

// Example_basic demonstrates basic logger usage
func Example_basic() {
	// Load config
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "info",
		LogFormat: "console",
	}

	// Create logger (SSOT)
	log := logger.New(cfg)

	// Basic logging
	log.Debug("This won't appear (level is info)")
	log.Info("Application started")
	log.Warn("Low disk space")
	log.Error("Failed to connect")

	// Formatted logging
	log.Infof("Loaded %d rows from %s", 24, "dilution.csv")
	log.Warnf("Dropped %d unmatched rows", 1)

	// Output:
	// (console output with timestamps)
}

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Add single field
	geneLog := log.WithField("gene", "GAPDH")
	geneLog.Info("Efficiency estimated")

	// Add multiple fields
	runLog := log.WithFields(map[string]interface{}{
		"assay_id":   "goi_hypoxia",
		"target":     "GOI",
		"reference":  "ACTB",
		"efficiency": 98.4,
	})
	runLog.Info("Expression ratios computed")

	// Output:
	// {"level":"info","gene":"GAPDH","message":"Efficiency estimated",...}
	// {"level":"info","assay_id":"goi_hypoxia","target":"GOI","reference":"ACTB","efficiency":98.4,"message":"Expression ratios computed",...}
}

// Example_withError demonstrates error logging
func Example_withError() {
	cfg := &config.Config{
		Env:       "production",
		LogLevel:  "error",
		LogFormat: "json",
	}

	log := logger.New(cfg)

	// Log with error
	err := errors.New("plate file not found")
	log.WithError(err).Error("Failed to read plate export")

	// Combine error with fields
	log.WithError(err).
		WithFields(map[string]interface{}{
			"path":  "inbox/run42.csv",
			"stage": "S0",
		}).
		Error("Inbox file skipped")

	// Output:
	// {"level":"error","error":"plate file not found","message":"Failed to read plate export",...}
	// {"level":"error","error":"plate file not found","path":"inbox/run42.csv","stage":"S0","message":"Inbox file skipped",...}
}

// Example_environments demonstrates different log formats
func Example_environments() {
	// Development: Pretty console logs
	devCfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "console",
	}
	devLog := logger.New(devCfg)
	devLog.Debug("Debugging application flow")
	devLog.Info("Request received")

	// Production: JSON logs
	prodCfg := &config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	}
	prodLog := logger.New(prodCfg)
	prodLog.Info("Service started")
	prodLog.Warn("Inbox directory is empty")

	// Output:
	// (human-readable console output for development)
	// (machine-parseable JSON for production)
}

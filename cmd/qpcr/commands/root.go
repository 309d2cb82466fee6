package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/qpcr/internal/report"
	"github.com/wonny/qpcr/pkg/config"
	"github.com/wonny/qpcr/pkg/logger"
)

var (
	// Global flags
	outputFormat string
	outputFile   string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "qpcr",
	Short: "qPCR 분석 도구 - 효율, Pfaffl, 폴리솜",
	Long: `qPCR Analysis CLI

Ct 테이블(CSV/TSV)을 정리하고 분석합니다.
S0 정리 → S1 프라이머 효율 → S2 Pfaffl 상대 정량 / S3 폴리솜 분획.

Usage:
  go run ./cmd/qpcr [command]

Examples:
  go run ./cmd/qpcr tidy plate.csv
  go run ./cmd/qpcr efficiency dilution.csv --gene GOI
  go run ./cmd/qpcr pfaffl ger.csv --target GOI --reference ACTB --control Untreated --experimental Treated --dilution dilution.csv
  go run ./cmd/qpcr polysome polysome.csv --format text
  go run ./cmd/qpcr run assay.yaml --save`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext is Execute with a context that is cancelled on shutdown
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "", "output format: csv|json|text (default OUTPUT_FORMAT)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write results to file instead of stdout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}

// setup loads config and creates the logger every command uses
func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// writeTables renders tables to --output (or stdout) in the chosen format
func writeTables(cmd *cobra.Command, format string, tables ...report.Table) error {
	if outputFormat != "" {
		format = outputFormat
	}

	if outputFile == "" {
		return report.Write(format, cmd.OutOrStdout(), tables...)
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := report.Write(format, f, tables...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Results written to %s", outputFile))
	return nil
}

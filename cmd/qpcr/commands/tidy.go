package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/qpcr/internal/pipeline"
	"github.com/wonny/qpcr/internal/report"
)

// tidyCmd represents the tidy command
var tidyCmd = &cobra.Command{
	Use:   "tidy <file.csv>",
	Short: "S0: Ct 테이블 정리 (Ct_mean, Ct_sem)",
	Long: `원시 Ct 테이블을 읽어 스키마를 검출하고 행마다 Ct_mean, Ct_sem 을 계산합니다.

지원 스키마 (헤더 대소문자 무시):
  condition : Gene, Condition, Replicate, Ct1, Ct2, Ct3
  dilution  : Gene, Dilution, Replicate, Ct1, Ct2, Ct3
  fraction  : Gene, Fraction, Condition, Ct1, Ct2, Ct3

Example:
  go run ./cmd/qpcr tidy plate.csv
  go run ./cmd/qpcr tidy plate.tsv --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runTidy,
}

func init() {
	rootCmd.AddCommand(tidyCmd)
}

func runTidy(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	schema, rows, err := pipeline.LoadFile(args[0], "")
	if err != nil {
		return fmt.Errorf("tidy %s: %w", args[0], err)
	}

	log.WithFields(map[string]interface{}{
		"file":   args[0],
		"schema": schema,
		"rows":   len(rows),
	}).Debug("Tidied plate export")

	return writeTables(cmd, cfg.OutputFormat, report.TidyTable(schema, rows))
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/qpcr/internal/assayconfig"
	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/pipeline"
	"github.com/wonny/qpcr/internal/report"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <assay.yaml>",
	Short: "assay 계획(YAML) 전체 실행",
	Long: `assay 계획 파일에 정의된 단계(S1 → S2, S3)를 순서대로 실행합니다.

S2 효율은 계획의 override 또는 같은 실행의 S1 결과를 사용합니다.
--save 를 주면 결과를 PostgreSQL(qpcr.*)에 저장합니다 (DATABASE_URL 필요).

Example:
  go run ./cmd/qpcr run assay.yaml
  go run ./cmd/qpcr run assay.yaml --save --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAssay,
}

var runSave bool

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().BoolVar(&runSave, "save", false, "persist the run (requires DATABASE_URL)")
}

func runAssay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, log, err := setup()
	if err != nil {
		return err
	}

	plan, yamlData, err := assayconfig.Load(args[0])
	if err != nil {
		return fmt.Errorf("load assay plan: %w", err)
	}
	snapshot, err := assayconfig.NewRunSnapshot(plan, yamlData)
	if err != nil {
		return fmt.Errorf("snapshot assay plan: %w", err)
	}

	PrintHeader("Assay Run", [2]string{"Assay", plan.Meta.AssayID},
		[2]string{"Version", plan.Meta.Version},
		[2]string{"Stages", strings.Join(plan.Stages(), ", ")},
		[2]string{"Config", snapshot.ConfigHash[:12]})
	for _, w := range assayconfig.Warn(plan) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	var repo contracts.RunRepository
	if runSave {
		db, r, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		repo = r
	}

	start := time.Now()
	result, err := pipeline.NewOrchestrator(repo, log).Run(ctx, pipeline.RunConfig{
		Plan:     plan,
		Snapshot: snapshot,
		Source:   "cli",
		Save:     runSave,
	})
	if err != nil {
		PrintError(err.Error())
		return err
	}

	for _, e := range result.Efficiencies {
		warnEfficiency(e)
	}
	if x := result.Expression; x != nil && x.Dropped > 0 {
		PrintWarning(fmt.Sprintf("%d expression row(s) without a counterpart were dropped", x.Dropped))
	}

	if err := writeRunTables(cmd, plan, result.Tables()); err != nil {
		return err
	}

	if result.RunID > 0 {
		PrintSuccess(fmt.Sprintf("Run #%d saved", result.RunID))
	}
	PrintSuccess(fmt.Sprintf("%s completed in %.2fs", plan.Meta.AssayID, time.Since(start).Seconds()))
	return nil
}

// writeRunTables honours --output/--format first, then the plan's output section
func writeRunTables(cmd *cobra.Command, plan *assayconfig.Config, tables []report.Table) error {
	if outputFile != "" || plan.Output.Dir == "" {
		return writeTables(cmd, plan.Output.Format, tables...)
	}

	format := plan.Output.Format
	if outputFormat != "" {
		format = outputFormat
	}

	dir := plan.ResolvePath(plan.Output.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, plan.Meta.AssayID+"_results."+fileExtension(format))

	f, err := os.Create(path)
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

	PrintSuccess(fmt.Sprintf("Results written to %s", path))
	return nil
}

func fileExtension(format string) string {
	if format == "text" {
		return "txt"
	}
	return format
}

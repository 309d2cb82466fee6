package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/qpcr/internal/assayconfig"
	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/pipeline"
	"github.com/wonny/qpcr/internal/report"
	"github.com/wonny/qpcr/internal/s0_ingest"
)

// efficiencyCmd represents the efficiency command
var efficiencyCmd = &cobra.Command{
	Use:   "efficiency <dilution.csv>",
	Short: "S1: 프라이머 효율 (희석 시리즈 회귀)",
	Long: `log10(dilution) 대 Ct_mean 선형 회귀로 유전자별 프라이머 효율을 계산합니다.

  efficiency % = (10^(-1/slope) - 1) × 100

Example:
  go run ./cmd/qpcr efficiency dilution.csv
  go run ./cmd/qpcr efficiency dilution.csv --gene GOI --gene ACTB`,
	Args: cobra.ExactArgs(1),
	RunE: runEfficiency,
}

var efficiencyGenes []string

func init() {
	rootCmd.AddCommand(efficiencyCmd)

	// Flags
	efficiencyCmd.Flags().StringSliceVarP(&efficiencyGenes, "gene", "g", nil, "genes to fit (default: all)")
}

func runEfficiency(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	_, rows, err := pipeline.LoadFile(args[0], contracts.SchemaDilution)
	if err != nil {
		return fmt.Errorf("efficiency %s: %w", args[0], err)
	}

	genes := efficiencyGenes
	if len(genes) == 0 {
		genes = s0_ingest.Genes(rows)
	}

	results, err := pipeline.Efficiencies(cmd.Context(), rows, genes)
	if err != nil {
		return fmt.Errorf("efficiency %s: %w", args[0], err)
	}

	for _, r := range results {
		log.WithFields(map[string]interface{}{
			"gene":       r.Gene,
			"slope":      r.Slope,
			"efficiency": r.EfficiencyPercent,
		}).Debug("Fitted standard curve")
		warnEfficiency(r)
	}

	return writeTables(cmd, cfg.OutputFormat, report.EfficiencyTable(results))
}

func warnEfficiency(r *contracts.EfficiencyResult) {
	if r.EfficiencyPercent < assayconfig.EfficiencyMin || r.EfficiencyPercent > assayconfig.EfficiencyMax {
		PrintWarning(fmt.Sprintf("%s: primer efficiency %s outside %.0f-%.0f%%",
			r.Gene, formatPercent(r.EfficiencyPercent), assayconfig.EfficiencyMin, assayconfig.EfficiencyMax))
	}
}

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/pipeline"
	"github.com/wonny/qpcr/internal/report"
	"github.com/wonny/qpcr/internal/s2_pfaffl"
)

// pfafflCmd represents the pfaffl command
var pfafflCmd = &cobra.Command{
	Use:   "pfaffl <ger.csv>",
	Short: "S2: Pfaffl 상대 정량 (효율 보정 발현 비율)",
	Long: `control 조건 대비 target/reference 유전자의 효율 보정 발현 비율을 계산합니다.

  ratio = E_target^ΔCt_target / E_reference^ΔCt_reference

효율은 --target-eff/--reference-eff 로 직접 주거나,
--dilution 파일에서 S1 회귀로 구합니다.

Example:
  go run ./cmd/qpcr pfaffl ger.csv --target GOI --reference ACTB \
      --control Untreated --experimental Treated --target-eff 98.2 --reference-eff 101.5
  go run ./cmd/qpcr pfaffl ger.csv --target GOI --reference ACTB \
      --control Untreated --experimental Treated --dilution dilution.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runPfaffl,
}

var (
	pfafflTarget       string
	pfafflReference    string
	pfafflControl      string
	pfafflExperimental string
	pfafflTargetEff    float64
	pfafflReferenceEff float64
	pfafflDilution     string
)

func init() {
	rootCmd.AddCommand(pfafflCmd)

	// Flags
	pfafflCmd.Flags().StringVar(&pfafflTarget, "target", "", "target gene (required)")
	pfafflCmd.Flags().StringVar(&pfafflReference, "reference", "", "reference gene (required)")
	pfafflCmd.Flags().StringVar(&pfafflControl, "control", "", "control condition (required)")
	pfafflCmd.Flags().StringVar(&pfafflExperimental, "experimental", "", "experimental condition (required)")
	pfafflCmd.Flags().Float64Var(&pfafflTargetEff, "target-eff", 0, "target primer efficiency (%)")
	pfafflCmd.Flags().Float64Var(&pfafflReferenceEff, "reference-eff", 0, "reference primer efficiency (%)")
	pfafflCmd.Flags().StringVar(&pfafflDilution, "dilution", "", "dilution series to fit missing efficiencies from")

	for _, name := range []string{"target", "reference", "control", "experimental"} {
		_ = pfafflCmd.MarkFlagRequired(name)
	}
}

func runPfaffl(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	req := s2_pfaffl.Request{
		Target:                pfafflTarget,
		Reference:             pfafflReference,
		ControlCondition:      pfafflControl,
		ExperimentalCondition: pfafflExperimental,
		TargetEfficiency:      pfafflTargetEff,
		ReferenceEfficiency:   pfafflReferenceEff,
	}

	// 효율 출처: 플래그 우선, 없으면 dilution 회귀
	var missing []string
	if !cmd.Flags().Changed("target-eff") {
		missing = append(missing, req.Target)
	}
	if !cmd.Flags().Changed("reference-eff") {
		missing = append(missing, req.Reference)
	}
	if len(missing) > 0 {
		if pfafflDilution == "" {
			return errors.New("need --target-eff and --reference-eff, or --dilution to fit them")
		}
		fitted, err := fitEfficiencies(cmd, pfafflDilution, missing)
		if err != nil {
			return err
		}
		for _, r := range fitted {
			warnEfficiency(r)
			switch r.Gene {
			case req.Target:
				req.TargetEfficiency = r.EfficiencyPercent
			case req.Reference:
				req.ReferenceEfficiency = r.EfficiencyPercent
			}
		}
	}

	_, rows, err := pipeline.LoadFile(args[0], contracts.SchemaCondition)
	if err != nil {
		return fmt.Errorf("pfaffl %s: %w", args[0], err)
	}

	res, err := s2_pfaffl.Analyze(rows, req)
	if err != nil {
		return fmt.Errorf("pfaffl %s: %w", args[0], err)
	}

	if res.Dropped > 0 {
		PrintWarning(fmt.Sprintf("%d row(s) had no %s/%s counterpart and were dropped", res.Dropped, req.Target, req.Reference))
	}
	if fold, ok := res.FoldChange(); ok {
		PrintInfo(fmt.Sprintf("Fold change %s vs %s: %.4g", req.ExperimentalCondition, req.ControlCondition, fold))
	}
	log.WithFields(map[string]interface{}{
		"target":     req.Target,
		"reference":  req.Reference,
		"target_eff": req.TargetEfficiency,
		"ref_eff":    req.ReferenceEfficiency,
		"pairs":      len(res.Ratios),
	}).Debug("Pfaffl analysis completed")

	return writeTables(cmd, cfg.OutputFormat, report.ExpressionTable(res), report.DeltaCtTable(res))
}

func fitEfficiencies(cmd *cobra.Command, path string, genes []string) ([]*contracts.EfficiencyResult, error) {
	_, rows, err := pipeline.LoadFile(path, contracts.SchemaDilution)
	if err != nil {
		return nil, fmt.Errorf("dilution %s: %w", path, err)
	}
	results, err := pipeline.Efficiencies(cmd.Context(), rows, genes)
	if err != nil {
		return nil, fmt.Errorf("dilution %s: %w", path, err)
	}
	return results, nil
}

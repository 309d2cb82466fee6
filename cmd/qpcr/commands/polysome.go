package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/pipeline"
	"github.com/wonny/qpcr/internal/report"
	"github.com/wonny/qpcr/internal/s3_polysome"
)

// polysomeCmd represents the polysome command
var polysomeCmd = &cobra.Command{
	Use:   "polysome <polysome.csv>",
	Short: "S3: 폴리솜 분획별 transcript 분포 (%)",
	Long: `fraction 1 기준 ΔCt → 2^ΔCt → 분획별 비율(%)을 반복(Ct1..Ct3)마다 계산합니다.

--gene/--condition 을 생략하면 모든 gene/condition 쌍을 계산합니다.

Example:
  go run ./cmd/qpcr polysome polysome.csv
  go run ./cmd/qpcr polysome polysome.csv --gene GOI --condition Untreated --format text`,
	Args: cobra.ExactArgs(1),
	RunE: runPolysome,
}

var (
	polysomeGene      string
	polysomeCondition string
)

func init() {
	rootCmd.AddCommand(polysomeCmd)

	// Flags
	polysomeCmd.Flags().StringVar(&polysomeGene, "gene", "", "gene to profile")
	polysomeCmd.Flags().StringVar(&polysomeCondition, "condition", "", "condition to profile")
}

func runPolysome(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if (polysomeGene == "") != (polysomeCondition == "") {
		return errors.New("--gene and --condition must be given together")
	}

	_, rows, err := pipeline.LoadFile(args[0], contracts.SchemaFraction)
	if err != nil {
		return fmt.Errorf("polysome %s: %w", args[0], err)
	}

	var profiles []*contracts.PolysomeProfile
	if polysomeGene == "" {
		profiles, err = s3_polysome.ProfileAll(rows)
	} else {
		var p *contracts.PolysomeProfile
		p, err = s3_polysome.Profile(rows, polysomeGene, polysomeCondition)
		profiles = append(profiles, p)
	}
	if err != nil {
		return fmt.Errorf("polysome %s: %w", args[0], err)
	}

	log.WithField("profiles", len(profiles)).Debug("Polysome profiles computed")

	return writeTables(cmd, cfg.OutputFormat, report.PolysomeTable(profiles...))
}

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/qpcr/internal/assayconfig"
	"github.com/wonny/qpcr/internal/contracts"
)

const dilutionCSV = `Gene,Dilution,Replicate,Ct1,Ct2,Ct3
GOI,1,1,20.00,20.00,20.00
GOI,0.1,1,23.32,23.32,23.32
GOI,0.01,1,26.64,26.64,26.64
ACTB,1,1,15.00,15.00,15.00
ACTB,0.1,1,18.32,18.32,18.32
ACTB,0.01,1,21.64,21.64,21.64
`

const conditionCSV = `Gene,Condition,Replicate,Ct1,Ct2,Ct3
GOI,Untreated,1,24,24,24
GOI,Untreated,2,25,25,25
GOI,Untreated,3,26,26,26
ACTB,Untreated,1,18,18,18
ACTB,Untreated,2,18,18,18
ACTB,Untreated,3,18,18,18
GOI,Treated,1,23,23,23
GOI,Treated,2,23,23,23
GOI,Treated,3,23,23,23
ACTB,Treated,1,18,18,18
ACTB,Treated,2,18,18,18
ACTB,Treated,3,18,18,18
`

const fractionCSV = `Gene,Fraction,Condition,Ct1,Ct2,Ct3
GOI,1,Untreated,20,20,20
GOI,2,Untreated,21,21,21
`

const plan = `
meta:
  assay_id: goi_test
  version: "1"
efficiency:
  source: dilution.csv
expression:
  source: ger.csv
  target: GOI
  reference: ACTB
  control_condition: Untreated
  experimental_condition: Treated
polysome:
  source: polysome.csv
`

type memRepo struct {
	saved []*contracts.Run
	err   error
}

func (m *memRepo) SaveRun(_ context.Context, run *contracts.Run) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, run)
	return int64(len(m.saved)), nil
}

func (m *memRepo) GetRun(_ context.Context, id int64) (*contracts.Run, error) {
	return m.saved[id-1], nil
}

func (m *memRepo) ListRuns(context.Context, int) ([]contracts.RunSummary, error) {
	return nil, nil
}

func writeAssay(t *testing.T, planYAML string) (*assayconfig.Config, []byte) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"dilution.csv": dilutionCSV,
		"ger.csv":      conditionCSV,
		"polysome.csv": fractionCSV,
		"assay.yaml":   planYAML,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	cfg, data, err := assayconfig.Load(filepath.Join(dir, "assay.yaml"))
	require.NoError(t, err)
	return cfg, data
}

func TestRun_AllStages(t *testing.T) {
	cfg, data := writeAssay(t, plan)
	snap, err := assayconfig.NewRunSnapshot(cfg, data)
	require.NoError(t, err)

	repo := &memRepo{}
	o := NewOrchestrator(repo, nil)

	res, err := o.Run(context.Background(), RunConfig{Plan: cfg, Snapshot: snap, Source: "cli", Save: true})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, []contracts.Stage{
		contracts.StageIngest, contracts.StageEfficiency, contracts.StagePfaffl, contracts.StagePolysome,
	}, res.CompletedStages)

	// S1: 정렬 + 100% 근처
	require.Len(t, res.Efficiencies, 2)
	assert.Equal(t, "ACTB", res.Efficiencies[0].Gene)
	assert.Equal(t, "GOI", res.Efficiencies[1].Gene)
	assert.InDelta(t, 100.0, res.Efficiencies[1].EfficiencyPercent, 0.5)

	// S2 uses the fitted efficiencies
	require.NotNil(t, res.Expression)
	assert.Equal(t, res.Efficiencies[1].EfficiencyPercent, res.Expression.TargetEfficiency)
	assert.Equal(t, res.Efficiencies[0].EfficiencyPercent, res.Expression.ReferenceEfficiency)

	require.Len(t, res.Profiles, 1)
	assert.InDelta(t, 200.0/3, res.Profiles[0].Summaries[0].AveragePercent, 1e-9)

	// 저장
	assert.Equal(t, int64(1), res.RunID)
	require.Len(t, repo.saved, 1)
	saved := repo.saved[0]
	assert.Equal(t, "goi_test", saved.AssayID)
	assert.Equal(t, "cli", saved.Source)
	assert.Equal(t, snap.ConfigHash, saved.ConfigHash)
	assert.Len(t, saved.Efficiencies, 2)
	assert.Len(t, saved.Expressions, 1)
	assert.Len(t, saved.Profiles, 1)
}

func TestRun_EfficiencyOverrides(t *testing.T) {
	cfg, _ := writeAssay(t, `
meta:
  assay_id: overrides
expression:
  source: ger.csv
  target: GOI
  reference: ACTB
  control_condition: Untreated
  experimental_condition: Treated
  target_efficiency: 100
  reference_efficiency: 100
`)

	res, err := NewOrchestrator(nil, nil).Run(context.Background(), RunConfig{Plan: cfg})
	require.NoError(t, err)

	assert.Empty(t, res.Efficiencies)
	assert.Equal(t, []contracts.Stage{contracts.StageIngest, contracts.StagePfaffl}, res.CompletedStages)

	fold, ok := res.Expression.FoldChange()
	require.True(t, ok)
	assert.InDelta(t, 0.25/(7.0/6.0), fold, 1e-12)
	assert.Zero(t, res.RunID)
}

func TestRun_WrongSchemaFailsStage(t *testing.T) {
	cfg, _ := writeAssay(t, `
meta:
  assay_id: wrong_schema
polysome:
  source: ger.csv
`)

	res, err := NewOrchestrator(nil, nil).Run(context.Background(), RunConfig{Plan: cfg})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrSchema), "got %v", err)
	assert.Contains(t, err.Error(), "S3 failed")
	assert.False(t, res.Success)
	assert.Empty(t, res.CompletedStages)
}

func TestRun_SaveWithoutRepository(t *testing.T) {
	cfg, _ := writeAssay(t, plan)

	_, err := NewOrchestrator(nil, nil).Run(context.Background(), RunConfig{Plan: cfg, Save: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistence is disabled")
}

func TestRun_SaveError(t *testing.T) {
	cfg, _ := writeAssay(t, plan)
	repo := &memRepo{err: errors.New("connection reset")}

	res, err := NewOrchestrator(repo, nil).Run(context.Background(), RunConfig{Plan: cfg, Save: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, res.Success)
}

func TestEfficiencies_Cancelled(t *testing.T) {
	_, rows, err := LoadTable(contracts.RawTable{
		Columns: []string{"gene", "dilution", "replicate", "ct1", "ct2", "ct3"},
		Rows: [][]string{
			{"GOI", "1", "1", "20", "20", "20"},
			{"GOI", "0.1", "1", "23.3", "23.3", "23.3"},
		},
	}, contracts.SchemaDilution)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Efficiencies(ctx, rows, []string{"GOI"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEfficiencies_FirstErrorWins(t *testing.T) {
	_, rows, err := LoadTable(contracts.RawTable{
		Columns: []string{"gene", "dilution", "replicate", "ct1", "ct2", "ct3"},
		Rows: [][]string{
			{"GOI", "1", "1", "20", "20", "20"},
			{"GOI", "0.1", "1", "23.3", "23.3", "23.3"},
		},
	}, contracts.SchemaDilution)
	require.NoError(t, err)

	_, err = Efficiencies(context.Background(), rows, []string{"GOI", "MISSING"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrEmptyInput), "got %v", err)
}

func TestRunResultTables(t *testing.T) {
	cfg, _ := writeAssay(t, plan)

	res, err := NewOrchestrator(nil, nil).Run(context.Background(), RunConfig{Plan: cfg})
	require.NoError(t, err)

	tables := res.Tables()
	require.Len(t, tables, 4)
	assert.Equal(t, "Primer Efficiency", tables[0].Title)
	assert.Equal(t, "Gene Expression Ratio GOI/ACTB", tables[1].Title)
	assert.Equal(t, "Delta Ct", tables[2].Title)
	assert.Equal(t, "Polysome Profile", tables[3].Title)
	assert.Len(t, tables[3].Rows, 2)
}

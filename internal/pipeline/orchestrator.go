package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/qpcr/internal/assayconfig"
	"github.com/wonny/qpcr/internal/contracts"
	"github.com/wonny/qpcr/internal/s0_ingest"
	"github.com/wonny/qpcr/internal/s2_pfaffl"
	"github.com/wonny/qpcr/internal/s3_polysome"
	"github.com/wonny/qpcr/pkg/logger"
)

// Orchestrator runs the stages an assay plan asks for
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	// Optional: nil disables persistence
	runRepo contracts.RunRepository

	logger *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Plan     *assayconfig.Config
	Snapshot *assayconfig.RunSnapshot // optional, recorded with the run
	Source   string                   // cli, api, inbox
	Save     bool
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	AssayID         string
	ConfigHash      string
	Success         bool
	Error           error
	CompletedStages []contracts.Stage

	Efficiencies []*contracts.EfficiencyResult
	Expression   *contracts.ExpressionResult
	Profiles     []*contracts.PolysomeProfile

	RunID    int64 // 0 when not saved
	Duration time.Duration
}

// NewOrchestrator creates a new orchestrator. runRepo may be nil.
func NewOrchestrator(runRepo contracts.RunRepository, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		runRepo: runRepo,
		logger:  log,
	}
}

// Run executes the plan: S1 → S2 (using S1 efficiencies) and S3
func (o *Orchestrator) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()
	plan := config.Plan

	result := &RunResult{
		AssayID:         plan.Meta.AssayID,
		CompletedStages: make([]contracts.Stage, 0, 4),
	}
	if config.Snapshot != nil {
		result.ConfigHash = config.Snapshot.ConfigHash
	}

	o.logger.WithFields(map[string]interface{}{
		"assay_id": plan.Meta.AssayID,
		"version":  plan.Meta.Version,
		"stages":   plan.Stages(),
		"save":     config.Save,
	}).Info("Starting assay run")

	fail := func(stage contracts.Stage, err error) (*RunResult, error) {
		result.Error = fmt.Errorf("%s failed: %w", stage.ShortName(), err)
		o.logger.WithError(err).WithField("stage", stage.String()).Error("Assay run failed")
		return result, result.Error
	}

	// S1: Primer Efficiency
	if plan.Efficiency != nil {
		effs, err := o.runS1(ctx, plan)
		if err != nil {
			return fail(contracts.StageEfficiency, err)
		}
		result.Efficiencies = effs
		result.markCompleted(contracts.StageIngest, contracts.StageEfficiency)
	}

	// S2: Pfaffl
	if plan.Expression != nil {
		expr, err := o.runS2(ctx, plan, result.Efficiencies)
		if err != nil {
			return fail(contracts.StagePfaffl, err)
		}
		result.Expression = expr
		result.markCompleted(contracts.StageIngest, contracts.StagePfaffl)
	}

	// S3: Polysome
	if plan.Polysome != nil {
		profiles, err := o.runS3(ctx, plan)
		if err != nil {
			return fail(contracts.StagePolysome, err)
		}
		result.Profiles = profiles
		result.markCompleted(contracts.StageIngest, contracts.StagePolysome)
	}

	if config.Save {
		id, err := o.save(ctx, config, result)
		if err != nil {
			result.Error = err
			return result, err
		}
		result.RunID = id
	}

	result.Success = true
	result.Duration = time.Since(startTime)

	o.logger.WithFields(map[string]interface{}{
		"assay_id": plan.Meta.AssayID,
		"run_id":   result.RunID,
		"duration": result.Duration.Seconds(),
		"stages":   len(result.CompletedStages),
	}).Info("Assay run completed successfully")

	return result, nil
}

// runS1 executes S1: Primer Efficiency
func (o *Orchestrator) runS1(ctx context.Context, plan *assayconfig.Config) ([]*contracts.EfficiencyResult, error) {
	o.logger.Info("Running S1: Primer Efficiency")

	_, rows, err := LoadFile(plan.ResolvePath(plan.Efficiency.Source), contracts.SchemaDilution)
	if err != nil {
		return nil, fmt.Errorf("load dilution series: %w", err)
	}

	genes := plan.Efficiency.Genes
	if len(genes) == 0 {
		genes = s0_ingest.Genes(rows)
	}

	effs, err := Efficiencies(ctx, rows, genes)
	if err != nil {
		return nil, fmt.Errorf("efficiency fit: %w", err)
	}

	for _, e := range effs {
		o.logger.WithFields(map[string]interface{}{
			"gene":       e.Gene,
			"slope":      e.Slope,
			"r_squared":  e.RSquared(),
			"efficiency": e.EfficiencyPercent,
		}).Info("S1 gene fitted")
	}

	return effs, nil
}

// runS2 executes S2: Pfaffl relative quantification
func (o *Orchestrator) runS2(_ context.Context, plan *assayconfig.Config, effs []*contracts.EfficiencyResult) (*contracts.ExpressionResult, error) {
	o.logger.Info("Running S2: Pfaffl")
	x := plan.Expression

	targetEff, err := efficiencyFor(x.Target, x.TargetEfficiency, effs)
	if err != nil {
		return nil, err
	}
	refEff, err := efficiencyFor(x.Reference, x.ReferenceEfficiency, effs)
	if err != nil {
		return nil, err
	}

	_, rows, err := LoadFile(plan.ResolvePath(x.Source), contracts.SchemaCondition)
	if err != nil {
		return nil, fmt.Errorf("load expression data: %w", err)
	}

	res, err := s2_pfaffl.Analyze(rows, s2_pfaffl.Request{
		Target:                x.Target,
		Reference:             x.Reference,
		ControlCondition:      x.ControlCondition,
		ExperimentalCondition: x.ExperimentalCondition,
		TargetEfficiency:      targetEff,
		ReferenceEfficiency:   refEff,
	})
	if err != nil {
		return nil, fmt.Errorf("pfaffl: %w", err)
	}

	if res.Dropped > 0 {
		o.logger.WithField("dropped", res.Dropped).Warn("S2 dropped rows without a target/reference counterpart")
	}
	fold, _ := res.FoldChange()
	o.logger.WithFields(map[string]interface{}{
		"target":      res.Target,
		"reference":   res.Reference,
		"pairs":       len(res.Ratios),
		"fold_change": fold,
	}).Info("S2 completed")

	return res, nil
}

// runS3 executes S3: Polysome profiling
func (o *Orchestrator) runS3(_ context.Context, plan *assayconfig.Config) ([]*contracts.PolysomeProfile, error) {
	o.logger.Info("Running S3: Polysome")

	_, rows, err := LoadFile(plan.ResolvePath(plan.Polysome.Source), contracts.SchemaFraction)
	if err != nil {
		return nil, fmt.Errorf("load polysome data: %w", err)
	}

	targets := make([]s3_polysome.Target, 0, len(plan.Polysome.Profiles))
	for _, t := range plan.Polysome.Profiles {
		targets = append(targets, s3_polysome.Target{Gene: t.Gene, Condition: t.Condition})
	}
	if len(targets) == 0 {
		targets = s3_polysome.Targets(rows)
	}

	profiles := make([]*contracts.PolysomeProfile, 0, len(targets))
	for _, t := range targets {
		p, err := s3_polysome.Profile(rows, t.Gene, t.Condition)
		if err != nil {
			return nil, fmt.Errorf("profile %s/%s: %w", t.Gene, t.Condition, err)
		}
		profiles = append(profiles, p)
	}

	o.logger.WithField("profiles", len(profiles)).Info("S3 completed")
	return profiles, nil
}

func (o *Orchestrator) save(ctx context.Context, config RunConfig, result *RunResult) (int64, error) {
	if o.runRepo == nil {
		return 0, fmt.Errorf("save requested but persistence is disabled (DATABASE_URL not set)")
	}

	run := &contracts.Run{
		AssayID:    result.AssayID,
		Source:     config.Source,
		ConfigHash: result.ConfigHash,
		Stages:     result.CompletedStages,
	}
	for _, e := range result.Efficiencies {
		run.Efficiencies = append(run.Efficiencies, *e)
	}
	if result.Expression != nil {
		run.Expressions = append(run.Expressions, *result.Expression)
	}
	for _, p := range result.Profiles {
		run.Profiles = append(run.Profiles, *p)
	}

	id, err := o.runRepo.SaveRun(ctx, run)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}

	o.logger.WithField("run_id", id).Info("Run saved")
	return id, nil
}

// efficiencyFor picks the override or the fitted efficiency of gene
func efficiencyFor(gene string, override *float64, effs []*contracts.EfficiencyResult) (float64, error) {
	if override != nil {
		return *override, nil
	}
	for _, e := range effs {
		if e.Gene == gene {
			return e.EfficiencyPercent, nil
		}
	}
	return 0, contracts.NewEmptyInputError("pfaffl", "no efficiency for gene %q: fit it or set an override", gene)
}

func (r *RunResult) markCompleted(stages ...contracts.Stage) {
	for _, s := range stages {
		found := false
		for _, done := range r.CompletedStages {
			if done == s {
				found = true
				break
			}
		}
		if !found {
			r.CompletedStages = append(r.CompletedStages, s)
		}
	}
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/qpcr/internal/contracts"
)

// ErrRunNotFound no run with the requested id
var ErrRunNotFound = errors.New("run not found")

// Repository persists analysis runs in PostgreSQL
// ⭐ SSOT: 실행 기록 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

var _ contracts.RunRepository = (*Repository)(nil)

// NewRepository creates a new run repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRun stores the run and every result table in one transaction.
// run.ID and run.CreatedAt are filled from the database.
func (r *Repository) SaveRun(ctx context.Context, run *contracts.Run) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO qpcr.runs (assay_id, source, config_hash, stages)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, run.AssayID, run.Source, run.ConfigHash, stageNames(run.Stages)).Scan(&run.ID, &run.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	batch := &pgx.Batch{}

	for _, e := range run.Efficiencies {
		pointsJSON, err := json.Marshal(e.Points)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal points of %s: %w", e.Gene, err)
		}
		batch.Queue(`
			INSERT INTO qpcr.efficiencies
				(run_id, gene, slope, intercept, std_err, r, p_value, efficiency_pct, points)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, run.ID, e.Gene, e.Slope, e.Intercept, e.StdErr, e.R, e.PValue, e.EfficiencyPercent, pointsJSON)
	}

	for _, x := range run.Expressions {
		resultJSON, err := json.Marshal(x)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal expression %s/%s: %w", x.Target, x.Reference, err)
		}
		batch.Queue(`
			INSERT INTO qpcr.expressions (run_id, target, reference, dropped, result)
			VALUES ($1, $2, $3, $4, $5)
		`, run.ID, x.Target, x.Reference, x.Dropped, resultJSON)
	}

	for _, p := range run.Profiles {
		resultJSON, err := json.Marshal(p)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal profile %s/%s: %w", p.Gene, p.Condition, err)
		}
		batch.Queue(`
			INSERT INTO qpcr.polysome_profiles (run_id, gene, condition, result)
			VALUES ($1, $2, $3, $4)
		`, run.ID, p.Gene, p.Condition, resultJSON)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return 0, fmt.Errorf("failed to insert results: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return run.ID, nil
}

// GetRun loads a run with all of its results
func (r *Repository) GetRun(ctx context.Context, id int64) (*contracts.Run, error) {
	var (
		run    contracts.Run
		stages []string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, assay_id, source, config_hash, stages, created_at
		FROM qpcr.runs
		WHERE id = $1
	`, id).Scan(&run.ID, &run.AssayID, &run.Source, &run.ConfigHash, &stages, &run.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.Stages = toStages(stages)

	if run.Efficiencies, err = r.efficiencies(ctx, id); err != nil {
		return nil, err
	}
	if err := r.jsonResults(ctx, `SELECT result FROM qpcr.expressions WHERE run_id = $1 ORDER BY target, reference`, id, func(data []byte) error {
		var x contracts.ExpressionResult
		if err := json.Unmarshal(data, &x); err != nil {
			return err
		}
		run.Expressions = append(run.Expressions, x)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to get expressions: %w", err)
	}
	if err := r.jsonResults(ctx, `SELECT result FROM qpcr.polysome_profiles WHERE run_id = $1 ORDER BY gene, condition`, id, func(data []byte) error {
		var p contracts.PolysomeProfile
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		run.Profiles = append(run.Profiles, p)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}

	return &run, nil
}

// ListRuns returns the newest runs first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]contracts.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, assay_id, source, config_hash, stages, created_at
		FROM qpcr.runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]contracts.RunSummary, 0)
	for rows.Next() {
		var (
			s      contracts.RunSummary
			stages []string
		)
		if err := rows.Scan(&s.ID, &s.AssayID, &s.Source, &s.ConfigHash, &stages, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		s.Stages = toStages(stages)
		runs = append(runs, s)
	}

	return runs, rows.Err()
}

func (r *Repository) efficiencies(ctx context.Context, runID int64) ([]contracts.EfficiencyResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT gene, slope, intercept, std_err, r, p_value, efficiency_pct, points
		FROM qpcr.efficiencies
		WHERE run_id = $1
		ORDER BY gene
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query efficiencies: %w", err)
	}
	defer rows.Close()

	var out []contracts.EfficiencyResult
	for rows.Next() {
		var (
			e          contracts.EfficiencyResult
			pointsJSON []byte
		)
		if err := rows.Scan(&e.Gene, &e.Slope, &e.Intercept, &e.StdErr, &e.R, &e.PValue, &e.EfficiencyPercent, &pointsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan efficiency: %w", err)
		}
		if err := json.Unmarshal(pointsJSON, &e.Points); err != nil {
			return nil, fmt.Errorf("failed to unmarshal points: %w", err)
		}
		out = append(out, e)
	}

	return out, rows.Err()
}

func (r *Repository) jsonResults(ctx context.Context, query string, runID int64, each func([]byte) error) error {
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return err
		}
		if err := each(data); err != nil {
			return err
		}
	}
	return rows.Err()
}

func stageNames(stages []contracts.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = s.String()
	}
	return out
}

func toStages(names []string) []contracts.Stage {
	out := make([]contracts.Stage, len(names))
	for i, n := range names {
		out[i] = contracts.Stage(n)
	}
	return out
}

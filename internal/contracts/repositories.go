package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// RunRepository persists analysis runs and their result tables
type RunRepository interface {
	SaveRun(ctx context.Context, run *Run) (int64, error)
	GetRun(ctx context.Context, id int64) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
}

// Run is one persisted analysis with every table it produced
type Run struct {
	ID         int64     `json:"id"`
	AssayID    string    `json:"assay_id"`
	Source     string    `json:"source"` // cli, api, inbox
	ConfigHash string    `json:"config_hash,omitempty"`
	Stages     []Stage   `json:"stages"`
	CreatedAt  time.Time `json:"created_at"`

	Efficiencies []EfficiencyResult `json:"efficiencies,omitempty"`
	Expressions  []ExpressionResult `json:"expressions,omitempty"`
	Profiles     []PolysomeProfile  `json:"profiles,omitempty"`
}

// RunSummary is the listing view of a run
type RunSummary struct {
	ID         int64     `json:"id"`
	AssayID    string    `json:"assay_id"`
	Source     string    `json:"source"`
	ConfigHash string    `json:"config_hash,omitempty"`
	Stages     []Stage   `json:"stages"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary returns the listing view of the run
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:         r.ID,
		AssayID:    r.AssayID,
		Source:     r.Source,
		ConfigHash: r.ConfigHash,
		Stages:     r.Stages,
		CreatedAt:  r.CreatedAt,
	}
}

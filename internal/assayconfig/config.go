package assayconfig

import (
	"path/filepath"
	"time"
)

// Config is one assay plan: which plate exports to analyse and how
type Config struct {
	Meta       Meta        `yaml:"meta" json:"meta"`
	Efficiency *Efficiency `yaml:"efficiency,omitempty" json:"efficiency,omitempty"`
	Expression *Expression `yaml:"expression,omitempty" json:"expression,omitempty"`
	Polysome   *Polysome   `yaml:"polysome,omitempty" json:"polysome,omitempty"`
	Output     Output      `yaml:"output" json:"output"`

	// dir is the plan file's directory; relative sources resolve against it
	dir string
}

// Meta 메타 정보
type Meta struct {
	AssayID     string `yaml:"assay_id" json:"assay_id"`
	Version     string `yaml:"version" json:"version"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Efficiency S1: 희석 시리즈
type Efficiency struct {
	Source string `yaml:"source" json:"source"`
	// Genes to fit; empty means every gene in the source
	Genes []string `yaml:"genes,omitempty" json:"genes,omitempty"`
}

// Expression S2: Pfaffl 비교
type Expression struct {
	Source                string `yaml:"source" json:"source"`
	Target                string `yaml:"target" json:"target"`
	Reference             string `yaml:"reference" json:"reference"`
	ControlCondition      string `yaml:"control_condition" json:"control_condition"`
	ExperimentalCondition string `yaml:"experimental_condition" json:"experimental_condition"`

	// Efficiency overrides (percent). When nil the S1 result for the gene is used.
	TargetEfficiency    *float64 `yaml:"target_efficiency,omitempty" json:"target_efficiency,omitempty"`
	ReferenceEfficiency *float64 `yaml:"reference_efficiency,omitempty" json:"reference_efficiency,omitempty"`
}

// Polysome S3: 분획 프로파일
type Polysome struct {
	Source string `yaml:"source" json:"source"`
	// Profiles to compute; empty means every gene/condition in the source
	Profiles []ProfileTarget `yaml:"profiles,omitempty" json:"profiles,omitempty"`
}

// ProfileTarget one gene under one condition
type ProfileTarget struct {
	Gene      string `yaml:"gene" json:"gene"`
	Condition string `yaml:"condition" json:"condition"`
}

// Output where result tables go
type Output struct {
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // csv | json | text
	Dir    string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// ResolvePath resolves a source path relative to the plan file
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Stages reports which sections are present, in pipeline order
func (c *Config) Stages() []string {
	var out []string
	if c.Efficiency != nil {
		out = append(out, "efficiency")
	}
	if c.Expression != nil {
		out = append(out, "expression")
	}
	if c.Polysome != nil {
		out = append(out, "polysome")
	}
	return out
}

// RunSnapshot records which plan produced a run (재현성용)
type RunSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	AssayID    string    `json:"assay_id"`
	Version    string    `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}

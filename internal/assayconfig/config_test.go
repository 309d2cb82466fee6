package assayconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullPlan = `
meta:
  assay_id: goi_hypoxia
  version: "2"
efficiency:
  source: dilution.csv
  genes: [GOI, ACTB]
expression:
  source: ger.csv
  target: GOI
  reference: ACTB
  control_condition: Normoxia
  experimental_condition: Hypoxia
polysome:
  source: /data/polysome.csv
  profiles:
    - gene: GOI
      condition: Normoxia
output:
  format: text
  dir: out
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullPlan), 0o644))

	cfg, yamlData, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "goi_hypoxia", cfg.Meta.AssayID)
	assert.Equal(t, []string{"efficiency", "expression", "polysome"}, cfg.Stages())
	assert.Equal(t, filepath.Join(dir, "dilution.csv"), cfg.ResolvePath(cfg.Efficiency.Source))
	assert.Equal(t, "/data/polysome.csv", cfg.ResolvePath(cfg.Polysome.Source))
	assert.Equal(t, fullPlan, string(yamlData))

	// 해시 결정성
	hash, err := Hash(cfg)
	require.NoError(t, err)
	assert.Len(t, hash, 64)
	hash2, _ := Hash(cfg)
	assert.Equal(t, hash, hash2)

	snap, err := NewRunSnapshot(cfg, yamlData)
	require.NoError(t, err)
	assert.Equal(t, hash, snap.ConfigHash)
	assert.Equal(t, "2", snap.Version)
}

func TestHash_IgnoresPlanLocation(t *testing.T) {
	a, err := Parse([]byte(fullPlan))
	require.NoError(t, err)
	b, err := Parse([]byte(fullPlan))
	require.NoError(t, err)
	b.dir = "/somewhere/else"

	ha, _ := Hash(a)
	hb, _ := Hash(b)
	assert.Equal(t, ha, hb)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("meta:\n  assay_id: x\n  asay_version: 1\npolysome:\n  source: p.csv\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asay_version")
}

func TestParse_DefaultFormat(t *testing.T) {
	cfg, err := Parse([]byte("meta:\n  assay_id: x\npolysome:\n  source: p.csv\n"))
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "p.csv", cfg.ResolvePath("p.csv"))
}

func TestValidate(t *testing.T) {
	eff := func(v float64) *float64 { return &v }

	base := func() *Config {
		return &Config{
			Meta: Meta{AssayID: "a1"},
			Expression: &Expression{
				Source:                "ger.csv",
				Target:                "GOI",
				Reference:             "ACTB",
				ControlCondition:      "ctrl",
				ExperimentalCondition: "exp",
				TargetEfficiency:      eff(98),
				ReferenceEfficiency:   eff(101),
			},
			Output: Output{Format: "csv"},
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		wantField string
	}{
		{"valid", func(*Config) {}, false, ""},
		{"missing assay id", func(c *Config) { c.Meta.AssayID = "" }, true, "meta.assay_id"},
		{"bad assay id", func(c *Config) { c.Meta.AssayID = "a b" }, true, "meta.assay_id"},
		{"no sections", func(c *Config) { c.Expression = nil }, true, ""},
		{"missing target", func(c *Config) { c.Expression.Target = "" }, true, "expression.target"},
		{"same genes", func(c *Config) { c.Expression.Reference = "GOI" }, true, "expression.reference"},
		{"same conditions", func(c *Config) { c.Expression.ExperimentalCondition = "ctrl" }, true, "expression.experimental_condition"},
		{"efficiency too low", func(c *Config) { c.Expression.TargetEfficiency = eff(-100) }, true, "expression.target_efficiency"},
		{"no efficiency source", func(c *Config) { c.Expression.ReferenceEfficiency = nil }, true, "expression.reference_efficiency"},
		{"fitted efficiency", func(c *Config) {
			c.Expression.ReferenceEfficiency = nil
			c.Efficiency = &Efficiency{Source: "d.csv"}
		}, false, ""},
		{"fitted efficiency gene not listed", func(c *Config) {
			c.Expression.ReferenceEfficiency = nil
			c.Efficiency = &Efficiency{Source: "d.csv", Genes: []string{"GOI"}}
		}, true, "expression.reference_efficiency"},
		{"duplicate genes", func(c *Config) { c.Efficiency = &Efficiency{Source: "d.csv", Genes: []string{"A", "A"}} }, true, "efficiency.genes"},
		{"polysome without source", func(c *Config) { c.Polysome = &Polysome{} }, true, "polysome.source"},
		{"duplicate profile", func(c *Config) {
			c.Polysome = &Polysome{Source: "p.csv", Profiles: []ProfileTarget{{"G", "c"}, {"G", "c"}}}
		}, true, "polysome.profiles[1]"},
		{"bad format", func(c *Config) { c.Output.Format = "xlsx" }, true, "output.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := Validate(cfg)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var ve ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestWarn(t *testing.T) {
	low := 82.0
	ok := 99.0
	cfg := &Config{
		Meta:       Meta{AssayID: "a"},
		Efficiency: &Efficiency{Source: "d.csv"},
		Expression: &Expression{TargetEfficiency: &low, ReferenceEfficiency: &ok},
	}

	codes := map[string]bool{}
	for _, w := range Warn(cfg) {
		codes[w.Code] = true
	}

	assert.True(t, codes["EFFICIENCY_RANGE"])
	assert.True(t, codes["EFFICIENCY_OVERRIDE"])
	assert.True(t, codes["STDOUT_OUTPUT"])
}

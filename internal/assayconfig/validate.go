package assayconfig

import (
	"errors"
	"fmt"
	"math"
	"regexp"
)

// ValidationError 검증 실패 (실행 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var assayIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Validate checks all required constraints
// 실패 시 error 반환 (실행 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.AssayID == "" {
		return ValidationError{"meta.assay_id", "required"}
	}
	if !assayIDPattern.MatchString(cfg.Meta.AssayID) {
		return ValidationError{"meta.assay_id", "letters, digits, '_', '-' and '.' only"}
	}

	if cfg.Efficiency == nil && cfg.Expression == nil && cfg.Polysome == nil {
		return ValidationError{"", "at least one of efficiency, expression or polysome is required"}
	}

	// === Efficiency ===
	if e := cfg.Efficiency; e != nil {
		if e.Source == "" {
			return ValidationError{"efficiency.source", "required"}
		}
		if err := validateUnique(e.Genes); err != nil {
			return ValidationError{"efficiency.genes", err.Error()}
		}
	}

	// === Expression ===
	if x := cfg.Expression; x != nil {
		required := []struct{ field, value string }{
			{"expression.source", x.Source},
			{"expression.target", x.Target},
			{"expression.reference", x.Reference},
			{"expression.control_condition", x.ControlCondition},
			{"expression.experimental_condition", x.ExperimentalCondition},
		}
		for _, r := range required {
			if r.value == "" {
				return ValidationError{r.field, "required"}
			}
		}
		if x.Target == x.Reference {
			return ValidationError{"expression.reference", "must differ from target"}
		}
		if x.ControlCondition == x.ExperimentalCondition {
			return ValidationError{"expression.experimental_condition", "must differ from control_condition"}
		}
		if err := validateEfficiency(x.TargetEfficiency, "expression.target_efficiency"); err != nil {
			return err
		}
		if err := validateEfficiency(x.ReferenceEfficiency, "expression.reference_efficiency"); err != nil {
			return err
		}

		// 효율 출처: override 또는 S1 섹션
		for _, gene := range []struct {
			name     string
			override *float64
			field    string
		}{
			{x.Target, x.TargetEfficiency, "expression.target_efficiency"},
			{x.Reference, x.ReferenceEfficiency, "expression.reference_efficiency"},
		} {
			if gene.override != nil {
				continue
			}
			if !cfg.fitsGene(gene.name) {
				return ValidationError{gene.field, fmt.Sprintf("required unless efficiency fits gene %q", gene.name)}
			}
		}
	}

	// === Polysome ===
	if p := cfg.Polysome; p != nil {
		if p.Source == "" {
			return ValidationError{"polysome.source", "required"}
		}
		seen := make(map[ProfileTarget]bool)
		for i, t := range p.Profiles {
			field := fmt.Sprintf("polysome.profiles[%d]", i)
			if t.Gene == "" || t.Condition == "" {
				return ValidationError{field, "gene and condition are required"}
			}
			if seen[t] {
				return ValidationError{field, "duplicate profile"}
			}
			seen[t] = true
		}
	}

	// === Output ===
	switch cfg.Output.Format {
	case "csv", "json", "text":
	default:
		return ValidationError{"output.format", "must be csv, json or text"}
	}

	return nil
}

// Acceptable primer efficiency window (%)
const (
	EfficiencyMin = 90.0
	EfficiencyMax = 110.0
)

// Warn returns recommendations that do not stop the run
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if x := cfg.Expression; x != nil {
		for _, eff := range []*float64{x.TargetEfficiency, x.ReferenceEfficiency} {
			if eff != nil && (*eff < EfficiencyMin || *eff > EfficiencyMax) {
				warnings = append(warnings, Warning{
					Code:    "EFFICIENCY_RANGE",
					Message: fmt.Sprintf("efficiency %.2f%% outside 90–110%%: check the primer pair", *eff),
				})
			}
		}
		if cfg.Efficiency != nil && x.TargetEfficiency != nil && x.ReferenceEfficiency != nil {
			warnings = append(warnings, Warning{
				Code:    "EFFICIENCY_OVERRIDE",
				Message: "both efficiencies are overridden; fitted values are not used for expression",
			})
		}
	}

	if cfg.Output.Dir == "" {
		warnings = append(warnings, Warning{
			Code:    "STDOUT_OUTPUT",
			Message: "output.dir not set: tables go to stdout",
		})
	}

	return warnings
}

// fitsGene reports whether the efficiency section will produce a fit for gene
func (c *Config) fitsGene(gene string) bool {
	if c.Efficiency == nil {
		return false
	}
	if len(c.Efficiency.Genes) == 0 {
		return true
	}
	for _, g := range c.Efficiency.Genes {
		if g == gene {
			return true
		}
	}
	return false
}

// === Helper Functions ===

func validateEfficiency(eff *float64, field string) error {
	if eff == nil {
		return nil
	}
	if math.IsNaN(*eff) || math.IsInf(*eff, 0) || *eff <= -100 {
		return ValidationError{field, "must be a finite percentage > -100"}
	}
	return nil
}

func validateUnique(values []string) error {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" {
			return errors.New("empty entry")
		}
		if seen[v] {
			return fmt.Errorf("duplicate %q", v)
		}
		seen[v] = true
	}
	return nil
}

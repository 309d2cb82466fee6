package contracts

// DilutionPoint is one tidy row of a dilution series on the regression axes
type DilutionPoint struct {
	Gene        string  `json:"gene"`
	Replicate   int     `json:"replicate"`
	Dilution    float64 `json:"dilution"`
	LogDilution float64 `json:"log_dilution"`
	CtMean      float64 `json:"ct_mean"`
	CtSEM       float64 `json:"ct_sem"`
}

// EfficiencyResult is the primer efficiency fit for one gene
// ⭐ SSOT: S1 → S2 효율 전달
type EfficiencyResult struct {
	Gene              string          `json:"gene"`
	Slope             float64         `json:"slope"`
	Intercept         float64         `json:"intercept"`
	StdErr            float64         `json:"std_err"`
	R                 float64         `json:"r"`
	PValue            float64         `json:"p_value"`
	EfficiencyPercent float64         `json:"efficiency_percent"`
	Points            []DilutionPoint `json:"points,omitempty"`
}

// RSquared returns the coefficient of determination
func (e *EfficiencyResult) RSquared() float64 {
	return e.R * e.R
}

// AmplificationFactor converts the efficiency percentage to the per-cycle
// amplification factor (100% → 2.0)
func (e *EfficiencyResult) AmplificationFactor() float64 {
	return e.EfficiencyPercent/100 + 1
}

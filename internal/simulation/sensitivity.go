package simulation

import (
	"fmt"
	"math"
)

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// Elasticity thresholds for risk tiering.
const (
	lowRiskElasticity    = 0.5
	mediumRiskElasticity = 1.5
)

type (
	// RiskTier buckets an elasticity score for display.
	RiskTier string

	// Scenario is one perturbed run of the simulator.
	Scenario struct {
		PercentOffset  float64 `json:"percent_offset"`
		PerturbedValue float64 `json:"perturbed_value"`
		Result         *Result `json:"result"`
		PercentImpact  float64 `json:"percent_impact_on_final_value"`
	}

	// SensitivityResult reports how strongly the final balance reacts to
	// one input parameter. Elasticity is a finite-difference local
	// estimate, not a true derivative: it approximates, it does not
	// guarantee linearity.
	SensitivityResult struct {
		ParameterName string     `json:"parameter_name"`
		Scenarios     []Scenario `json:"scenarios"`
		Elasticity    float64    `json:"elasticity"`
		RiskTier      RiskTier   `json:"risk_tier"`
	}
)

// DefaultOffsets is the perturbation grid used when the caller does not
// supply one.
var DefaultOffsets = []float64{-20, -10, -5, 0, 5, 10, 20}

// AnalyzeSensitivity perturbs one numeric input by each percentage offset,
// re-runs the simulation, and derives an elasticity score: the mean of
// |percent impact / offset| over all non-zero offsets (the zero offset is
// excluded to avoid a zero denominator).
func AnalyzeSensitivity(base Input, parameter string, offsets []float64) (*SensitivityResult, error) {
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if len(offsets) == 0 {
		offsets = DefaultOffsets
	}

	baseline, err := Simulate(base)
	if err != nil {
		return nil, err
	}

	res := &SensitivityResult{
		ParameterName: parameter,
		Scenarios:     make([]Scenario, 0, len(offsets)),
	}

	var ratioSum float64
	var ratioCount int

	for _, offset := range offsets {
		perturbed, value, err := perturb(base, parameter, offset)
		if err != nil {
			return nil, err
		}
		result, err := Simulate(perturbed)
		if err != nil {
			return nil, err
		}

		var impact float64
		if baseline.FinalBalance != 0 {
			impact = (result.FinalBalance - baseline.FinalBalance) / baseline.FinalBalance * 100
		}
		res.Scenarios = append(res.Scenarios, Scenario{
			PercentOffset:  offset,
			PerturbedValue: value,
			Result:         result,
			PercentImpact:  impact,
		})

		if offset != 0 {
			ratioSum += math.Abs(impact / offset)
			ratioCount++
		}
	}

	if ratioCount > 0 {
		res.Elasticity = ratioSum / float64(ratioCount)
	}
	res.RiskTier = tierFor(res.Elasticity)
	return res, nil
}

func tierFor(elasticity float64) RiskTier {
	switch {
	case elasticity < lowRiskElasticity:
		return RiskLow
	case elasticity < mediumRiskElasticity:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// perturb builds a copy of the input with one parameter scaled by
// (1 + offset/100), returning the perturbed value as well.
func perturb(in Input, parameter string, offset float64) (Input, float64, error) {
	factor := 1 + offset/100
	switch parameter {
	case "initial_value":
		in.InitialValue *= factor
		return in, in.InitialValue, nil
	case "monthly_value":
		in.MonthlyValue *= factor
		return in, in.MonthlyValue, nil
	case "annual_rate_percent":
		in.AnnualRatePercent *= factor
		return in, in.AnnualRatePercent, nil
	case "annual_inflation_percent":
		in.AnnualInflationPercent *= factor
		return in, in.AnnualInflationPercent, nil
	default:
		return in, 0, fmt.Errorf("unknown parameter: %q", parameter)
	}
}

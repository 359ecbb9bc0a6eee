// Package personality projects a normalized Big Five (OCEAN) assessment into
// the single memory-stability scalar consumed by the retention kernel.
// Weights follow the regression reported by Sutin et al. (2022): openness and
// conscientiousness stabilize memory, neuroticism erodes it.
package personality

import (
	"math"

	"made/internal/types"
)

const (
	weightOpenness          = 0.235
	weightConscientiousness = 0.229
	weightExtraversion      = 0.170
	weightAgreeableness     = 0.076
	weightNeuroticism       = -0.192
	baseFactor              = 1.0

	// MinPFactor and MaxPFactor bound the stability scalar.
	MinPFactor = 0.5
	MaxPFactor = 1.5

	// DefaultDimension substitutes for a dimension the caller did not supply.
	DefaultDimension = 0.5
)

// Project maps a normalized OCEAN vector to its p_factor: the weighted sum is
// rounded to four decimals, then clamped to [MinPFactor, MaxPFactor].
func Project(s types.OceanScores) float64 {
	p := baseFactor +
		weightOpenness*s.Openness +
		weightConscientiousness*s.Conscientiousness +
		weightExtraversion*s.Extraversion +
		weightAgreeableness*s.Agreeableness +
		weightNeuroticism*s.Neuroticism
	return clamp(MinPFactor, MaxPFactor, round4(p))
}

// Breakdown explains a projection: per-dimension contributions, the unclamped
// sum, and whether clamping changed the result.
type Breakdown struct {
	PFactor       float64            `json:"p_factor"`
	Unclamped     float64            `json:"p_factor_unclamped"`
	Contributions map[string]float64 `json:"contributions"`
	WasClamped    bool               `json:"was_clamped"`
}

// ProjectWithBreakdown is Project plus the per-dimension accounting. PFactor
// always equals Project(s).
func ProjectWithBreakdown(s types.OceanScores) Breakdown {
	contributions := map[string]float64{
		"base":              baseFactor,
		"openness":          round4(weightOpenness * s.Openness),
		"conscientiousness": round4(weightConscientiousness * s.Conscientiousness),
		"extraversion":      round4(weightExtraversion * s.Extraversion),
		"agreeableness":     round4(weightAgreeableness * s.Agreeableness),
		"neuroticism":       round4(weightNeuroticism * s.Neuroticism),
	}
	raw := baseFactor +
		weightOpenness*s.Openness +
		weightConscientiousness*s.Conscientiousness +
		weightExtraversion*s.Extraversion +
		weightAgreeableness*s.Agreeableness +
		weightNeuroticism*s.Neuroticism
	clamped := clamp(MinPFactor, MaxPFactor, round4(raw))
	return Breakdown{
		PFactor:       clamped,
		Unclamped:     round4(raw),
		Contributions: contributions,
		WasClamped:    round4(raw) != clamped,
	}
}

// FromMap assembles a score vector from the canonical lowercase dimension
// names. Absent dimensions default to DefaultDimension; unknown keys are
// ignored.
func FromMap(dims map[string]float64) types.OceanScores {
	get := func(key string) float64 {
		if v, ok := dims[key]; ok {
			return v
		}
		return DefaultDimension
	}
	return types.OceanScores{
		Openness:          get("openness"),
		Conscientiousness: get("conscientiousness"),
		Extraversion:      get("extraversion"),
		Agreeableness:     get("agreeableness"),
		Neuroticism:       get("neuroticism"),
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

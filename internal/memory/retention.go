// Package memory implements the two-phase forgetting curve and the signals
// derived from it: confidence, reconstruction, task priority, and urgency.
//
// The curve follows Ebbinghaus-style exponential decay (Murre & Dros, 2015)
// split into a fast phase down to 40% retention and a slow phase below it,
// floored at the 30% reconstruction threshold (Parks & Yonelinas, 2009).
// Personality enters through the stability scalar produced by the
// personality package.
package memory

import (
	"encoding/json"
	"math"
	"time"
)

const (
	// SFast and SSlow are the phase time constants in game-days.
	SFast = 1.47
	SSlow = 4.07

	// TransitionThreshold is the retention at which decay shifts phases.
	TransitionThreshold = 0.40

	// ReconstructionFloor is both the kernel's output floor and the level at
	// which the degradation monitor halts. Keep the two coupled.
	ReconstructionFloor = 0.30

	// MinStability and MaxStability bound the personality scalar accepted by
	// the kernel.
	MinStability = 0.5
	MaxStability = 1.5

	// DefaultScaleSecondsPerDay maps one real minute to one game-day.
	DefaultScaleSecondsPerDay = 60.0
)

// Phase identifies which branch of the curve produced a retention value.
type Phase int

const (
	PhaseFast Phase = iota
	PhaseSlow
)

// String renders the wire form persisted in records and embedded in prompts.
func (p Phase) String() string {
	if p == PhaseSlow {
		return "Phase 2 (Slow)"
	}
	return "Phase 1 (Fast)"
}

// MarshalJSON serializes the phase as its wire string.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Retention evaluates the curve at an elapsed number of game-days.
//
// It returns the retention fraction rounded to four decimals, the phase, and
// the phase-relative elapsed time: days themselves while fast, days past the
// transition once slow. The fast branch starts at R(0) = pFactor, so values
// above 1.0 are possible near day zero for strong stabilities. The slow
// branch never returns below ReconstructionFloor.
func Retention(pFactor, days float64) (float64, Phase, float64) {
	pFactor = clamp(MinStability, MaxStability, pFactor)
	if days < 0 {
		days = 0
	}

	rFast := pFactor * math.Exp(-days/SFast)
	if rFast >= TransitionThreshold {
		return round4(rFast), PhaseFast, days
	}

	// Continue from the exact crossing so the curve stays continuous.
	timeInSlow := days - TransitionDay(pFactor)
	rSlow := TransitionThreshold * math.Exp(-timeInSlow/SSlow)
	return round4(math.Max(ReconstructionFloor, rSlow)), PhaseSlow, timeInSlow
}

// TransitionDay returns t*, the game-day at which the fast branch decays to
// the transition threshold for the given stability.
func TransitionDay(pFactor float64) float64 {
	pFactor = clamp(MinStability, MaxStability, pFactor)
	return -SFast * math.Log(TransitionThreshold/pFactor)
}

// Diag is the human-facing view of one clocked kernel evaluation. SlowTime
// stays 0 until the slow phase begins.
type Diag struct {
	GameDays    float64 `json:"game_days"`
	RealSeconds int     `json:"real_seconds"`
	Phase       Phase   `json:"phase"`
	SlowTime    float64 `json:"slow_time"`
}

// RetentionSince converts elapsed wall time between createdAt and now into
// game-days at the given scale and evaluates the curve. A scale at or below
// zero falls back to DefaultScaleSecondsPerDay. The kernel itself never
// consults a clock; callers supply now.
func RetentionSince(pFactor float64, createdAt, now time.Time, scaleSecondsPerDay float64) (float64, Diag, Phase) {
	if scaleSecondsPerDay <= 0 {
		scaleSecondsPerDay = DefaultScaleSecondsPerDay
	}

	realSeconds := now.Sub(createdAt).Seconds()
	gameDays := realSeconds / scaleSecondsPerDay

	r, phase, slowTime := Retention(pFactor, gameDays)

	diag := Diag{
		GameDays:    round2(gameDays),
		RealSeconds: int(realSeconds),
		Phase:       phase,
	}
	if phase == PhaseSlow {
		diag.SlowTime = round2(slowTime)
	}
	return r, diag, phase
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
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

package memory

import (
	"fmt"
	"math"
	"strconv"
)

// ExpiredPriority is the pinned priority for a task whose available time has
// run out.
const ExpiredPriority = 10.0

// DefaultAlpha controls how strongly task importance modulates the alternate
// kernel's stability.
const DefaultAlpha = 0.5

// Priority computes Vk = Kk * (TRk / TAk) for a task, rounded to four
// decimals, with its display message. Available time at or below zero pins
// the result to ExpiredPriority.
func Priority(importance, requiredTime, availableTime float64) (float64, string) {
	if availableTime <= 0 {
		return ExpiredPriority, "Critical Priority (Time Expired)"
	}
	v := round4(importance * (requiredTime / availableTime))
	return v, "Priority Vk: " + strconv.FormatFloat(v, 'g', -1, 64)
}

// Urgency describes deadline pressure for a task. It is independent of
// memory retention and feeds scheduling displays only.
type Urgency struct {
	Ratio         float64 `json:"urgency"`
	Status        string  `json:"status"`
	PriorityLevel string  `json:"priority_level"`
	Message       string  `json:"message"`
	TimeRemaining float64 `json:"time_remaining"`
	TimeRequired  float64 `json:"time_required"`
}

// UrgencyFactor classifies Uk = TRk / TAk following the Alister et al. (2024)
// goal prioritization bands. An exhausted deadline reports +Inf and OVERDUE;
// a task needing no time reports 0 and COMPLETED.
func UrgencyFactor(timeRemaining, timeRequired float64) Urgency {
	if timeRemaining <= 0 {
		return Urgency{
			Ratio:         math.Inf(1),
			Status:        "OVERDUE",
			PriorityLevel: "CRITICAL",
			Message:       "Task is past deadline!",
			TimeRemaining: timeRemaining,
			TimeRequired:  timeRequired,
		}
	}
	if timeRequired <= 0 {
		return Urgency{
			Ratio:         0,
			Status:        "COMPLETED",
			PriorityLevel: "NONE",
			Message:       "No time required - task may be complete",
			TimeRemaining: timeRemaining,
			TimeRequired:  timeRequired,
		}
	}

	ratio := timeRequired / timeRemaining
	u := Urgency{
		Ratio:         ratio,
		TimeRemaining: timeRemaining,
		TimeRequired:  timeRequired,
	}
	switch {
	case ratio >= 0.9:
		u.Status = "URGENT"
		u.PriorityLevel = "HIGH"
		u.Message = fmt.Sprintf("Urgent! Need %.1f units, have %.1f", timeRequired, timeRemaining)
	case ratio >= 0.5:
		u.Status = "MODERATE"
		u.PriorityLevel = "MEDIUM"
		u.Message = fmt.Sprintf("Moderate urgency: %.0f%% of time needed", ratio*100)
	default:
		u.Status = "COMFORTABLE"
		u.PriorityLevel = "LOW"
		u.Message = fmt.Sprintf("Comfortable: %.1fx time available", timeRemaining/timeRequired)
	}
	return u
}

// PriorityMultiplier maps task importance onto the stability multiplier of
// the alternate kernel: Vk = 1 + (Kk - 0.5) * alpha, clamped to [0.5, 1.5].
// Importance is clamped to [0, 1] first; 0.5 is neutral.
func PriorityMultiplier(importance, alpha float64) float64 {
	importance = clamp(0, 1, importance)
	return clamp(0.5, 1.5, 1.0+(importance-0.5)*alpha)
}

// PriorityRetention is one evaluation of the priority-modulated kernel.
type PriorityRetention struct {
	Retention          float64 `json:"retention"`
	MemoryState        string  `json:"memory_state"`
	Confidence         string  `json:"confidence"`
	PriorityMultiplier float64 `json:"priority_multiplier"`
	EffectiveStability float64 `json:"effective_stability"`
}

// RetentionWithPriority evaluates the alternate single-phase kernel
// R(t) = exp(-t / (S * P * Vk)), where importance scales stability through
// PriorityMultiplier. High-importance memories decay slower. The degradation
// monitor does not consult this kernel.
func RetentionWithPriority(baseStability, pFactor, importance, timeElapsed, alpha float64) PriorityRetention {
	vk := PriorityMultiplier(importance, alpha)
	effective := baseStability * pFactor * vk

	var retention float64
	if effective > 0 {
		retention = math.Exp(-timeElapsed / effective)
	}

	out := PriorityRetention{
		Retention:          round4(retention),
		PriorityMultiplier: round4(vk),
		EffectiveStability: round2(effective),
	}
	switch {
	case retention >= 0.7:
		out.MemoryState = "STRONG"
		out.Confidence = "High"
	case retention >= 0.4:
		out.MemoryState = "MODERATE"
		out.Confidence = "Medium"
	case retention >= 0.2:
		out.MemoryState = "WEAK"
		out.Confidence = "Low"
	default:
		out.MemoryState = "CRITICAL"
		out.Confidence = "Very Low - Reconstruction Needed"
	}
	return out
}

// PriorityComparison pairs a labeled importance level with its outcome under
// the alternate kernel.
type PriorityComparison struct {
	Label      string
	Importance float64
	Result     PriorityRetention
}

// ComparePriorityEffects evaluates the alternate kernel across the standard
// importance ladder, highest first. Used by the simulate command to show how
// priority separates otherwise identical memories.
func ComparePriorityEffects(baseStability, pFactor, timeElapsed, alpha float64) []PriorityComparison {
	levels := []PriorityComparison{
		{Label: "Critical (1.0)", Importance: 1.0},
		{Label: "High (0.8)", Importance: 0.8},
		{Label: "Medium (0.5)", Importance: 0.5},
		{Label: "Low (0.3)", Importance: 0.3},
		{Label: "Minimal (0.1)", Importance: 0.1},
	}
	for i := range levels {
		levels[i].Result = RetentionWithPriority(baseStability, pFactor, levels[i].Importance, timeElapsed, alpha)
	}
	return levels
}

// Package risk computes injury-risk scores from an athlete's daily report
// history. The engine is pure: identical input yields identical output, and
// nothing here touches storage — callers persist the result.
//
// Scoring combines the acute:chronic workload ratio (7-day load vs the
// preceding 7-day baseline), the latest fatigue reading, and a set of
// ordered violation checks.
package risk

import (
	"errors"
	"math"
	"time"

	"github.com/physioline/physioline/internal/report"
)

// ErrNoReports is returned when the engine is asked to score an empty history.
var ErrNoReports = errors.New("no reports to score")

// Level buckets the numeric score for coaches and physios.
type Level string

const (
	LevelLow      Level = "Low"
	LevelModerate Level = "Moderate"
	LevelHigh     Level = "High"
)

// Violation tags, appended in evaluation order.
const (
	ViolationWorkloadSpike      = "Workload Spike"
	ViolationSymptomPersistence = "Symptom Persistence"
	ViolationStrengthImbalance  = "Strength Imbalance"
	ViolationFatigueSleep       = "Fatigue/Sleep"
)

// Recommendations, one per violation plus the all-clear default.
const (
	RecommendReduceLoad      = "Reduce training load and increase recovery time."
	RecommendPhysioEval      = "Physio evaluation recommended."
	RecommendStrengthWork    = "Targeted strength work advised."
	RecommendPrioritizeSleep = "Prioritize sleep and recovery."
	RecommendMaintain        = "Maintain current plan and monitor."
)

const (
	acwrWindow        = 7
	acwrSpikeLimit    = 1.5
	symptomWindow     = 3
	symptomThreshold  = 2
	stabilityFloor    = 5
	imbalanceGap      = 3
	fatigueLimit      = 7
	sleepFloor        = 6.0
	highThreshold     = 0.7
	moderateThreshold = 0.4
)

// Score is the computed risk record for one (athlete, date).
type Score struct {
	ID             string    `json:"id,omitempty"`
	AthleteID      string    `json:"athleteId"`
	Date           time.Time `json:"date"`
	Level          Level     `json:"level"`
	Score          float64   `json:"score"`
	Violations     []string  `json:"violations"`
	Recommendation string    `json:"recommendation"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// Compute scores an athlete's report history. Reports must be ordered by
// date ascending; the last element is treated as the latest. Near the start
// of a history both ACWR windows may be shorter than seven reports and are
// averaged over whatever is available.
func Compute(reports []report.DailyReport) (*Score, error) {
	if len(reports) == 0 {
		return nil, ErrNoReports
	}

	latest := reports[len(reports)-1]

	recent := durations(reports[max(0, len(reports)-acwrWindow):])
	prior := durations(reports[max(0, len(reports)-3*acwrWindow):max(0, len(reports)-acwrWindow)])

	// Neutral default when there is no prior baseline — avoids
	// divide-by-zero amplification on short histories.
	acwr := 1.0
	if avg(prior) > 0 {
		acwr = avg(recent) / avg(prior)
	}

	var violations []string
	if acwr > acwrSpikeLimit {
		violations = append(violations, ViolationWorkloadSpike)
	}
	if symptomPersistence(reports) {
		violations = append(violations, ViolationSymptomPersistence)
	}
	if abs(latest.KneeStabilityL-latest.KneeStabilityR) >= imbalanceGap {
		violations = append(violations, ViolationStrengthImbalance)
	}
	if latest.FatigueLevel >= fatigueLimit || latest.SleepHours < sleepFloor {
		violations = append(violations, ViolationFatigueSleep)
	}

	raw := (acwr-1)*0.5 + float64(latest.FatigueLevel)/10*0.3 + float64(len(violations))*0.1
	score := clamp01(raw)

	return &Score{
		AthleteID:      latest.AthleteID,
		Date:           latest.Date,
		Level:          LevelFor(score),
		Score:          score,
		Violations:     violations,
		Recommendation: recommend(violations),
	}, nil
}

// LevelFor buckets a clamped score. Boundaries are inclusive at the top:
// 0.7 is High, 0.4 is Moderate.
func LevelFor(score float64) Level {
	switch {
	case score >= highThreshold:
		return LevelHigh
	case score >= moderateThreshold:
		return LevelModerate
	default:
		return LevelLow
	}
}

// symptomPersistence reports whether at least two of the last three reports
// show a sub-threshold knee stability reading on either side. Shorter
// histories are evaluated over whatever is available.
func symptomPersistence(reports []report.DailyReport) bool {
	window := reports[max(0, len(reports)-symptomWindow):]
	count := 0
	for _, r := range window {
		if r.KneeStabilityL < stabilityFloor || r.KneeStabilityR < stabilityFloor {
			count++
		}
	}
	return count >= symptomThreshold
}

// recommend picks the first matching rule in violation priority order.
func recommend(violations []string) string {
	has := func(tag string) bool {
		for _, v := range violations {
			if v == tag {
				return true
			}
		}
		return false
	}

	switch {
	case has(ViolationWorkloadSpike):
		return RecommendReduceLoad
	case has(ViolationSymptomPersistence):
		return RecommendPhysioEval
	case has(ViolationStrengthImbalance):
		return RecommendStrengthWork
	case has(ViolationFatigueSleep):
		return RecommendPrioritizeSleep
	default:
		return RecommendMaintain
	}
}

func durations(reports []report.DailyReport) []float64 {
	out := make([]float64, len(reports))
	for i, r := range reports {
		out[i] = float64(r.TrainingDuration)
	}
	return out
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

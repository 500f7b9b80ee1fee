// Package report holds the daily physical report submitted by athletes:
// training duration, fatigue, sleep, and left/right knee stability readings.
// Reports are immutable once stored and are the sole input to the risk engine.
package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrValidation wraps all out-of-range or malformed report input.
// Rejected before any mutation reaches the store.
var ErrValidation = errors.New("invalid report")

// DailyReport is one athlete-submitted report. Knee stability readings are
// 1–10 self-assessments per leg; fatigue is a 1–10 scale.
type DailyReport struct {
	ID               string    `json:"id"`
	AthleteID        string    `json:"athleteId"`
	Date             time.Time `json:"date"`
	TrainingDuration int       `json:"trainingDuration"` // minutes
	FatigueLevel     int       `json:"fatigueLevel"`     // 1–10
	SleepHours       float64   `json:"sleepHours"`       // 0–24
	KneeStabilityL   int       `json:"kneeStabilityL"`   // 1–10
	KneeStabilityR   int       `json:"kneeStabilityR"`   // 1–10
	CreatedAt        time.Time `json:"createdAt"`
}

// New validates the raw fields and returns a report with a fresh id.
// Invalid instances never enter the store.
func New(athleteID string, date time.Time, trainingDuration, fatigueLevel int, sleepHours float64, kneeL, kneeR int) (*DailyReport, error) {
	if athleteID == "" {
		return nil, fmt.Errorf("%w: athleteId is required", ErrValidation)
	}
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if trainingDuration < 0 {
		return nil, fmt.Errorf("%w: trainingDuration must be >= 0, got %d", ErrValidation, trainingDuration)
	}
	if fatigueLevel < 1 || fatigueLevel > 10 {
		return nil, fmt.Errorf("%w: fatigueLevel must be in [1,10], got %d", ErrValidation, fatigueLevel)
	}
	if sleepHours < 0 || sleepHours > 24 {
		return nil, fmt.Errorf("%w: sleepHours must be in [0,24], got %g", ErrValidation, sleepHours)
	}
	if kneeL < 1 || kneeL > 10 {
		return nil, fmt.Errorf("%w: kneeStabilityL must be in [1,10], got %d", ErrValidation, kneeL)
	}
	if kneeR < 1 || kneeR > 10 {
		return nil, fmt.Errorf("%w: kneeStabilityR must be in [1,10], got %d", ErrValidation, kneeR)
	}

	return &DailyReport{
		ID:               uuid.NewString(),
		AthleteID:        athleteID,
		Date:             date.UTC(),
		TrainingDuration: trainingDuration,
		FatigueLevel:     fatigueLevel,
		SleepHours:       sleepHours,
		KneeStabilityL:   kneeL,
		KneeStabilityR:   kneeR,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

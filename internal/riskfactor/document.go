// Package riskfactor maintains one bounded document per athlete holding the
// five coach/physio-submitted indicator series plus free-text notes. Each
// series keeps insertion order and is FIFO-truncated at a configured cap so
// the document never grows unbounded — recent history is the
// decision-relevant part.
package riskfactor

import (
	"errors"
	"fmt"
	"time"
)

// DefaultSeriesCap bounds each series; the oldest entries are evicted first.
const DefaultSeriesCap = 1000

// ErrValidation wraps all rejected input. Validation happens before any
// mutation so the store is never partially applied.
var ErrValidation = errors.New("invalid risk factor input")

// Series identifies one of the five indicator sequences.
type Series string

const (
	SeriesWorkload             Series = "workload"
	SeriesMentalRecovery       Series = "mentalRecovery"
	SeriesStrengthAsymmetry    Series = "strengthAsymmetry"
	SeriesNeuromuscularControl Series = "neuromuscularControl"
	SeriesAnatomicalFixedRisk  Series = "anatomicalFixedRisk"
)

// ParseSeries validates a series name from the API path.
func ParseSeries(name string) (Series, error) {
	s := Series(name)
	switch s {
	case SeriesWorkload, SeriesMentalRecovery, SeriesStrengthAsymmetry,
		SeriesNeuromuscularControl, SeriesAnatomicalFixedRisk:
		return s, nil
	default:
		return "", fmt.Errorf("%w: unknown series %q", ErrValidation, name)
	}
}

// ReportType marks the cadence a value was collected at.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
)

// IsValid returns true if the report type is a known value.
func (rt ReportType) IsValid() bool {
	switch rt {
	case ReportDaily, ReportWeekly, ReportMonthly:
		return true
	default:
		return false
	}
}

// Entry is one indicator reading.
type Entry struct {
	Value      int        `json:"value"` // 1–10
	Date       time.Time  `json:"date"`
	ReportType ReportType `json:"reportType"`
}

// Note is one free-text observation.
type Note struct {
	Value string    `json:"value"`
	Date  time.Time `json:"date"`
}

// Document is the per-athlete aggregate, stored as a single jsonb row keyed
// by athlete id.
type Document struct {
	AthleteID            string  `json:"athleteId"`
	Workload             []Entry `json:"workload"`
	MentalRecovery       []Entry `json:"mentalRecovery"`
	StrengthAsymmetry    []Entry `json:"strengthAsymmetry"`
	NeuromuscularControl []Entry `json:"neuromuscularControl"`
	AnatomicalFixedRisk  []Entry `json:"anatomicalFixedRisk"`
	Notes                []Note  `json:"notes"`
}

// NewDocument returns an empty document for an athlete.
func NewDocument(athleteID string) *Document {
	return &Document{AthleteID: athleteID}
}

// AppendEntry validates and appends a reading to the chosen series, then
// truncates the series front to cap.
func (d *Document) AppendEntry(series Series, e Entry, limit int) error {
	if e.Value < 1 || e.Value > 10 {
		return fmt.Errorf("%w: value must be in [1,10], got %d", ErrValidation, e.Value)
	}
	if !e.ReportType.IsValid() {
		return fmt.Errorf("%w: unknown report type %q", ErrValidation, e.ReportType)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}

	target := d.seriesRef(series)
	if target == nil {
		return fmt.Errorf("%w: unknown series %q", ErrValidation, series)
	}
	*target = appendCapped(*target, e, limit)
	return nil
}

// AppendNote appends a free-text note under the same cap discipline.
func (d *Document) AppendNote(text string, date time.Time, limit int) error {
	if text == "" {
		return fmt.Errorf("%w: note text is required", ErrValidation)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrValidation)
	}
	d.Notes = appendCapped(d.Notes, Note{Value: text, Date: date}, limit)
	return nil
}

func (d *Document) seriesRef(series Series) *[]Entry {
	switch series {
	case SeriesWorkload:
		return &d.Workload
	case SeriesMentalRecovery:
		return &d.MentalRecovery
	case SeriesStrengthAsymmetry:
		return &d.StrengthAsymmetry
	case SeriesNeuromuscularControl:
		return &d.NeuromuscularControl
	case SeriesAnatomicalFixedRisk:
		return &d.AnatomicalFixedRisk
	default:
		return nil
	}
}

// appendCapped appends v and drops the oldest elements once the sequence
// exceeds cap.
func appendCapped[T any](s []T, v T, limit int) []T {
	s = append(s, v)
	if limit > 0 && len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}

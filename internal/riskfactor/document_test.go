package riskfactor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func entry(value int) Entry {
	return Entry{Value: value, Date: testDate, ReportType: ReportDaily}
}

func TestAppendEntry_PreservesOrder(t *testing.T) {
	doc := NewDocument("ath-1")

	for v := 1; v <= 5; v++ {
		require.NoError(t, doc.AppendEntry(SeriesWorkload, entry(v), DefaultSeriesCap))
	}

	require.Len(t, doc.Workload, 5)
	for i, e := range doc.Workload {
		assert.Equal(t, i+1, e.Value)
	}
	assert.Empty(t, doc.MentalRecovery, "other series untouched")
}

func TestAppendEntry_FIFOTruncation(t *testing.T) {
	const seriesCap = 1000
	doc := NewDocument("ath-1")

	for v := 0; v < seriesCap; v++ {
		require.NoError(t, doc.AppendEntry(SeriesNeuromuscularControl, entry(v%10+1), seriesCap))
	}
	require.Len(t, doc.NeuromuscularControl, seriesCap)
	oldest := doc.NeuromuscularControl[0]

	// The 1001st append keeps the length at the cap and evicts the oldest.
	require.NoError(t, doc.AppendEntry(SeriesNeuromuscularControl, entry(7), seriesCap))
	assert.Len(t, doc.NeuromuscularControl, seriesCap)
	assert.NotEqual(t, oldest, doc.NeuromuscularControl[0])
	assert.Equal(t, 7, doc.NeuromuscularControl[seriesCap-1].Value)
}

func TestAppendEntry_RejectsOutOfRange(t *testing.T) {
	doc := NewDocument("ath-1")

	err := doc.AppendEntry(SeriesWorkload, entry(0), DefaultSeriesCap)
	assert.ErrorIs(t, err, ErrValidation)

	err = doc.AppendEntry(SeriesWorkload, entry(11), DefaultSeriesCap)
	assert.ErrorIs(t, err, ErrValidation)

	err = doc.AppendEntry(SeriesWorkload, Entry{Value: 5, Date: testDate, ReportType: "yearly"}, DefaultSeriesCap)
	assert.ErrorIs(t, err, ErrValidation)

	err = doc.AppendEntry(Series("unknown"), entry(5), DefaultSeriesCap)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, doc.Workload, "rejected input must not partially apply")
}

func TestAppendNote(t *testing.T) {
	doc := NewDocument("ath-1")

	require.NoError(t, doc.AppendNote("limited ROM on left knee", testDate, 2))
	require.NoError(t, doc.AppendNote("swelling reduced", testDate, 2))
	require.NoError(t, doc.AppendNote("cleared for light drills", testDate, 2))

	require.Len(t, doc.Notes, 2)
	assert.Equal(t, "swelling reduced", doc.Notes[0].Value)
	assert.Equal(t, "cleared for light drills", doc.Notes[1].Value)

	err := doc.AppendNote("", testDate, 2)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseSeries(t *testing.T) {
	for _, name := range []string{"workload", "mentalRecovery", "strengthAsymmetry", "neuromuscularControl", "anatomicalFixedRisk"} {
		s, err := ParseSeries(name)
		require.NoError(t, err)
		assert.Equal(t, Series(name), s)
	}

	_, err := ParseSeries("notes")
	assert.ErrorIs(t, err, ErrValidation)
}

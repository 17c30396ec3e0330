package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTraceIsReconstructible(t *testing.T) {
	a := NewAnalyzer(nil, DefaultConfig())
	files, pr, history := testInputs()

	analysis, err := a.Analyze(context.Background(), files, pr, history)
	require.NoError(t, err)

	trace := analysis.AuditTrace
	require.NotNil(t, trace)
	assert.NotEmpty(t, trace.TraceID)
	assert.Equal(t, len(files), trace.FilesAnalyzed)
	assert.Equal(t, ScoreFormula, trace.Formula)
	assert.Len(t, trace.Signals, 6)
	assert.Equal(t, len(analysis.Mitigations), trace.MitigationCount)

	// The final score falls out of the embedded weights and signals.
	assert.InDelta(t, trace.FinalScore, trace.Recompute(), 0.001)
}

func TestTraceRoundTrip(t *testing.T) {
	trace := &AuditTrace{
		TraceID:         "8f2a1b3c",
		Timestamp:       time.Date(2025, time.March, 12, 14, 0, 0, 0, time.UTC),
		ExecutionTimeMs: 12,
		PRSummary:       `#42 "Tighten session expiry" by jordan`,
		FilesAnalyzed:   2,
		Formula:         ScoreFormula,
		Weights: map[string]float64{
			SignalChurn:           0.20,
			SignalCoverageGap:     0.20,
			SignalIncidentHotspot: 0.20,
			SignalFlakeProximity:  0.15,
			SignalDiffRisk:        0.15,
			SignalTimePressure:    0.10,
		},
		Signals: map[string]SignalTraceEntry{
			SignalChurn:           {Score: 0.6, Explanation: "peak churn 6", CitationCount: 1},
			SignalCoverageGap:     {Score: 0.7, Explanation: "1 of 2 uncovered", CitationCount: 1},
			SignalIncidentHotspot: {Score: 0, Explanation: "no hotspots"},
			SignalFlakeProximity:  {Score: 0.25, Explanation: "1 near-flaky", CitationCount: 1},
			SignalDiffRisk:        {Score: 0, Explanation: "small diff"},
			SignalTimePressure:    {Score: 0, Explanation: "business hours"},
		},
		FinalScore:      0.298,
		RiskLevel:       RiskLevelLow,
		MitigationCount: 2,
	}

	data, err := trace.ToJSON()
	require.NoError(t, err)

	parsed, err := ParseTrace(data)
	require.NoError(t, err)
	assert.Equal(t, trace, parsed)

	// Reapplying the formula to the embedded weights and signals
	// reproduces the recorded final score.
	assert.InDelta(t, parsed.FinalScore, parsed.Recompute(), 0.001)
}

func TestParseTraceRejectsGarbage(t *testing.T) {
	_, err := ParseTrace([]byte("not json"))
	assert.Error(t, err)
}

func TestRound3(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{0.1234, 0.123},
		{0.1235, 0.124}, // half rounds up
		{0.9999, 1.0},
		{1.0, 1.0},
		{0.0004, 0},
		{0.0005, 0.001},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Round3(tt.in), "Round3(%v)", tt.in)
	}
}

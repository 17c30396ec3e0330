package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCalculator struct {
	name  string
	score float64
	err   error
	panic bool
}

func (s *stubCalculator) Name() string { return s.name }

func (s *stubCalculator) Calculate(files []ChangedFile, pr PullRequestMeta, history *HistoryData) (SignalResult, error) {
	if s.panic {
		panic("boom")
	}
	if s.err != nil {
		return SignalResult{}, s.err
	}
	return SignalResult{Signal: s.name, Score: s.score, Explanation: "stub"}, nil
}

func testInputs() ([]ChangedFile, PullRequestMeta, *HistoryData) {
	files := []ChangedFile{
		{Filename: "internal/auth/session.go", Status: FileStatusModified, Additions: 120, Deletions: 40},
		{Filename: "internal/auth/session_test.go", Status: FileStatusModified, Additions: 60, Deletions: 10},
	}
	pr := PullRequestMeta{
		Number:    42,
		Title:     "Tighten session expiry",
		Author:    "jordan",
		CreatedAt: time.Date(2025, time.March, 12, 14, 0, 0, 0, time.UTC),
	}
	history := &HistoryData{
		Commits: commitsTouching("internal/auth/session.go", 6),
		Incidents: []IncidentRecord{
			{ID: "INC-7", Files: []string{"internal/auth/session.go"}, Severity: "high", Date: time.Now().AddDate(0, 0, -3)},
		},
		Coverage: map[string]float64{
			"internal/auth/session.go":      0.4,
			"internal/auth/session_test.go": 0.9,
		},
		Flakes: map[string]FlakeInfo{
			"internal/auth/session_test.go": {NearFlaky: true},
		},
	}
	return files, pr, history
}

func TestAnalyzeClassifiesLevels(t *testing.T) {
	a := NewAnalyzer(nil, DefaultConfig())

	tests := []struct {
		score    float64
		expected RiskLevel
	}{
		{0.0, RiskLevelLow},
		{0.29, RiskLevelLow},
		{0.30, RiskLevelMedium},
		{0.59, RiskLevelMedium},
		{0.60, RiskLevelHigh},
		{1.0, RiskLevelHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, a.classify(tt.score), "score %.2f", tt.score)
	}
}

func TestAnalyzeAggregatesWeightedSum(t *testing.T) {
	cfg := DefaultConfig()
	a := NewAnalyzer(nil, cfg)
	files, pr, history := testInputs()

	analysis, err := a.Analyze(context.Background(), files, pr, history)
	require.NoError(t, err)

	require.Len(t, analysis.Signals, 6)
	var want float64
	for _, name := range SignalOrder {
		result, ok := analysis.Signals[name]
		require.True(t, ok, "missing signal %s", name)
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 1.0)
		want += cfg.Weights[name] * result.Score
	}
	assert.Equal(t, Round3(want), analysis.Score)
	assert.GreaterOrEqual(t, analysis.Score, 0.0)
	assert.LessOrEqual(t, analysis.Score, 1.0)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	a := NewAnalyzer(nil, DefaultConfig())
	files, pr, history := testInputs()

	first, err := a.Analyze(context.Background(), files, pr, history)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), files, pr, history)
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.Level, second.Level)
	assert.Equal(t, first.Signals, second.Signals)
	assert.Equal(t, first.Mitigations, second.Mitigations)

	// Traces differ only in run-unique fields.
	assert.NotEqual(t, first.AuditTrace.TraceID, second.AuditTrace.TraceID)
	assert.Equal(t, first.AuditTrace.Weights, second.AuditTrace.Weights)
	assert.Equal(t, first.AuditTrace.Signals, second.AuditTrace.Signals)
	assert.Equal(t, first.AuditTrace.FinalScore, second.AuditTrace.FinalScore)
	assert.Equal(t, first.AuditTrace.RiskLevel, second.AuditTrace.RiskLevel)
}

func TestAnalyzeSurvivesFailingCalculator(t *testing.T) {
	cfg := DefaultConfig()
	logger, hook := logrustest.NewNullLogger()
	a := &Analyzer{
		logger: logger,
		cfg:    cfg,
		calculators: []SignalCalculator{
			&stubCalculator{name: SignalChurn, err: errors.New("malformed timestamp")},
			&stubCalculator{name: SignalCoverageGap, score: 0.8},
			&stubCalculator{name: SignalIncidentHotspot, panic: true},
			&stubCalculator{name: SignalFlakeProximity, score: 0.2},
			&stubCalculator{name: SignalDiffRisk, score: 0.4},
			&stubCalculator{name: SignalTimePressure, score: 0.1},
		},
	}

	analysis, err := a.Analyze(context.Background(), nil, PullRequestMeta{}, nil)
	require.NoError(t, err)

	assert.Zero(t, analysis.Signals[SignalChurn].Score)
	assert.Zero(t, analysis.Signals[SignalIncidentHotspot].Score)
	require.NotEmpty(t, analysis.Signals[SignalChurn].Citations)
	assert.Contains(t, analysis.Signals[SignalChurn].Citations[0].Note, "malformed timestamp")
	assert.Equal(t, 0.8, analysis.Signals[SignalCoverageGap].Score)

	want := Round3(cfg.Weights[SignalCoverageGap]*0.8 +
		cfg.Weights[SignalFlakeProximity]*0.2 +
		cfg.Weights[SignalDiffRisk]*0.4 +
		cfg.Weights[SignalTimePressure]*0.1)
	assert.Equal(t, want, analysis.Score)

	errorEntries := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel {
			errorEntries++
		}
	}
	assert.Equal(t, 2, errorEntries)
}

func TestNewAnalyzerWarnsOnBadWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights[SignalChurn] = 0.5 // sum is now 1.3

	logger, hook := logrustest.NewNullLogger()
	NewAnalyzer(logger, cfg)

	require.NotEmpty(t, hook.AllEntries())
	found := false
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			found = true
		}
	}
	assert.True(t, found, "expected a weight misconfiguration warning")
}

func TestValidateWeights(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.ValidateWeights())

	cfg.Weights[SignalTimePressure] = 0.11 // off by 0.01
	assert.Error(t, cfg.ValidateWeights())

	cfg.Weights[SignalTimePressure] = 0.1005 // inside tolerance
	assert.NoError(t, cfg.ValidateWeights())

	delete(cfg.Weights, SignalDiffRisk)
	assert.Error(t, cfg.ValidateWeights())
}

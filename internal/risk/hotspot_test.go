package risk

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incidentsFor(filename string, n int) []IncidentRecord {
	incidents := make([]IncidentRecord, n)
	for i := range incidents {
		incidents[i] = IncidentRecord{
			ID:       fmt.Sprintf("INC-%d", i+1),
			Files:    []string{filename},
			Severity: "high",
			Date:     time.Now().AddDate(0, 0, -i),
		}
	}
	return incidents
}

func TestIncidentHotspotScore(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 2, cfg.HotspotThreshold)
	calc := NewIncidentHotspotCalculator(cfg)

	t.Run("one hotspot of two files", func(t *testing.T) {
		files := []ChangedFile{
			{Filename: "payments/charge.go"},
			{Filename: "docs/readme.md"},
		}
		history := &HistoryData{Incidents: incidentsFor("payments/charge.go", 3)}

		result, err := calc.Calculate(files, PullRequestMeta{}, history)
		require.NoError(t, err)
		assert.Equal(t, 0.5, result.Score)
		require.Len(t, result.Citations, 1)
		assert.Equal(t, 3, result.Citations[0].Count)
	})

	t.Run("below threshold is not a hotspot", func(t *testing.T) {
		files := []ChangedFile{{Filename: "payments/charge.go"}}
		history := &HistoryData{Incidents: incidentsFor("payments/charge.go", 1)}

		result, err := calc.Calculate(files, PullRequestMeta{}, history)
		require.NoError(t, err)
		assert.Zero(t, result.Score)
		assert.Empty(t, result.Citations)
	})

	t.Run("stale incidents outside the window do not count", func(t *testing.T) {
		files := []ChangedFile{{Filename: "payments/charge.go"}}
		old := time.Now().AddDate(0, 0, -(cfg.LookbackDays + 5))
		history := &HistoryData{Incidents: []IncidentRecord{
			{ID: "INC-1", Files: []string{"payments/charge.go"}, Date: old},
			{ID: "INC-2", Files: []string{"payments/charge.go"}, Date: old},
		}}

		result, err := calc.Calculate(files, PullRequestMeta{}, history)
		require.NoError(t, err)
		assert.Zero(t, result.Score)
	})
}

func TestIncidentHotspotNoHistoryScoresZero(t *testing.T) {
	calc := NewIncidentHotspotCalculator(DefaultConfig())
	result, err := calc.Calculate([]ChangedFile{{Filename: "a.go"}}, PullRequestMeta{}, nil)
	require.NoError(t, err)
	assert.Zero(t, result.Score)
}

package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitsTouching(filename string, n int) []CommitRecord {
	commits := make([]CommitRecord, n)
	for i := range commits {
		commits[i] = CommitRecord{
			Files: []string{filename, "unrelated.go"},
			Date:  time.Now().AddDate(0, 0, -i),
		}
	}
	return commits
}

func TestChurnScore(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 10, cfg.HighChurnThreshold)

	tests := []struct {
		name     string
		commits  int
		expected float64
	}{
		{"no recent commits", 0, 0},
		{"half the threshold", 5, 0.5},
		{"exactly at threshold", 10, 1.0},
		{"beyond threshold clamps", 25, 1.0},
	}

	calc := NewChurnCalculator(cfg)
	files := []ChangedFile{{Filename: "internal/auth/session.go", Status: FileStatusModified}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history := &HistoryData{Commits: commitsTouching("internal/auth/session.go", tt.commits)}
			result, err := calc.Calculate(files, PullRequestMeta{}, history)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Score)
		})
	}
}

func TestChurnIgnoresCommitsOutsideLookback(t *testing.T) {
	cfg := DefaultConfig()
	calc := NewChurnCalculator(cfg)
	files := []ChangedFile{{Filename: "main.go"}}

	old := time.Now().AddDate(0, 0, -(cfg.LookbackDays + 10))
	history := &HistoryData{Commits: []CommitRecord{
		{Files: []string{"main.go"}, Date: old},
		{Files: []string{"main.go"}, Date: old.AddDate(0, 0, -1)},
	}}

	result, err := calc.Calculate(files, PullRequestMeta{}, history)
	require.NoError(t, err)
	assert.Zero(t, result.Score)
	assert.Empty(t, result.Citations)
}

func TestChurnCitationsOnlyForTouchedFiles(t *testing.T) {
	cfg := DefaultConfig()
	calc := NewChurnCalculator(cfg)
	files := []ChangedFile{
		{Filename: "touched.go"},
		{Filename: "untouched.go"},
	}
	history := &HistoryData{Commits: commitsTouching("touched.go", 12)}

	result, err := calc.Calculate(files, PullRequestMeta{}, history)
	require.NoError(t, err)
	require.Len(t, result.Citations, 1)
	assert.Equal(t, "touched.go", result.Citations[0].File)
	assert.Equal(t, 12, result.Citations[0].Count)
	assert.Contains(t, result.Citations[0].Note, "High churn")
}

func TestChurnEmptyHistoryScoresZero(t *testing.T) {
	calc := NewChurnCalculator(DefaultConfig())
	result, err := calc.Calculate([]ChangedFile{{Filename: "a.go"}}, PullRequestMeta{}, &HistoryData{})
	require.NoError(t, err)
	assert.Zero(t, result.Score)
}

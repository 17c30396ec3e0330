package risk

import (
	"fmt"
	"time"
)

// ChurnCalculator scores how actively the changed files have been modified
// recently. Frequent rewrites correlate with instability: the score is the
// highest per-file commit count within the lookback window, normalized by
// the high-churn threshold.
type ChurnCalculator struct {
	cfg *Config
}

func NewChurnCalculator(cfg *Config) *ChurnCalculator {
	return &ChurnCalculator{cfg: cfg}
}

func (c *ChurnCalculator) Name() string { return SignalChurn }

func (c *ChurnCalculator) Calculate(files []ChangedFile, pr PullRequestMeta, history *HistoryData) (SignalResult, error) {
	result := SignalResult{Signal: SignalChurn, Raw: map[string]int{}}

	if history == nil || len(history.Commits) == 0 || len(files) == 0 {
		result.Explanation = "No commit history available; churn treated as zero"
		return result, nil
	}

	cutoff := time.Now().AddDate(0, 0, -c.cfg.LookbackDays)

	maxChurn := 0
	filesWithHistory := 0
	var citations []Citation

	for _, f := range files {
		count := 0
		for _, commit := range history.Commits {
			if commit.Date.Before(cutoff) {
				continue
			}
			for _, name := range commit.Files {
				if name == f.Filename {
					count++
					break
				}
			}
		}
		if count == 0 {
			continue
		}
		filesWithHistory++
		if count > maxChurn {
			maxChurn = count
		}

		note := fmt.Sprintf("%d commits in last %d days", count, c.cfg.LookbackDays)
		if count >= c.cfg.HighChurnThreshold {
			note = "High churn: " + note
		}
		citations = append(citations, Citation{File: f.Filename, Count: count, Note: note})
	}

	result.Score = Round3(clamp01(float64(maxChurn) / float64(c.cfg.HighChurnThreshold)))
	result.Raw["max_commits"] = maxChurn
	result.Raw["files_with_recent_commits"] = filesWithHistory
	result.Citations = citations
	result.Explanation = fmt.Sprintf(
		"Peak churn is %d commits in the last %d days across %d of %d changed files (threshold %d)",
		maxChurn, c.cfg.LookbackDays, filesWithHistory, len(files), c.cfg.HighChurnThreshold,
	)
	return result, nil
}

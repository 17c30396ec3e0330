package risk

import (
	"fmt"
	"strings"
)

// CoverageGapCalculator scores how much of the change lands in untested
// code. A file counts as uncovered when its coverage ratio is unknown or
// below the configured floor; uncovered files matching a critical path
// pattern add a flat bonus each, unbounded before the final clamp.
type CoverageGapCalculator struct {
	cfg *Config
}

// criticalUncoveredBonus is added per uncovered file on a critical path.
const criticalUncoveredBonus = 0.2

func NewCoverageGapCalculator(cfg *Config) *CoverageGapCalculator {
	return &CoverageGapCalculator{cfg: cfg}
}

func (c *CoverageGapCalculator) Name() string { return SignalCoverageGap }

func (c *CoverageGapCalculator) Calculate(files []ChangedFile, pr PullRequestMeta, history *HistoryData) (SignalResult, error) {
	result := SignalResult{Signal: SignalCoverageGap, Raw: map[string]int{}}

	if history == nil || len(history.Coverage) == 0 || len(files) == 0 {
		result.Explanation = "No coverage data available; gap treated as zero"
		return result, nil
	}

	uncovered := 0
	criticalUncovered := 0
	var citations []Citation

	for _, f := range files {
		ratio, known := history.Coverage[f.Filename]
		if known && ratio >= c.cfg.MinCoverageThreshold {
			continue
		}
		uncovered++

		note := fmt.Sprintf("Coverage %.0f%% below the %.0f%% floor", ratio*100, c.cfg.MinCoverageThreshold*100)
		if !known {
			note = "No coverage data for this file"
		}
		if c.isCriticalPath(f.Filename) {
			criticalUncovered++
			note += " (critical path)"
		}
		citations = append(citations, Citation{File: f.Filename, Note: note})
	}

	score := float64(uncovered)/float64(len(files)) + criticalUncoveredBonus*float64(criticalUncovered)
	result.Score = Round3(clamp01(score))
	result.Raw["uncovered_files"] = uncovered
	result.Raw["critical_uncovered_files"] = criticalUncovered
	result.Raw["total_files"] = len(files)
	result.Citations = citations
	result.Explanation = fmt.Sprintf(
		"%d of %d changed files are uncovered, %d of them on critical paths",
		uncovered, len(files), criticalUncovered,
	)
	return result, nil
}

func (c *CoverageGapCalculator) isCriticalPath(filename string) bool {
	lower := strings.ToLower(filename)
	for _, pattern := range c.cfg.CriticalPathPatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

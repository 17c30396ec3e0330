package risk

import (
	"fmt"
)

// FlakeProximityCalculator scores how close the change sits to unstable
// tests. A flaky file contributes a full point, a near-flaky file half a
// point; the total is normalized by the number of changed files.
type FlakeProximityCalculator struct {
	cfg *Config
}

const (
	flakyWeight     = 1.0
	nearFlakyWeight = 0.5
)

func NewFlakeProximityCalculator(cfg *Config) *FlakeProximityCalculator {
	return &FlakeProximityCalculator{cfg: cfg}
}

func (c *FlakeProximityCalculator) Name() string { return SignalFlakeProximity }

func (c *FlakeProximityCalculator) Calculate(files []ChangedFile, pr PullRequestMeta, history *HistoryData) (SignalResult, error) {
	result := SignalResult{Signal: SignalFlakeProximity, Raw: map[string]int{}}

	if history == nil || len(history.Flakes) == 0 || len(files) == 0 {
		result.Explanation = "No flakiness data available; flake proximity treated as zero"
		return result, nil
	}

	total := 0.0
	flaky := 0
	nearFlaky := 0
	var citations []Citation

	for _, f := range files {
		info, ok := history.Flakes[f.Filename]
		if !ok {
			continue
		}
		switch {
		case info.IsFlaky:
			total += flakyWeight
			flaky++
			citations = append(citations, Citation{
				File: f.Filename,
				Note: fmt.Sprintf("Flaky: %.0f%% failure rate", info.FlakeRate*100),
			})
		case info.NearFlaky:
			total += nearFlakyWeight
			nearFlaky++
			citations = append(citations, Citation{File: f.Filename, Note: "Near-flaky test history"})
		}
	}

	result.Score = Round3(clamp01(total / float64(len(files))))
	result.Raw["flaky_files"] = flaky
	result.Raw["near_flaky_files"] = nearFlaky
	result.Raw["total_files"] = len(files)
	result.Citations = citations
	result.Explanation = fmt.Sprintf(
		"%d flaky and %d near-flaky files among %d changed files",
		flaky, nearFlaky, len(files),
	)
	return result, nil
}

package risk

import (
	"fmt"
	"strings"
)

// DiffRiskCalculator scores intrinsic properties of the diff itself: sheer
// size, credential-adjacent content, and dangerous code patterns. Each
// factor adds a flat amount once, regardless of how many files trip it.
type DiffRiskCalculator struct {
	cfg *Config
}

const (
	largeDiffRisk        = 0.3
	criticalContentRisk  = 0.3
	dangerousPatternRisk = 0.4
)

func NewDiffRiskCalculator(cfg *Config) *DiffRiskCalculator {
	return &DiffRiskCalculator{cfg: cfg}
}

func (c *DiffRiskCalculator) Name() string { return SignalDiffRisk }

func (c *DiffRiskCalculator) Calculate(files []ChangedFile, pr PullRequestMeta, history *HistoryData) (SignalResult, error) {
	result := SignalResult{Signal: SignalDiffRisk, Raw: map[string]int{}}

	if len(files) == 0 {
		result.Explanation = "No changed files; diff risk treated as zero"
		return result, nil
	}

	risk := 0.0
	var citations []Citation

	totalChanges := 0
	for _, f := range files {
		totalChanges += f.Additions + f.Deletions
	}
	if totalChanges > c.cfg.LargeDiffThreshold {
		risk += largeDiffRisk
		citations = append(citations, Citation{
			File:  "",
			Count: totalChanges,
			Note:  fmt.Sprintf("Large diff: %d changed lines (threshold %d)", totalChanges, c.cfg.LargeDiffThreshold),
		})
	}

	// Sensitive terms are matched case-insensitively against both the
	// filename and the patch body; dangerous code patterns are matched
	// case-sensitively against the raw patch only. Each category counts
	// once no matter how many hits occur.
	criticalHits := 0
	dangerousHits := 0
	for _, f := range files {
		lowerName := strings.ToLower(f.Filename)
		lowerPatch := strings.ToLower(f.Patch)

		if criticalHits == 0 {
			for _, pattern := range c.cfg.CriticalContentPatterns {
				p := strings.ToLower(pattern)
				if strings.Contains(lowerName, p) || strings.Contains(lowerPatch, p) {
					criticalHits++
					citations = append(citations, Citation{
						File: f.Filename,
						Note: fmt.Sprintf("Sensitive term %q in change", pattern),
					})
					break
				}
			}
		}

		if dangerousHits == 0 {
			for _, pattern := range c.cfg.DangerousCodePatterns {
				if strings.Contains(f.Patch, pattern) {
					dangerousHits++
					citations = append(citations, Citation{
						File: f.Filename,
						Note: fmt.Sprintf("Dangerous pattern %q in patch", pattern),
					})
					break
				}
			}
		}

		if criticalHits > 0 && dangerousHits > 0 {
			break
		}
	}
	if criticalHits > 0 {
		risk += criticalContentRisk
	}
	if dangerousHits > 0 {
		risk += dangerousPatternRisk
	}

	result.Score = Round3(clamp01(risk))
	result.Raw["total_changes"] = totalChanges
	result.Raw["critical_hits"] = criticalHits
	result.Raw["dangerous_hits"] = dangerousHits
	result.Citations = citations
	result.Explanation = fmt.Sprintf(
		"%d changed lines; sensitive content: %v, dangerous patterns: %v",
		totalChanges, criticalHits > 0, dangerousHits > 0,
	)
	return result, nil
}

package risk

import (
	"fmt"
	"strings"
)

var levelBadges = map[RiskLevel]string{
	RiskLevelLow:    "🟢",
	RiskLevelMedium: "🟡",
	RiskLevelHigh:   "🔴",
}

var signalTitles = map[string]string{
	SignalChurn:           "Code Churn",
	SignalCoverageGap:     "Coverage Gap",
	SignalIncidentHotspot: "Incident Hotspots",
	SignalFlakeProximity:  "Flake Proximity",
	SignalDiffRisk:        "Diff Risk",
	SignalTimePressure:    "Time Pressure",
}

// RenderSummary builds the markdown review body for a completed analysis,
// suitable for posting as review text.
func RenderSummary(pr PullRequestMeta, score float64, level RiskLevel, signals map[string]SignalResult, mitigations []Mitigation, traceID string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## %s Risk Radar: %s risk (%.3f)\n\n", levelBadges[level], level, score)
	fmt.Fprintf(&sb, "Analysis of #%d %q by @%s.\n\n", pr.Number, pr.Title, pr.Author)

	sb.WriteString("| Signal | Score | Evidence |\n")
	sb.WriteString("|--------|-------|----------|\n")
	for _, name := range SignalOrder {
		result, ok := signals[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "| %s | %.3f | %s |\n", signalTitles[name], result.Score, result.Explanation)
	}

	if len(mitigations) > 0 {
		sb.WriteString("\n### Suggested mitigations\n\n")
		for _, m := range mitigations {
			fmt.Fprintf(&sb, "- **%s** (%.3f):\n", signalTitles[m.Signal], m.Score)
			for _, s := range m.Suggestions {
				fmt.Fprintf(&sb, "  - %s\n", s)
			}
		}
		sb.WriteString("\nAll mitigations require reviewer approval; nothing is enforced automatically.\n")
	}

	fmt.Fprintf(&sb, "\n*Trace ID: %s*\n", traceID)
	return sb.String()
}

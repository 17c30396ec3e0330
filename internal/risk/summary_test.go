package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSummary(t *testing.T) {
	pr := PullRequestMeta{Number: 42, Title: "Tighten session expiry", Author: "jordan"}
	signals := map[string]SignalResult{
		SignalChurn:       {Signal: SignalChurn, Score: 0.6, Explanation: "peak churn 6 commits"},
		SignalCoverageGap: {Signal: SignalCoverageGap, Score: 0.7, Explanation: "1 of 2 uncovered"},
	}
	mitigations := []Mitigation{{
		Signal:           SignalCoverageGap,
		Score:            0.7,
		RequiresApproval: true,
		Suggestions:      []string{"Add tests for the uncovered files before merging"},
	}}

	summary := RenderSummary(pr, 0.55, RiskLevelMedium, signals, mitigations, "8f2a1b3c")

	assert.Contains(t, summary, "MEDIUM risk (0.550)")
	assert.Contains(t, summary, "#42")
	assert.Contains(t, summary, "@jordan")
	assert.Contains(t, summary, "Code Churn")
	assert.Contains(t, summary, "peak churn 6 commits")
	assert.Contains(t, summary, "Suggested mitigations")
	assert.Contains(t, summary, "Add tests for the uncovered files")
	assert.Contains(t, summary, "Trace ID: 8f2a1b3c")
}

func TestRenderSummaryWithoutMitigations(t *testing.T) {
	summary := RenderSummary(PullRequestMeta{Number: 7, Title: "docs", Author: "sam"},
		0.1, RiskLevelLow, map[string]SignalResult{}, nil, "abc")

	assert.Contains(t, summary, "LOW risk")
	assert.NotContains(t, summary, "Suggested mitigations")
}

package risk

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScoreFormula documents how the final score is derived from the embedded
// weights and signals. A trace is fully reconstructible: reapplying the
// formula to Weights and Signals must reproduce FinalScore.
const ScoreFormula = "final_score = round3(sum over signals of weight[signal] * score[signal])"

// SignalTraceEntry is the per-signal slice of an audit trace.
type SignalTraceEntry struct {
	Score         float64 `json:"score"`
	Explanation   string  `json:"explanation"`
	CitationCount int     `json:"citation_count"`
}

// AuditTrace is the reproducible record of one analysis run. Two runs with
// identical inputs produce byte-identical traces except for TraceID,
// Timestamp, and ExecutionTimeMs.
type AuditTrace struct {
	TraceID         string                      `json:"trace_id"`
	Timestamp       time.Time                   `json:"timestamp"`
	ExecutionTimeMs int64                       `json:"execution_time_ms"`
	PRSummary       string                      `json:"pr_summary"`
	FilesAnalyzed   int                         `json:"files_analyzed"`
	Formula         string                      `json:"formula"`
	Weights         map[string]float64          `json:"weights"`
	Signals         map[string]SignalTraceEntry `json:"signals"`
	FinalScore      float64                     `json:"final_score"`
	RiskLevel       RiskLevel                   `json:"risk_level"`
	MitigationCount int                         `json:"mitigation_count"`
}

// BuildTrace captures the inputs, weights, per-signal results, timing, and
// final score of one analysis run.
func BuildTrace(pr PullRequestMeta, filesAnalyzed int, cfg *Config, signals map[string]SignalResult, finalScore float64, level RiskLevel, mitigationCount int, elapsed time.Duration) *AuditTrace {
	entries := make(map[string]SignalTraceEntry, len(signals))
	for name, result := range signals {
		entries[name] = SignalTraceEntry{
			Score:         result.Score,
			Explanation:   result.Explanation,
			CitationCount: len(result.Citations),
		}
	}

	weights := make(map[string]float64, len(cfg.Weights))
	for name, w := range cfg.Weights {
		weights[name] = w
	}

	return &AuditTrace{
		TraceID:         uuid.New().String(),
		Timestamp:       time.Now().UTC(),
		ExecutionTimeMs: elapsed.Milliseconds(),
		PRSummary:       fmt.Sprintf("#%d %q by %s", pr.Number, pr.Title, pr.Author),
		FilesAnalyzed:   filesAnalyzed,
		Formula:         ScoreFormula,
		Weights:         weights,
		Signals:         entries,
		FinalScore:      finalScore,
		RiskLevel:       level,
		MitigationCount: mitigationCount,
	}
}

// ToJSON serializes the trace for external logging or compliance storage.
// Map keys marshal in sorted order, so identical runs serialize identically
// modulo the run-unique fields.
func (t *AuditTrace) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal audit trace: %w", err)
	}
	return data, nil
}

// ParseTrace deserializes a trace produced by ToJSON.
func ParseTrace(data []byte) (*AuditTrace, error) {
	var trace AuditTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("parse audit trace: %w", err)
	}
	return &trace, nil
}

// Recompute reapplies the score formula to the embedded weights and
// signals. The result matches FinalScore within rounding tolerance.
func (t *AuditTrace) Recompute() float64 {
	var score float64
	for name, entry := range t.Signals {
		score += t.Weights[name] * entry.Score
	}
	return Round3(clamp01(score))
}

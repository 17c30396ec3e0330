package risk

import (
	"time"
)

// FileStatus is the change status of a file within a pull request.
type FileStatus string

const (
	FileStatusAdded    FileStatus = "added"
	FileStatusModified FileStatus = "modified"
	FileStatusRemoved  FileStatus = "removed"
)

// ChangedFile is one file touched by the pull request under analysis.
// Identity is Filename within a single analysis call; records are never
// mutated after they are handed to the analyzer.
type ChangedFile struct {
	Filename  string     `json:"filename"`
	Status    FileStatus `json:"status"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Patch     string     `json:"patch,omitempty"`
}

// PullRequestMeta carries the pull-request metadata the signals read.
type PullRequestMeta struct {
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}

// CommitRecord is one historical commit, reduced to the files it touched.
type CommitRecord struct {
	Files []string  `json:"files"`
	Date  time.Time `json:"date"`
}

// IncidentRecord is one historical production incident linked to files.
type IncidentRecord struct {
	ID       string    `json:"id"`
	Files    []string  `json:"files"`
	Severity string    `json:"severity"`
	Date     time.Time `json:"date"`
}

// FlakeInfo describes test flakiness telemetry for one file.
type FlakeInfo struct {
	IsFlaky   bool    `json:"is_flaky"`
	FlakeRate float64 `json:"flake_rate"`
	NearFlaky bool    `json:"near_flaky"`
}

// HistoryData bundles the four optional history datasets. Any of them may
// be nil or empty; the corresponding signal degrades to zero instead of
// failing.
type HistoryData struct {
	Commits   []CommitRecord       `json:"commits,omitempty"`
	Incidents []IncidentRecord     `json:"incidents,omitempty"`
	Flakes    map[string]FlakeInfo `json:"flakes,omitempty"`
	Coverage  map[string]float64   `json:"coverage,omitempty"`
}

// Citation is a structured piece of evidence justifying a signal's score.
// Citations describe the score after the fact; they never feed back into it.
type Citation struct {
	File  string `json:"file"`
	Count int    `json:"count,omitempty"`
	Note  string `json:"note"`
}

// SignalResult is the normalized output of one signal calculator.
type SignalResult struct {
	Signal      string         `json:"signal"`
	Score       float64        `json:"score"` // [0,1], rounded to 3 decimals
	Raw         map[string]int `json:"raw,omitempty"`
	Citations   []Citation     `json:"citations,omitempty"`
	Explanation string         `json:"explanation"`
}

// RiskLevel classifies an aggregate score.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

func (r RiskLevel) String() string {
	return string(r)
}

// Mitigation is a suggested remediation for a signal that crossed the
// trigger threshold. RequiresApproval is always true: suggestions are for a
// human reviewer, never enforced automatically.
type Mitigation struct {
	Signal           string     `json:"signal"`
	Score            float64    `json:"score"`
	RequiresApproval bool       `json:"requires_approval"`
	Suggestions      []string   `json:"suggestions"`
	Citations        []Citation `json:"citations,omitempty"`
}

// RiskAnalysis is the composite result of one analysis pass. It is built
// once per invocation and never mutated afterwards; the engine keeps no
// state between invocations.
type RiskAnalysis struct {
	Score       float64                 `json:"score"`
	Level       RiskLevel               `json:"level"`
	Signals     map[string]SignalResult `json:"signals"`
	Mitigations []Mitigation            `json:"mitigations"`
	AuditTrace  *AuditTrace             `json:"audit_trace"`
	Summary     string                  `json:"summary"`
}

// SignalCalculator is one independently computed risk heuristic. The six
// implementations are pure functions of their inputs: no shared mutable
// state, no ordering dependency, identical results whether they run
// sequentially or concurrently.
type SignalCalculator interface {
	Name() string
	Calculate(files []ChangedFile, pr PullRequestMeta, history *HistoryData) (SignalResult, error)
}

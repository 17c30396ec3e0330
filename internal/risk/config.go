package risk

import (
	"fmt"
	"math"
)

// Canonical signal names. SignalOrder fixes the iteration order used for
// mitigation output and the audit formula; it must list every configured
// weight exactly once.
const (
	SignalChurn           = "churn"
	SignalCoverageGap     = "coverage_gap"
	SignalIncidentHotspot = "incident_hotspot"
	SignalFlakeProximity  = "flake_proximity"
	SignalDiffRisk        = "diff_risk"
	SignalTimePressure    = "time_pressure"
)

// SignalOrder is the canonical order of the six signals.
var SignalOrder = []string{
	SignalChurn,
	SignalCoverageGap,
	SignalIncidentHotspot,
	SignalFlakeProximity,
	SignalDiffRisk,
	SignalTimePressure,
}

// Config holds the static risk policy: per-signal weights, thresholds,
// pattern lists, level boundaries, and mitigation text. It is loaded once at
// process start and treated as read-only for the lifetime of an analysis
// call; concurrent calculators never mutate it.
type Config struct {
	// Weights per signal name, expected to sum to 1.0 (±0.001). A mismatch
	// is a deployment misconfiguration, logged as a warning, never fatal.
	Weights map[string]float64 `yaml:"weights" mapstructure:"weights"`

	// Churn
	LookbackDays       int `yaml:"lookback_days" mapstructure:"lookback_days"`
	HighChurnThreshold int `yaml:"high_churn_threshold" mapstructure:"high_churn_threshold"`

	// Coverage gap
	MinCoverageThreshold float64  `yaml:"min_coverage_threshold" mapstructure:"min_coverage_threshold"`
	CriticalPathPatterns []string `yaml:"critical_path_patterns" mapstructure:"critical_path_patterns"`

	// Incident hotspot
	HotspotThreshold int `yaml:"hotspot_threshold" mapstructure:"hotspot_threshold"`

	// Diff risk
	LargeDiffThreshold      int      `yaml:"large_diff_threshold" mapstructure:"large_diff_threshold"`
	CriticalContentPatterns []string `yaml:"critical_content_patterns" mapstructure:"critical_content_patterns"`
	DangerousCodePatterns   []string `yaml:"dangerous_code_patterns" mapstructure:"dangerous_code_patterns"`

	// Time pressure
	WeekendPenalty     float64  `yaml:"weekend_penalty" mapstructure:"weekend_penalty"`
	LateNightPenalty   float64  `yaml:"late_night_penalty" mapstructure:"late_night_penalty"`
	LateNightStartHour int      `yaml:"late_night_start_hour" mapstructure:"late_night_start_hour"`
	LateNightEndHour   int      `yaml:"late_night_end_hour" mapstructure:"late_night_end_hour"`
	RushHourStart      int      `yaml:"rush_hour_start" mapstructure:"rush_hour_start"`
	UrgencyKeywords    []string `yaml:"urgency_keywords" mapstructure:"urgency_keywords"`

	// Risk level boundaries: score < MediumThreshold is LOW,
	// score < HighThreshold is MEDIUM, anything else is HIGH.
	MediumThreshold float64 `yaml:"medium_threshold" mapstructure:"medium_threshold"`
	HighThreshold   float64 `yaml:"high_threshold" mapstructure:"high_threshold"`

	// Mitigation suggestion text keyed by signal name.
	MitigationSuggestions map[string][]string `yaml:"mitigation_suggestions" mapstructure:"mitigation_suggestions"`
}

// DefaultConfig returns the default risk policy.
func DefaultConfig() *Config {
	return &Config{
		Weights: map[string]float64{
			SignalChurn:           0.20,
			SignalCoverageGap:     0.20,
			SignalIncidentHotspot: 0.20,
			SignalFlakeProximity:  0.15,
			SignalDiffRisk:        0.15,
			SignalTimePressure:    0.10,
		},

		LookbackDays:       30,
		HighChurnThreshold: 10,

		MinCoverageThreshold: 0.5,
		CriticalPathPatterns: []string{"auth", "payment", "billing", "security", "migration"},

		HotspotThreshold: 2,

		LargeDiffThreshold: 500,
		CriticalContentPatterns: []string{
			"password", "secret", "credential", "api_key", "apikey", "private_key", "token",
		},
		DangerousCodePatterns: []string{
			"eval(", "exec(", "innerHTML", "dangerouslySetInnerHTML", "os.system(", "subprocess.call(",
		},

		WeekendPenalty:     0.3,
		LateNightPenalty:   0.4,
		LateNightStartHour: 23,
		LateNightEndHour:   6,
		RushHourStart:      18,
		UrgencyKeywords: []string{
			"urgent", "asap", "hotfix", "critical", "emergency", "immediately", "quick fix",
		},

		MediumThreshold: 0.3,
		HighThreshold:   0.6,

		MitigationSuggestions: map[string][]string{
			SignalChurn: {
				"Request a second reviewer familiar with the frequently changed files",
				"Split the change so churn-heavy files land in their own reviewable unit",
				"Check recent commits to these files for conflicting in-flight work",
			},
			SignalCoverageGap: {
				"Add tests for the uncovered files before merging",
				"Require a manual test plan in the PR description for uncovered paths",
				"Schedule a follow-up to bring critical files above the coverage floor",
			},
			SignalIncidentHotspot: {
				"Page the on-call owner of the hotspot files for an explicit sign-off",
				"Prepare a rollback plan before deploying changes to incident-prone files",
				"Link the past incidents in the PR so reviewers see the failure modes",
			},
			SignalFlakeProximity: {
				"Stabilize or quarantine the flaky tests before relying on a green build",
				"Re-run the affected suites multiple times to rule out order dependence",
			},
			SignalDiffRisk: {
				"Break the change into smaller, independently reviewable pull requests",
				"Move any credentials or secrets out of the diff into managed secret storage",
				"Replace dynamic code execution with a safer, explicit alternative",
			},
			SignalTimePressure: {
				"Delay the merge to normal working hours unless it fixes an active outage",
				"Require an explicit second approval for urgency-labelled changes",
			},
		},
	}
}

// ValidateWeights checks that the configured weights cover every signal and
// sum to 1.0 within tolerance. Callers treat a non-nil error as a warning:
// analysis proceeds with the configured weights as-is.
func (c *Config) ValidateWeights() error {
	var sum float64
	for _, name := range SignalOrder {
		w, ok := c.Weights[name]
		if !ok {
			return fmt.Errorf("missing weight for signal %q", name)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("signal weights sum to %.3f, want 1.0", sum)
	}
	return nil
}

// suggestionsFor returns the configured mitigation text for a signal.
func (c *Config) suggestionsFor(signal string) []string {
	return c.MitigationSuggestions[signal]
}

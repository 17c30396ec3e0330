package config

import (
	"fmt"
	"strings"
)

// ValidationContext specifies which configuration a command requires.
type ValidationContext string

const (
	// ValidationContextAnalyze - analyze needs a GitHub token when reading a live PR
	ValidationContextAnalyze ValidationContext = "analyze"
	// ValidationContextServe - serve needs GitHub credentials and a listen address
	ValidationContextServe ValidationContext = "serve"
	// ValidationContextAudit - audit commands need the trace database path
	ValidationContextAudit ValidationContext = "audit"
)

// ValidationResult holds validation outcomes. Weight-sum problems are
// warnings, not errors: a skewed policy still analyzes.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (vr *ValidationResult) AddError(format string, args ...interface{}) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

func (vr *ValidationResult) AddWarning(format string, args ...interface{}) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

func (vr *ValidationResult) HasErrors() bool {
	return !vr.Valid || len(vr.Errors) > 0
}

func (vr *ValidationResult) Error() string {
	if !vr.HasErrors() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n")
	for _, err := range vr.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err))
	}
	return sb.String()
}

// Validate checks the configuration for the given context.
func (c *Config) Validate(ctx ValidationContext) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if c.Risk == nil {
		result.AddError("risk policy section is missing")
		return result
	}
	if err := c.Risk.ValidateWeights(); err != nil {
		result.AddWarning("risk weights: %v", err)
	}
	if c.Risk.HighThreshold <= c.Risk.MediumThreshold {
		result.AddError("risk high_threshold (%.2f) must be above medium_threshold (%.2f)",
			c.Risk.HighThreshold, c.Risk.MediumThreshold)
	}

	switch ctx {
	case ValidationContextServe:
		if c.GitHub.Token == "" {
			result.AddError("github token is required to post reviews (set GITHUB_TOKEN)")
		}
		if c.Server.Addr == "" {
			result.AddError("server addr is required")
		}
		if c.Server.WebhookSecret == "" {
			result.AddWarning("no webhook secret configured; signatures will not be verified")
		}
	case ValidationContextAnalyze:
		// Token is only needed for live PRs; fixture analysis runs offline.
	case ValidationContextAudit:
		if c.Audit.DatabasePath == "" {
			result.AddError("audit database_path is required")
		}
	}

	return result
}

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskradar/riskradar/internal/risk"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg.Risk)
	assert.NoError(t, cfg.Risk.ValidateWeights())

	result := cfg.Validate(ValidationContextAudit)
	assert.False(t, result.HasErrors(), result.Error())
}

func TestValidateServeRequiresToken(t *testing.T) {
	cfg := Default()
	cfg.GitHub.Token = ""

	result := cfg.Validate(ValidationContextServe)
	assert.True(t, result.HasErrors())
	assert.Contains(t, result.Error(), "github token")
}

func TestValidateWarnsOnSkewedWeights(t *testing.T) {
	cfg := Default()
	cfg.Risk.Weights[risk.SignalChurn] = 0.9

	result := cfg.Validate(ValidationContextAnalyze)
	assert.False(t, result.HasErrors(), "skewed weights are a warning, not an error")
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "risk weights")
}

func TestValidateRejectsInvertedBoundaries(t *testing.T) {
	cfg := Default()
	cfg.Risk.MediumThreshold = 0.7
	cfg.Risk.HighThreshold = 0.6

	result := cfg.Validate(ValidationContextAnalyze)
	assert.True(t, result.HasErrors())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := Default()
	cfg.Server.Addr = ":9999"
	cfg.Risk.LargeDiffThreshold = 750
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", loaded.Server.Addr)
	assert.Equal(t, 750, loaded.Risk.LargeDiffThreshold)
	assert.Equal(t, cfg.Risk.Weights, loaded.Risk.Weights)
}

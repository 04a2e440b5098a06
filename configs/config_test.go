package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	testCases := map[string]string{
		"PORT":            "9090",
		"ENVIRONMENT":     "test",
		"DATA_DIR":        "/tmp/extracts",
		"OPENAI_API_KEY":  "test-key",
		"OPENAI_MODEL":    "gpt-4o",
		"OPENAI_ENDPOINT": "https://proxy.example.com/v1/chat/completions",
	}
	for key, value := range testCases {
		os.Setenv(key, value)
	}
	defer func() {
		for key := range testCases {
			os.Unsetenv(key)
		}
	}()

	cfg := LoadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, "/tmp/extracts", cfg.DataDir)
	assert.Equal(t, "test-key", cfg.OpenAIAPIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, "https://proxy.example.com/v1/chat/completions", cfg.OpenAIEndpoint)
}

func TestLoadConfigDefaults(t *testing.T) {
	vars := []string{
		"PORT", "ENVIRONMENT", "DATA_DIR", "TUNING_FILE",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_ENDPOINT",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}

	cfg := LoadConfig()

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Empty(t, cfg.OpenAIAPIKey)
}

func TestDefaultTuning(t *testing.T) {
	tn := DefaultTuning()

	assert.InDelta(t, 0.12, tn.PromoteCaptureRate, 1e-9)
	assert.InDelta(t, 0.7, tn.ExpandRolloutFactor, 1e-9)
	assert.InDelta(t, 0.75, tn.EliminateRecoverRate, 1e-9)
	assert.InDelta(t, 0.03, tn.RepriceIncreasePct, 1e-9)
	assert.InDelta(t, 0.05, tn.BundleCaptureRate, 1e-9)
	assert.InDelta(t, 0.4, tn.BranchGapCloseRate, 1e-9)
	assert.Equal(t, 3, tn.PromoteTopN)
	assert.Equal(t, 76, tn.ConfidenceBase)
	assert.NotEmpty(t, tn.ToppingProducts)
}

func TestLoadTuningOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	content := "promote_capture_rate: 0.2\nexpand_margin_cutoff: 55\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tn, err := LoadTuning(path)
	require.NoError(t, err)

	// Overridden values
	assert.InDelta(t, 0.2, tn.PromoteCaptureRate, 1e-9)
	assert.InDelta(t, 55, tn.ExpandMarginCutoff, 1e-9)
	// Untouched defaults survive the overlay
	assert.InDelta(t, 0.75, tn.EliminateRecoverRate, 1e-9)
	assert.Equal(t, "HOT BAR SECTION", tn.HotBarDivision)
}

func TestLoadTuningMissingFile(t *testing.T) {
	_, err := LoadTuning("/nonexistent/tuning.yaml")
	assert.Error(t, err)
}

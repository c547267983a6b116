package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docksafe/docksafe-backend/util"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, TypeTrivy, cfg.ScannerType)
	assert.Equal(t, 300, cfg.TimeoutSeconds)
	assert.Equal(t, util.SeverityHigh, cfg.SeverityThreshold)
	assert.Equal(t, "trivy", cfg.TrivyPath)
	assert.True(t, cfg.ClairDemoFallback)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	content := "scanner_type: clair\ntimeout_seconds: 120\nseverity_threshold: MEDIUM\nclair_url: http://clair.internal:6060\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, TypeClair, cfg.ScannerType)
	assert.Equal(t, 120, cfg.TimeoutSeconds)
	assert.Equal(t, util.SeverityMedium, cfg.SeverityThreshold)
	assert.Equal(t, "http://clair.internal:6060", cfg.ClairURL)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scanner_type: [broken"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SCANNER_TYPE", "clair")
	t.Setenv("SEVERITY_THRESHOLD", "critical")
	t.Setenv("SCAN_TIMEOUT_SECONDS", "45")
	t.Setenv("CLAIR_DEMO_FALLBACK", "false")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, TypeClair, cfg.ScannerType)
	assert.Equal(t, util.SeverityCritical, cfg.SeverityThreshold)
	assert.Equal(t, 45, cfg.TimeoutSeconds)
	assert.False(t, cfg.ClairDemoFallback)
}

func TestLoadConfigBadEnvValuesIgnored(t *testing.T) {
	t.Setenv("SCAN_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("SEVERITY_THRESHOLD", "bogus")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.TimeoutSeconds)
	// Unrecognized threshold folds to LOW rather than erroring
	assert.Equal(t, util.SeverityLow, cfg.SeverityThreshold)
}

func TestNewBackend(t *testing.T) {
	trivyCfg := DefaultConfig()
	backend, err := NewBackend(trivyCfg)
	require.NoError(t, err)
	assert.Equal(t, TypeTrivy, backend.Type())
	assert.IsType(t, &TrivyScanner{}, backend)

	clairCfg := DefaultConfig()
	clairCfg.ScannerType = TypeClair
	backend, err = NewBackend(clairCfg)
	require.NoError(t, err)
	assert.Equal(t, TypeClair, backend.Type())

	badCfg := DefaultConfig()
	badCfg.ScannerType = "grype"
	_, err = NewBackend(badCfg)
	assert.Error(t, err)
}

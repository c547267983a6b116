// Package scanner - backend configuration and construction
package scanner

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/docksafe/docksafe-backend/util"
)

// Recognized backend types
const (
	TypeTrivy = "trivy"
	TypeClair = "clair"
)

// Config holds the scanner backend settings. Values load from an optional
// YAML file; environment variables override file values.
type Config struct {
	ScannerType       string `yaml:"scanner_type"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	SeverityThreshold string `yaml:"severity_threshold"`
	TrivyPath         string `yaml:"trivy_path"`
	ClairURL          string `yaml:"clair_url"`
	ClairDemoFallback bool   `yaml:"clair_demo_fallback"`
}

// DefaultConfig returns the settings used when no file or env overrides exist
func DefaultConfig() Config {
	return Config{
		ScannerType:       TypeTrivy,
		TimeoutSeconds:    300,
		SeverityThreshold: util.DefaultThreshold,
		TrivyPath:         "trivy",
		ClairURL:          "http://localhost:6060",
		ClairDemoFallback: true,
	}
}

// LoadConfig reads scanner settings from path (skipped when empty or
// missing), then applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse scanner config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read scanner config %s: %w", path, err)
		}
	}

	cfg.ScannerType = util.GetEnvDefault("SCANNER_TYPE", cfg.ScannerType)
	cfg.TrivyPath = util.GetEnvDefault("TRIVY_PATH", cfg.TrivyPath)
	cfg.ClairURL = util.GetEnvDefault("CLAIR_URL", cfg.ClairURL)
	cfg.SeverityThreshold = util.NormalizeSeverity(
		util.GetEnvDefault("SEVERITY_THRESHOLD", cfg.SeverityThreshold))

	if v := os.Getenv("SCAN_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.TimeoutSeconds = secs
		}
	}
	if v := os.Getenv("CLAIR_DEMO_FALLBACK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ClairDemoFallback = b
		}
	}

	return cfg, nil
}

// NewBackend constructs the backend named by cfg.ScannerType
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.ScannerType {
	case TypeTrivy:
		return NewTrivyScanner(cfg), nil
	case TypeClair:
		return NewClairScanner(cfg), nil
	default:
		return nil, fmt.Errorf("unknown scanner type: %s", cfg.ScannerType)
	}
}

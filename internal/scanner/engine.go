// Package scanner defines the vulnerability scanner backend contract and the
// transient result types backends produce.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docksafe/docksafe-backend/util"
)

// ErrBackendUnavailable is returned when a scan is requested against a
// backend whose health probe failed.
var ErrBackendUnavailable = errors.New("scanner backend is not available")

// ValidationError reports a bad image name or tag. It fails fast, before any
// subprocess or network call is started.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Finding is one vulnerability instance produced by a backend. Immutable once
// produced; ownership passes to the persisted scan record on store.
type Finding struct {
	CveID            string
	Severity         string
	PackageName      string
	PackageVersion   string
	FixedVersion     string
	Description      string
	CvssScore        *float64
	CvssVector       string
	PublishedDate    *time.Time
	LastModifiedDate *time.Time
	References       []string
}

// Result is the transient output of one backend invocation. Severity counts
// are derived from the finding list on demand, never stored on the struct.
type Result struct {
	ImageName           string
	ImageTag            string
	ScanStatus          string
	ScanDurationSeconds int
	ScannerVersion      string
	Findings            []Finding
	ScanOutput          string
	Metadata            map[string]interface{}
}

// Counts tallies the findings by severity
func (r *Result) Counts() util.SeverityCounts {
	counts := util.SeverityCounts{}
	for _, f := range r.Findings {
		switch util.NormalizeSeverity(f.Severity) {
		case util.SeverityCritical:
			counts.Critical++
		case util.SeverityHigh:
			counts.High++
		case util.SeverityMedium:
			counts.Medium++
		default:
			counts.Low++
		}
	}
	return counts
}

// TotalVulnerabilities returns the number of findings
func (r *Result) TotalVulnerabilities() int {
	return len(r.Findings)
}

// HasCritical reports whether any finding is CRITICAL
func (r *Result) HasCritical() bool {
	return r.Counts().Critical > 0
}

// HasHigh reports whether any finding is HIGH
func (r *Result) HasHigh() bool {
	return r.Counts().High > 0
}

// FilterBySeverity returns the findings at or above minSeverity
func (r *Result) FilterBySeverity(minSeverity string) []Finding {
	minRank := util.SeverityRank(minSeverity)
	filtered := []Finding{}
	for _, f := range r.Findings {
		if util.SeverityRank(f.Severity) >= minRank {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// Summary returns a compact description of the result for logging
func (r *Result) Summary() map[string]interface{} {
	counts := r.Counts()
	return map[string]interface{}{
		"image":                 r.ImageName + ":" + r.ImageTag,
		"status":                r.ScanStatus,
		"duration_seconds":      r.ScanDurationSeconds,
		"total_vulnerabilities": r.TotalVulnerabilities(),
		"critical":              counts.Critical,
		"high":                  counts.High,
		"medium":                counts.Medium,
		"low":                   counts.Low,
		"scanner_version":       r.ScannerVersion,
	}
}

// Backend is the capability contract every scanner implementation satisfies.
// Scan returns an error only for precondition violations; backend-internal
// failures map to status values on the returned Result.
type Backend interface {
	Scan(ctx context.Context, imageName, imageTag string) (*Result, error)
	IsAvailable() bool
	Version() string
	Type() string
}

// ValidateImageRef enforces the shared scan preconditions: image name
// non-empty and at most 255 chars, tag non-empty and at most 100 chars.
func ValidateImageRef(imageName, imageTag string) error {
	if imageName == "" || len(imageName) > 255 {
		return &ValidationError{Field: "image name", Message: "must be 1-255 characters"}
	}
	if imageTag == "" || len(imageTag) > 100 {
		return &ValidationError{Field: "image tag", Message: "must be 1-100 characters"}
	}
	return nil
}

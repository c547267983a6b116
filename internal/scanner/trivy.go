// Package scanner - Trivy subprocess backend
package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/docksafe/docksafe-backend/database"
	"github.com/docksafe/docksafe-backend/model"
	"github.com/docksafe/docksafe-backend/util"
)

var logger = database.InitLogger()

// subprocess budget on top of the configured scan timeout, covering process
// startup and image pull overhead
const trivyTimeoutBuffer = 30 * time.Second

const probeTimeout = 10 * time.Second

// TrivyScanner invokes the Trivy CLI as a subprocess and parses its JSON
// report. Concurrent scans are independent processes; the scanner itself
// holds no mutable state.
type TrivyScanner struct {
	Path              string
	Timeout           time.Duration
	SeverityThreshold string
}

// NewTrivyScanner builds a Trivy backend from config
func NewTrivyScanner(cfg Config) *TrivyScanner {
	return &TrivyScanner{
		Path:              cfg.TrivyPath,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		SeverityThreshold: util.NormalizeSeverity(cfg.SeverityThreshold),
	}
}

// Type returns the backend type name
func (t *TrivyScanner) Type() string {
	return TypeTrivy
}

// IsAvailable probes the Trivy binary with a short version check
func (t *TrivyScanner) IsAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, t.Path, "--version").Run(); err != nil {
		logger.Sugar().Errorf("Trivy not available: %v", err)
		return false
	}
	return true
}

// Version returns the Trivy version string, "unknown" on any failure
func (t *TrivyScanner) Version() string {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, t.Path, "--version").Output()
	if err != nil {
		logger.Sugar().Errorf("Failed to get Trivy version: %v", err)
		return "unknown"
	}

	// First line looks like "Version: 0.48.3"
	line := strings.SplitN(strings.TrimSpace(string(out)), "\n", 2)[0]
	if idx := strings.Index(line, ": "); idx >= 0 {
		return line[idx+2:]
	}
	return "unknown"
}

// Scan runs Trivy against imageName:imageTag. The returned Result always
// carries a status and wall-clock duration; subprocess failures become
// status values, never errors. Only precondition violations return an error.
func (t *TrivyScanner) Scan(ctx context.Context, imageName, imageTag string) (*Result, error) {
	if err := ValidateImageRef(imageName, imageTag); err != nil {
		return nil, err
	}

	fullImageName := imageName + ":" + imageTag
	logger.Sugar().Infof("Starting Trivy scan for image: %s", fullImageName)

	args := []string{
		"image",
		"--format", "json",
		"--severity", severityFilterList(t.SeverityThreshold),
		"--no-progress",
		"--quiet",
		"--timeout", fmt.Sprintf("%ds", int(t.Timeout.Seconds())),
		fullImageName,
	}

	runCtx, cancel := context.WithTimeout(ctx, t.Timeout+trivyTimeoutBuffer)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, t.Path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	duration := int(time.Since(start).Seconds())

	result := &Result{
		ImageName:           imageName,
		ImageTag:            imageTag,
		ScanDurationSeconds: duration,
		ScannerVersion:      t.Version(),
		Findings:            []Finding{},
		Metadata: map[string]interface{}{
			"trivy_command":      t.Path + " " + strings.Join(args, " "),
			"severity_threshold": t.SeverityThreshold,
		},
	}

	switch {
	case runErr == nil:
		result.ScanStatus = model.ScanStatusSuccess
		result.Findings = t.parseOutput(stdout.String())
		result.ScanOutput = stdout.String() + stderr.String()
		result.Metadata["return_code"] = 0
	case ctx.Err() == context.Canceled:
		logger.Sugar().Infof("Trivy scan cancelled after %d seconds", duration)
		result.ScanStatus = model.ScanStatusCancelled
		result.ScanOutput = "Scan cancelled by caller"
		result.Metadata["error"] = "cancelled"
	case runCtx.Err() == context.DeadlineExceeded:
		logger.Sugar().Errorf("Trivy scan timed out after %d seconds", duration)
		result.ScanStatus = model.ScanStatusTimeout
		result.ScanOutput = fmt.Sprintf("Scan timed out after %d seconds", duration)
		result.Metadata["error"] = "timeout"
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			logger.Sugar().Errorf("Trivy scan failed: %s", stderr.String())
			result.ScanStatus = model.ScanStatusFailed
			result.ScanOutput = stderr.String()
			result.Metadata["return_code"] = exitErr.ExitCode()
		} else {
			logger.Sugar().Errorf("Unexpected error during Trivy scan: %v", runErr)
			result.ScanStatus = model.ScanStatusError
			result.ScanOutput = runErr.Error()
			result.Metadata["error"] = runErr.Error()
		}
	}

	return result, nil
}

// UpdateDatabase refreshes the local Trivy vulnerability database
func (t *TrivyScanner) UpdateDatabase(ctx context.Context) error {
	logger.Sugar().Info("Updating Trivy vulnerability database")

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, t.Path, "image", "--download-db-only")
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("trivy database update failed: %s: %w", stderr.String(), err)
	}
	return nil
}

// severityFilterList expands a threshold into the comma-separated severity
// list Trivy expects, e.g. HIGH -> "CRITICAL,HIGH"
func severityFilterList(threshold string) string {
	minRank := util.SeverityRank(threshold)
	levels := []string{}
	for _, s := range util.Severities {
		if util.SeverityRank(s) >= minRank {
			levels = append(levels, s)
		}
	}
	return strings.Join(levels, ",")
}

// Trivy report schema. Older releases emit a flat Vulnerabilities array or a
// top-level list; newer releases nest findings under Results.
type trivyReport struct {
	Results         []trivyResult        `json:"Results"`
	Vulnerabilities []trivyVulnerability `json:"Vulnerabilities"`
}

type trivyResult struct {
	Target          string               `json:"Target"`
	Vulnerabilities []trivyVulnerability `json:"Vulnerabilities"`
}

type trivyVulnerability struct {
	VulnerabilityID  string               `json:"VulnerabilityID"`
	Severity         string               `json:"Severity"`
	PkgName          string               `json:"PkgName"`
	InstalledVersion string               `json:"InstalledVersion"`
	FixedVersion     string               `json:"FixedVersion"`
	Description      string               `json:"Description"`
	CVSS             map[string]trivyCVSS `json:"CVSS"`
	PublishedDate    string               `json:"PublishedDate"`
	LastModifiedDate string               `json:"LastModifiedDate"`
	References       []string             `json:"References"`
}

type trivyCVSS struct {
	V2Vector string   `json:"V2Vector"`
	V3Vector string   `json:"V3Vector"`
	V2Score  *float64 `json:"V2Score"`
	V3Score  *float64 `json:"V3Score"`
}

// parseOutput accepts every observed Trivy report shape: a single report
// object, a top-level list of reports, flat or Results-nested findings.
// Findings that cannot be parsed are skipped with a warning, never aborting
// the scan.
func (t *TrivyScanner) parseOutput(output string) []Finding {
	findings := []Finding{}
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return findings
	}

	var reports []trivyReport
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &reports); err != nil {
			logger.Sugar().Errorf("Failed to parse Trivy JSON output: %v", err)
			return findings
		}
	} else {
		var report trivyReport
		if err := json.Unmarshal([]byte(trimmed), &report); err != nil {
			logger.Sugar().Errorf("Failed to parse Trivy JSON output: %v", err)
			return findings
		}
		reports = []trivyReport{report}
	}

	for _, report := range reports {
		vulns := report.Vulnerabilities
		for _, res := range report.Results {
			vulns = append(vulns, res.Vulnerabilities...)
		}
		for _, v := range vulns {
			if v.VulnerabilityID == "" {
				logger.Sugar().Warnf("Skipping finding without vulnerability id (package %q)", v.PkgName)
				continue
			}
			score := parseCvssScore(v.CVSS)
			severity := v.Severity
			if severity == "" && score != nil {
				// Reports occasionally omit the severity while still
				// carrying a score; rate it rather than defaulting to LOW
				severity = util.GetSeverityRating(*score)
			}
			findings = append(findings, Finding{
				CveID:            v.VulnerabilityID,
				Severity:         util.NormalizeSeverity(severity),
				PackageName:      v.PkgName,
				PackageVersion:   v.InstalledVersion,
				FixedVersion:     v.FixedVersion,
				Description:      v.Description,
				CvssScore:        score,
				CvssVector:       v.CVSS["nvd"].V3Vector,
				PublishedDate:    parseTrivyDate(v.PublishedDate),
				LastModifiedDate: parseTrivyDate(v.LastModifiedDate),
				References:       v.References,
			})
		}
	}
	return findings
}

// parseCvssScore picks the first present score in source priority order:
// NVD v3, NVD v2, then vendor trackers v3 before v2. Absent means nil,
// never zero. A finding that only carries a vector gets its score computed
// from the vector.
func parseCvssScore(cvss map[string]trivyCVSS) *float64 {
	sources := []string{"nvd", "redhat", "ubuntu", "debian"}
	for _, source := range sources {
		entry, ok := cvss[source]
		if !ok {
			continue
		}
		if entry.V3Score != nil {
			return entry.V3Score
		}
		if entry.V2Score != nil {
			return entry.V2Score
		}
	}
	for _, source := range sources {
		if entry, ok := cvss[source]; ok && entry.V3Vector != "" {
			if score := util.ScoreFromVector(entry.V3Vector); score != nil {
				return score
			}
		}
	}
	return nil
}

var trivyDateFormats = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05.999999Z",
	"2006-01-02",
}

// parseTrivyDate tries the known report timestamp formats; unparseable
// dates stay nil
func parseTrivyDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, format := range trivyDateFormats {
		if ts, err := time.Parse(format, s); err == nil {
			return &ts
		}
	}
	return nil
}

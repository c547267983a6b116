// Package model defines the persistent entities for the DockSafe backend.
package model

import "time"

// Scan lifecycle statuses. IN_PROGRESS is the only non-terminal state.
const (
	ScanStatusPending    = "PENDING"
	ScanStatusInProgress = "IN_PROGRESS"
	ScanStatusSuccess    = "SUCCESS"
	ScanStatusFailed     = "FAILED"
	ScanStatusError      = "ERROR"
	ScanStatusTimeout    = "TIMEOUT"
	ScanStatusCancelled  = "CANCELLED"
)

// Scan is the durable record of one requested image scan and its outcome.
// The severity counters are a cache of the vulnerability set after exception
// filtering; they are recomputed whenever the set changes and are never
// edited directly.
type Scan struct {
	Key                  string                 `json:"_key,omitempty"`
	ImageName            string                 `json:"image_name"`
	ImageTag             string                 `json:"image_tag"`
	ScanStatus           string                 `json:"scan_status"`
	ScannerType          string                 `json:"scanner_type"`
	ScannerVersion       string                 `json:"scanner_version,omitempty"`
	ScanOutput           string                 `json:"scan_output,omitempty"`
	ScanMetadata         map[string]interface{} `json:"scan_metadata,omitempty"`
	ScanDurationSeconds  int                    `json:"scan_duration_seconds"`
	TotalVulnerabilities int                    `json:"total_vulnerabilities"`
	CriticalCount        int                    `json:"critical_count"`
	HighCount            int                    `json:"high_count"`
	MediumCount          int                    `json:"medium_count"`
	LowCount             int                    `json:"low_count"`
	GroupID              string                 `json:"group_id"`
	CreatedBy            string                 `json:"created_by,omitempty"`
	// Numeric tag components parsed at scan time; nil for non-version tags
	TagMajor             *int                   `json:"tag_major,omitempty"`
	TagMinor             *int                   `json:"tag_minor,omitempty"`
	TagPatch             *int                   `json:"tag_patch,omitempty"`
	ScanTimestamp        *time.Time             `json:"scan_timestamp,omitempty"`
	ObjType              string                 `json:"objtype"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// NewScan creates a scan record in IN_PROGRESS state
func NewScan(imageName, imageTag, scannerType, groupID, createdBy string) *Scan {
	now := time.Now().UTC()
	return &Scan{
		ImageName:   imageName,
		ImageTag:    imageTag,
		ScanStatus:  ScanStatusInProgress,
		ScannerType: scannerType,
		GroupID:     groupID,
		CreatedBy:   createdBy,
		ObjType:     "Scan",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasCritical reports whether the scan has critical vulnerabilities after filtering
func (s *Scan) HasCritical() bool {
	return s.CriticalCount > 0
}

// HasHigh reports whether the scan has high severity vulnerabilities after filtering
func (s *Scan) HasHigh() bool {
	return s.HighCount > 0
}

// SeveritySummary returns the cached per-severity breakdown
func (s *Scan) SeveritySummary() map[string]int {
	return map[string]int{
		"critical": s.CriticalCount,
		"high":     s.HighCount,
		"medium":   s.MediumCount,
		"low":      s.LowCount,
		"total":    s.TotalVulnerabilities,
	}
}

// IsTerminal reports whether the scan has reached a terminal status
func (s *Scan) IsTerminal() bool {
	return s.ScanStatus != ScanStatusPending && s.ScanStatus != ScanStatusInProgress
}

// ScanUpdate enumerates the mutable fields of a scan record. Nil pointers
// leave the stored value untouched.
type ScanUpdate struct {
	ScanStatus          *string                 `json:"scan_status,omitempty"`
	ScannerVersion      *string                 `json:"scanner_version,omitempty"`
	ScanOutput          *string                 `json:"scan_output,omitempty"`
	ScanMetadata        *map[string]interface{} `json:"scan_metadata,omitempty"`
	ScanDurationSeconds *int                    `json:"scan_duration_seconds,omitempty"`
	ScanTimestamp       *time.Time              `json:"scan_timestamp,omitempty"`
}

// Vulnerability is one finding stored against a scan. Immutable once written;
// exception filtering removes rows, it never rewrites them.
type Vulnerability struct {
	Key              string     `json:"_key,omitempty"`
	ScanKey          string     `json:"scan_key"`
	CveID            string     `json:"cve_id"`
	Severity         string     `json:"severity"`
	PackageName      string     `json:"package_name"`
	PackagePURL      string     `json:"package_purl,omitempty"`
	PackageVersion   string     `json:"package_version,omitempty"`
	FixedVersion     string     `json:"fixed_version,omitempty"`
	FixAvailable     bool       `json:"fix_available"`
	Description      string     `json:"description,omitempty"`
	CvssScore        *float64   `json:"cvss_score,omitempty"`
	CvssVector       string     `json:"cvss_vector,omitempty"`
	PublishedDate    *time.Time `json:"published_date,omitempty"`
	LastModifiedDate *time.Time `json:"last_modified_date,omitempty"`
	References       []string   `json:"references,omitempty"`
	ObjType          string     `json:"objtype"`
	CreatedAt        time.Time  `json:"created_at"`
}

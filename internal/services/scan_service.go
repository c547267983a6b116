// Package services provides internal service implementations for the DockSafe backend.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docksafe/docksafe-backend/database"
	"github.com/docksafe/docksafe-backend/internal/scanner"
	"github.com/docksafe/docksafe-backend/model"
	"github.com/docksafe/docksafe-backend/util"
)

var logger = database.InitLogger()

// ScanStore is the persistence surface the orchestrator depends on
type ScanStore interface {
	CreateScan(ctx context.Context, scan *model.Scan) (string, error)
	UpdateScan(ctx context.Context, key string, upd model.ScanUpdate) error
	GetScan(ctx context.Context, key string) (*model.Scan, error)
	ScansByGroup(ctx context.Context, groupID string, limit int) ([]model.Scan, error)
	ScansByImage(ctx context.Context, imageName, groupID string, limit int) ([]model.Scan, error)
	InsertVulnerabilities(ctx context.Context, vulns []model.Vulnerability) error
	VulnerabilitiesByScan(ctx context.Context, scanKey, severity string) ([]model.Vulnerability, error)
	DeleteVulnerabilitiesByScan(ctx context.Context, scanKey string) error
	ApplyExceptionsAndRecount(ctx context.Context, scanKey string, exceptedCVEs []string) (int, error)
	ExceptionsForImage(ctx context.Context, imageName string) ([]model.Exception, error)
}

// Notifier dispatches completion notifications for a finished scan
type Notifier interface {
	DispatchScanComplete(ctx context.Context, scan *model.Scan) model.DispatchReport
}

// EventPublisher announces finished scans to downstream consumers
type EventPublisher interface {
	PublishScanCompleted(ctx context.Context, scan *model.Scan) error
}

// ScanService orchestrates the scan lifecycle: record creation, backend
// invocation, finding storage, exception filtering, count recomputation,
// final persistence, and best-effort notification. Notifier and Events are
// optional.
type ScanService struct {
	Store     ScanStore
	Backend   scanner.Backend
	Notifier  Notifier
	Events    EventPublisher
	Threshold string
}

// NewScanService builds an orchestrator over a store and backend
func NewScanService(store ScanStore, backend scanner.Backend) *ScanService {
	return &ScanService{
		Store:     store,
		Backend:   backend,
		Threshold: util.DefaultThreshold,
	}
}

// ScanImage runs the full scan pipeline for one image. A new scan record is
// always created; reruns never mutate a prior record. Validation and backend
// unavailability fail fast with no record side effects. Persistence failures
// after record creation downgrade the record to FAILED best-effort and then
// propagate.
func (s *ScanService) ScanImage(ctx context.Context, imageName, imageTag, groupID, userID string) (*model.Scan, error) {
	imageName, imageTag = resolveImageRef(imageName, imageTag)
	if err := scanner.ValidateImageRef(imageName, imageTag); err != nil {
		return nil, err
	}
	if !s.Backend.IsAvailable() {
		return nil, scanner.ErrBackendUnavailable
	}

	logger.Sugar().Infof("Starting vulnerability scan for %s:%s", imageName, imageTag)

	scan := model.NewScan(imageName, imageTag, s.Backend.Type(), groupID, userID)
	if v := util.ParseSemanticVersion(imageTag); v != nil {
		scan.TagMajor, scan.TagMinor, scan.TagPatch = v.Major, v.Minor, v.Patch
	}
	scanKey, err := s.Store.CreateScan(ctx, scan)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan record: %w", err)
	}

	result, err := s.Backend.Scan(ctx, imageName, imageTag)
	if err != nil {
		return nil, s.failScan(ctx, scanKey, err)
	}

	if result.ScanStatus == model.ScanStatusCancelled {
		return s.finishCancelled(ctx, scanKey, result)
	}

	if err := s.storeFindings(ctx, scanKey, result); err != nil {
		return nil, s.failScan(ctx, scanKey, err)
	}

	exceptedCVEs, err := s.validExceptionCVEs(ctx, imageName)
	if err != nil {
		return nil, s.failScan(ctx, scanKey, err)
	}

	removed, err := s.Store.ApplyExceptionsAndRecount(ctx, scanKey, exceptedCVEs)
	if err != nil {
		return nil, s.failScan(ctx, scanKey, err)
	}
	if removed > 0 {
		logger.Sugar().Infof("Applied exceptions to scan %s, removed %d findings", scanKey, removed)
	}

	if err := s.Store.UpdateScan(ctx, scanKey, finalUpdate(result)); err != nil {
		return nil, s.failScan(ctx, scanKey, err)
	}

	final, err := s.Store.GetScan(ctx, scanKey)
	if err != nil || final == nil {
		return nil, fmt.Errorf("failed to reload scan %s: %w", scanKey, err)
	}

	logger.Sugar().Infof("Scan completed for %s:%s - Status: %s, Vulnerabilities: %d",
		imageName, imageTag, final.ScanStatus, final.TotalVulnerabilities)

	if final.ScanStatus == model.ScanStatusSuccess || final.ScanStatus == model.ScanStatusFailed {
		s.notify(ctx, final)
	}
	s.publish(ctx, final)

	return final, nil
}

// GetScan returns a scan record by id
func (s *ScanService) GetScan(ctx context.Context, scanKey string) (*model.Scan, error) {
	return s.Store.GetScan(ctx, scanKey)
}

// GetScanHistory lists scans, optionally filtered by image, newest first
func (s *ScanService) GetScanHistory(ctx context.Context, imageName, groupID string, limit int) ([]model.Scan, error) {
	if limit <= 0 {
		limit = 50
	}
	if imageName != "" {
		return s.Store.ScansByImage(ctx, imageName, groupID, limit)
	}
	return s.Store.ScansByGroup(ctx, groupID, limit)
}

// ListFindings returns a scan's stored findings, optionally filtered to one
// severity level
func (s *ScanService) ListFindings(ctx context.Context, scanKey, severityFilter string) ([]model.Vulnerability, error) {
	if severityFilter != "" {
		severityFilter = util.NormalizeSeverity(severityFilter)
	}
	return s.Store.VulnerabilitiesByScan(ctx, scanKey, severityFilter)
}

// ShouldFailBuild applies the build gate to a finished scan's counters
func (s *ScanService) ShouldFailBuild(scan *model.Scan, threshold string) bool {
	if threshold == "" {
		threshold = s.Threshold
	}
	counts := util.SeverityCounts{
		Critical: scan.CriticalCount,
		High:     scan.HighCount,
		Medium:   scan.MediumCount,
		Low:      scan.LowCount,
	}
	return util.ShouldFailBuild(counts, threshold)
}

// ScannerInfo describes the configured backend for status endpoints
type ScannerInfo struct {
	ScannerType string `json:"scanner_type"`
	Version     string `json:"scanner_version"`
	IsAvailable bool   `json:"is_available"`
}

// GetScannerInfo probes the configured backend
func (s *ScanService) GetScannerInfo() ScannerInfo {
	return ScannerInfo{
		ScannerType: s.Backend.Type(),
		Version:     s.Backend.Version(),
		IsAvailable: s.Backend.IsAvailable(),
	}
}

// resolveImageRef splits a combined reference like "nginx:1.25" when no
// explicit tag was given, and canonicalizes the default "library/" org away.
// Registry-qualified names are kept verbatim apart from the tag split.
func resolveImageRef(imageName, imageTag string) (string, string) {
	if imageTag != "" {
		return imageName, imageTag
	}
	ref := util.ParseImageRef(imageName)
	if ref.Registry != "" {
		return strings.TrimSuffix(imageName, ":"+ref.Tag), ref.Tag
	}
	return ref.FullName(), ref.Tag
}

// storeFindings converts transient findings into vulnerability records
func (s *ScanService) storeFindings(ctx context.Context, scanKey string, result *scanner.Result) error {
	if len(result.Findings) == 0 {
		return nil
	}
	vulns := make([]model.Vulnerability, 0, len(result.Findings))
	for _, f := range result.Findings {
		vulns = append(vulns, model.Vulnerability{
			ScanKey:          scanKey,
			CveID:            f.CveID,
			Severity:         util.NormalizeSeverity(f.Severity),
			PackageName:      f.PackageName,
			PackagePURL:      util.PackagePURL("", f.PackageName, f.PackageVersion),
			PackageVersion:   f.PackageVersion,
			FixedVersion:     f.FixedVersion,
			FixAvailable:     util.FixAvailable(f.PackageVersion, f.FixedVersion),
			Description:      f.Description,
			CvssScore:        f.CvssScore,
			CvssVector:       f.CvssVector,
			PublishedDate:    f.PublishedDate,
			LastModifiedDate: f.LastModifiedDate,
			References:       f.References,
			ObjType:          "Vulnerability",
			CreatedAt:        time.Now().UTC(),
		})
	}
	if err := s.Store.InsertVulnerabilities(ctx, vulns); err != nil {
		return fmt.Errorf("failed to store findings: %w", err)
	}
	return nil
}

// validExceptionCVEs loads the exceptions applying to an image and keeps
// the ids of those still valid at filter time
func (s *ScanService) validExceptionCVEs(ctx context.Context, imageName string) ([]string, error) {
	exceptions, err := s.Store.ExceptionsForImage(ctx, imageName)
	if err != nil {
		return nil, fmt.Errorf("failed to load exceptions: %w", err)
	}
	cves := []string{}
	for i := range exceptions {
		if exceptions[i].IsValid() {
			cves = append(cves, exceptions[i].CveID)
		}
	}
	return cves, nil
}

// failScan downgrades the record to FAILED best-effort and returns the
// original error for the caller
func (s *ScanService) failScan(ctx context.Context, scanKey string, cause error) error {
	logger.Sugar().Errorf("Error during scan %s: %v", scanKey, cause)

	status := model.ScanStatusFailed
	output := cause.Error()
	upd := model.ScanUpdate{ScanStatus: &status, ScanOutput: &output}
	if err := s.Store.UpdateScan(ctx, scanKey, upd); err != nil {
		logger.Sugar().Errorf("Failed to mark scan %s as failed: %v", scanKey, err)
	}
	return cause
}

// finishCancelled records a cancelled scan; partial findings are discarded,
// never persisted
func (s *ScanService) finishCancelled(ctx context.Context, scanKey string, result *scanner.Result) (*model.Scan, error) {
	if err := s.Store.DeleteVulnerabilitiesByScan(ctx, scanKey); err != nil {
		logger.Sugar().Errorf("Failed to discard findings for cancelled scan %s: %v", scanKey, err)
	}
	if err := s.Store.UpdateScan(ctx, scanKey, finalUpdate(result)); err != nil {
		return nil, s.failScan(ctx, scanKey, err)
	}
	return s.Store.GetScan(ctx, scanKey)
}

// finalUpdate maps a backend result onto the durable record fields
func finalUpdate(result *scanner.Result) model.ScanUpdate {
	now := time.Now().UTC()
	output := normalizeScanOutput(result.ScanOutput)
	return model.ScanUpdate{
		ScanStatus:          &result.ScanStatus,
		ScannerVersion:      &result.ScannerVersion,
		ScanOutput:          &output,
		ScanMetadata:        &result.Metadata,
		ScanDurationSeconds: &result.ScanDurationSeconds,
		ScanTimestamp:       &now,
	}
}

// normalizeScanOutput rewrites well-known backend error text into an
// operator-friendly message
func normalizeScanOutput(output string) string {
	lowered := strings.ToLower(output)
	if strings.Contains(lowered, "no such image") ||
		strings.Contains(lowered, "manifest unknown") ||
		strings.Contains(lowered, "repository does not exist") {
		return "Image not found. Verify the image name and tag exist locally or in the registry.\n\n" + output
	}
	return output
}

func (s *ScanService) notify(ctx context.Context, scan *model.Scan) {
	if s.Notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Sugar().Errorf("Notification dispatch panicked for scan %s: %v", scan.Key, r)
		}
	}()
	report := s.Notifier.DispatchScanComplete(ctx, scan)
	logger.Sugar().Infof("Notification dispatch for scan %s: %d chat, %d email results",
		scan.Key, len(report.Chat), len(report.Email))
}

func (s *ScanService) publish(ctx context.Context, scan *model.Scan) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishScanCompleted(ctx, scan); err != nil {
		logger.Sugar().Errorf("Failed to publish scan completion event for %s: %v", scan.Key, err)
	}
}

// Package database - scan and vulnerability persistence
package database

import (
	"context"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/docksafe/docksafe-backend/model"
)

// Store wraps a DBConnection with the query operations the service layer
// depends on. Services accept the interfaces they need; Store satisfies all
// of them.
type Store struct {
	DB DBConnection
}

// NewStore creates a Store over an initialized database connection
func NewStore(db DBConnection) *Store {
	return &Store{DB: db}
}

// CreateScan persists a new scan record and returns its key
func (s *Store) CreateScan(ctx context.Context, scan *model.Scan) (string, error) {
	meta, err := s.DB.Collections["scan"].CreateDocument(ctx, scan)
	if err != nil {
		return "", err
	}
	scan.Key = meta.Key
	return meta.Key, nil
}

// UpdateScan applies a typed partial update to a scan record
func (s *Store) UpdateScan(ctx context.Context, key string, upd model.ScanUpdate) error {
	patch := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if upd.ScanStatus != nil {
		patch["scan_status"] = *upd.ScanStatus
	}
	if upd.ScannerVersion != nil {
		patch["scanner_version"] = *upd.ScannerVersion
	}
	if upd.ScanOutput != nil {
		patch["scan_output"] = *upd.ScanOutput
	}
	if upd.ScanMetadata != nil {
		patch["scan_metadata"] = *upd.ScanMetadata
	}
	if upd.ScanDurationSeconds != nil {
		patch["scan_duration_seconds"] = *upd.ScanDurationSeconds
	}
	if upd.ScanTimestamp != nil {
		patch["scan_timestamp"] = *upd.ScanTimestamp
	}

	query := `UPDATE @key WITH @patch IN scan`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"key":   key,
			"patch": patch,
		},
	})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// GetScan fetches a scan record by key, nil when not found
func (s *Store) GetScan(ctx context.Context, key string) (*model.Scan, error) {
	query := `
		FOR sc IN scan
			FILTER sc._key == @key
			LIMIT 1
			RETURN sc
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var scan model.Scan
		if _, err := cursor.ReadDocument(ctx, &scan); err != nil {
			return nil, err
		}
		return &scan, nil
	}
	return nil, nil
}

// ScansByGroup returns a group's scans, newest first
func (s *Store) ScansByGroup(ctx context.Context, groupID string, limit int) ([]model.Scan, error) {
	query := `
		FOR sc IN scan
			FILTER sc.group_id == @group_id
			SORT sc.created_at DESC
			LIMIT @limit
			RETURN sc
	`
	return s.queryScans(ctx, query, map[string]interface{}{
		"group_id": groupID,
		"limit":    limit,
	})
}

// ScansByImage returns scans for one image, optionally scoped to a group
func (s *Store) ScansByImage(ctx context.Context, imageName, groupID string, limit int) ([]model.Scan, error) {
	query := `
		FOR sc IN scan
			FILTER sc.image_name == @image_name
			FILTER @group_id == "" OR sc.group_id == @group_id
			SORT sc.created_at DESC
			LIMIT @limit
			RETURN sc
	`
	return s.queryScans(ctx, query, map[string]interface{}{
		"image_name": imageName,
		"group_id":   groupID,
		"limit":      limit,
	})
}

// ScansSince returns every scan of a group created at or after cutoff
func (s *Store) ScansSince(ctx context.Context, groupID string, cutoff time.Time) ([]model.Scan, error) {
	query := `
		FOR sc IN scan
			FILTER sc.group_id == @group_id
			FILTER DATE_TIMESTAMP(sc.created_at) >= DATE_TIMESTAMP(@cutoff)
			SORT sc.created_at ASC
			RETURN sc
	`
	return s.queryScans(ctx, query, map[string]interface{}{
		"group_id": groupID,
		"cutoff":   cutoff.Format(time.RFC3339),
	})
}

func (s *Store) queryScans(ctx context.Context, query string, bindVars map[string]interface{}) ([]model.Scan, error) {
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	scans := []model.Scan{}
	for cursor.HasMore() {
		var scan model.Scan
		if _, err := cursor.ReadDocument(ctx, &scan); err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, nil
}

// InsertVulnerabilities stores findings linked to their scan
func (s *Store) InsertVulnerabilities(ctx context.Context, vulns []model.Vulnerability) error {
	col := s.DB.Collections["vulnerability"]
	for i := range vulns {
		if _, err := col.CreateDocument(ctx, &vulns[i]); err != nil {
			return err
		}
	}
	return nil
}

// VulnerabilitiesByScan returns a scan's stored findings, optionally
// filtered to one severity, most severe first
func (s *Store) VulnerabilitiesByScan(ctx context.Context, scanKey, severity string) ([]model.Vulnerability, error) {
	query := `
		FOR v IN vulnerability
			FILTER v.scan_key == @scan_key
			FILTER @severity == "" OR v.severity == @severity
			SORT v.severity == "CRITICAL" ? 4 : (v.severity == "HIGH" ? 3 : (v.severity == "MEDIUM" ? 2 : 1)) DESC, v.cve_id ASC
			RETURN v
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"scan_key": scanKey,
			"severity": severity,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	vulns := []model.Vulnerability{}
	for cursor.HasMore() {
		var v model.Vulnerability
		if _, err := cursor.ReadDocument(ctx, &v); err != nil {
			return nil, err
		}
		vulns = append(vulns, v)
	}
	return vulns, nil
}

// ApplyExceptionsAndRecount removes excepted findings from a scan and
// recomputes the denormalized severity counters in one AQL query, so
// readers never observe a filtered-but-uncounted record. The vulnerability
// set is read once up front; kept/removed partitions and the counter update
// derive from that snapshot.
func (s *Store) ApplyExceptionsAndRecount(ctx context.Context, scanKey string, exceptedCVEs []string) (int, error) {
	if exceptedCVEs == nil {
		exceptedCVEs = []string{}
	}
	query := `
		LET rows = (
			FOR v IN vulnerability
				FILTER v.scan_key == @scan_key
				RETURN { key: v._key, cve: v.cve_id, severity: v.severity }
		)
		LET removed = (
			FOR r IN rows
				FILTER r.cve IN @excepted
				REMOVE r.key IN vulnerability
				RETURN 1
		)
		LET kept = (FOR r IN rows FILTER r.cve NOT IN @excepted RETURN r)
		LET critical = LENGTH(FOR r IN kept FILTER r.severity == "CRITICAL" RETURN 1)
		LET high     = LENGTH(FOR r IN kept FILTER r.severity == "HIGH" RETURN 1)
		LET medium   = LENGTH(FOR r IN kept FILTER r.severity == "MEDIUM" RETURN 1)
		LET low      = LENGTH(FOR r IN kept FILTER r.severity == "LOW" RETURN 1)
		UPDATE @scan_key WITH {
			critical_count: critical,
			high_count: high,
			medium_count: medium,
			low_count: low,
			total_vulnerabilities: critical + high + medium + low,
			updated_at: DATE_ISO8601(DATE_NOW())
		} IN scan
		RETURN LENGTH(removed)
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"scan_key": scanKey,
			"excepted": exceptedCVEs,
		},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close()

	removed := 0
	if cursor.HasMore() {
		if _, err := cursor.ReadDocument(ctx, &removed); err != nil {
			return 0, err
		}
	}
	return removed, nil
}

// DeleteVulnerabilitiesByScan discards all findings of a scan. Used when a
// cancelled scan must not keep partially parsed results.
func (s *Store) DeleteVulnerabilitiesByScan(ctx context.Context, scanKey string) error {
	query := `
		FOR v IN vulnerability
			FILTER v.scan_key == @scan_key
			REMOVE v IN vulnerability
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"scan_key": scanKey},
	})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// Package dashboard implements the resolvers for dashboard metrics.
package dashboard

import (
	"context"
	"time"

	"github.com/docksafe/docksafe-backend/database"
	"github.com/docksafe/docksafe-backend/internal/services"
)

// ResolveScanStatistics fetches the aggregate scan metrics for a group
func ResolveScanStatistics(db database.DBConnection, groupID string, days int) (interface{}, error) {
	stats, err := services.NewStatsService(database.NewStore(db)).GetStatistics(context.Background(), groupID, days)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"period_days":              stats.PeriodDays,
		"total_scans":              stats.TotalScans,
		"successful_scans":         stats.SuccessfulScans,
		"failed_scans":             stats.FailedScans,
		"success_rate":             stats.SuccessRate,
		"total_vulnerabilities":    stats.TotalVulns,
		"critical_vulnerabilities": stats.CriticalVulns,
		"high_vulnerabilities":     stats.HighVulns,
		"medium_vulnerabilities":   stats.MediumVulns,
		"low_vulnerabilities":      stats.LowVulns,
	}, nil
}

// ResolveSeverityDistribution fetches the current severity breakdown
func ResolveSeverityDistribution(db database.DBConnection, groupID string, days int) (interface{}, error) {
	stats, err := services.NewStatsService(database.NewStore(db)).GetStatistics(context.Background(), groupID, days)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"critical": stats.CriticalVulns,
		"high":     stats.HighVulns,
		"medium":   stats.MediumVulns,
		"low":      stats.LowVulns,
	}, nil
}

// ResolveVulnerabilityTrend returns day-bucketed severity counts; every day
// in range yields a bucket so the chart has no gaps
func ResolveVulnerabilityTrend(db database.DBConnection, groupID string, days int) ([]map[string]interface{}, error) {
	chart, err := services.NewStatsService(database.NewStore(db)).GetChartData(context.Background(), groupID, days)
	if err != nil {
		return []map[string]interface{}{}, err
	}

	trend := make([]map[string]interface{}, 0, len(chart.Labels))
	for i := range chart.Labels {
		trend = append(trend, map[string]interface{}{
			"date":     chart.Labels[i],
			"critical": chart.Critical[i],
			"high":     chart.High[i],
			"medium":   chart.Medium[i],
			"low":      chart.Low[i],
		})
	}
	return trend, nil
}

// ResolveRecentScans returns the latest scans of a group for the dashboard table
func ResolveRecentScans(db database.DBConnection, groupID string, limit int) ([]map[string]interface{}, error) {
	scans, err := database.NewStore(db).ScansByGroup(context.Background(), groupID, limit)
	if err != nil {
		return []map[string]interface{}{}, err
	}

	rows := make([]map[string]interface{}, 0, len(scans))
	for i := range scans {
		scan := &scans[i]
		rows = append(rows, map[string]interface{}{
			"key":                   scan.Key,
			"image_name":            scan.ImageName,
			"image_tag":             scan.ImageTag,
			"scan_status":           scan.ScanStatus,
			"scanner_type":          scan.ScannerType,
			"total_vulnerabilities": scan.TotalVulnerabilities,
			"critical_count":        scan.CriticalCount,
			"high_count":            scan.HighCount,
			"medium_count":          scan.MediumCount,
			"low_count":             scan.LowCount,
			"created_at":            scan.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows, nil
}

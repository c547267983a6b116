// Package services - historical scan statistics
package services

import (
	"context"
	"time"

	"github.com/docksafe/docksafe-backend/model"
)

// StatsStore is the persistence surface the aggregator depends on
type StatsStore interface {
	ScansSince(ctx context.Context, groupID string, cutoff time.Time) ([]model.Scan, error)
}

// StatsService rolls historical scans up into totals and day-bucketed
// series for reporting
type StatsService struct {
	Store StatsStore
}

// NewStatsService builds an aggregator over a store
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{Store: store}
}

// Statistics summarizes a group's scans over a day window
type Statistics struct {
	PeriodDays      int     `json:"period_days"`
	TotalScans      int     `json:"total_scans"`
	SuccessfulScans int     `json:"successful_scans"`
	FailedScans     int     `json:"failed_scans"`
	SuccessRate     float64 `json:"success_rate"`
	TotalVulns      int     `json:"total_vulnerabilities"`
	CriticalVulns   int     `json:"critical_vulnerabilities"`
	HighVulns       int     `json:"high_vulnerabilities"`
	MediumVulns     int     `json:"medium_vulnerabilities"`
	LowVulns        int     `json:"low_vulnerabilities"`
}

// ChartData is a day-bucketed severity series. All arrays have one entry per
// calendar day in the window and are index-aligned to Labels; empty days
// emit zero-filled buckets.
type ChartData struct {
	Labels   []string `json:"labels"`
	Critical []int    `json:"critical"`
	High     []int    `json:"high"`
	Medium   []int    `json:"medium"`
	Low      []int    `json:"low"`
}

// GetStatistics computes scan totals and severity sums for a group over the
// last `days` days. Success rate is a percentage, zero when no scans exist.
func (s *StatsService) GetStatistics(ctx context.Context, groupID string, days int) (*Statistics, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	scans, err := s.Store.ScansSince(ctx, groupID, cutoff)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{PeriodDays: days}
	for i := range scans {
		scan := &scans[i]
		stats.TotalScans++
		switch scan.ScanStatus {
		case model.ScanStatusSuccess:
			stats.SuccessfulScans++
		case model.ScanStatusFailed:
			stats.FailedScans++
		}
		stats.TotalVulns += scan.TotalVulnerabilities
		stats.CriticalVulns += scan.CriticalCount
		stats.HighVulns += scan.HighCount
		stats.MediumVulns += scan.MediumCount
		stats.LowVulns += scan.LowCount
	}

	if stats.TotalScans > 0 {
		stats.SuccessRate = float64(stats.SuccessfulScans) / float64(stats.TotalScans) * 100
	}
	return stats, nil
}

// GetChartData buckets a group's severity counts by calendar day over the
// last `days` days. Every day in range yields a bucket, gaps included.
func (s *StatsService) GetChartData(ctx context.Context, groupID string, days int) (*ChartData, error) {
	if days <= 0 {
		days = 7
	}
	end := time.Now().UTC()
	// First bucket is days-1 ago so the last bucket is today
	start := end.AddDate(0, 0, -(days - 1))

	scans, err := s.Store.ScansSince(ctx, groupID, start.Truncate(24*time.Hour))
	if err != nil {
		return nil, err
	}

	chart := &ChartData{
		Labels:   make([]string, 0, days),
		Critical: make([]int, 0, days),
		High:     make([]int, 0, days),
		Medium:   make([]int, 0, days),
		Low:      make([]int, 0, days),
	}

	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		chart.Labels = append(chart.Labels, day.Format("Jan 02"))

		critical, high, medium, low := 0, 0, 0, 0
		for j := range scans {
			scan := &scans[j]
			ts := scan.ScanTimestamp
			if ts == nil {
				ts = &scan.CreatedAt
			}
			if sameDay(*ts, day) {
				critical += scan.CriticalCount
				high += scan.HighCount
				medium += scan.MediumCount
				low += scan.LowCount
			}
		}
		chart.Critical = append(chart.Critical, critical)
		chart.High = append(chart.High, high)
		chart.Medium = append(chart.Medium, medium)
		chart.Low = append(chart.Low, low)
	}
	return chart, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docksafe/docksafe-backend/model"
)

type fakeStatsStore struct {
	scans []model.Scan
	err   error
}

func (f *fakeStatsStore) ScansSince(_ context.Context, _ string, cutoff time.Time) ([]model.Scan, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []model.Scan{}
	for _, scan := range f.scans {
		if !scan.CreatedAt.Before(cutoff) {
			out = append(out, scan)
		}
	}
	return out, nil
}

func scanAt(ts time.Time, status string, critical, high, medium, low int) model.Scan {
	return model.Scan{
		ScanStatus:           status,
		CriticalCount:        critical,
		HighCount:            high,
		MediumCount:          medium,
		LowCount:             low,
		TotalVulnerabilities: critical + high + medium + low,
		CreatedAt:            ts,
		ScanTimestamp:        &ts,
	}
}

func TestGetStatistics(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStatsStore{scans: []model.Scan{
		scanAt(now.Add(-time.Hour), model.ScanStatusSuccess, 1, 2, 3, 4),
		scanAt(now.Add(-48*time.Hour), model.ScanStatusSuccess, 0, 1, 0, 0),
		scanAt(now.Add(-72*time.Hour), model.ScanStatusFailed, 0, 0, 0, 0),
		scanAt(now.Add(-96*time.Hour), model.ScanStatusTimeout, 0, 0, 0, 0),
	}}

	stats, err := NewStatsService(store).GetStatistics(context.Background(), "grp", 30)
	require.NoError(t, err)

	assert.Equal(t, 30, stats.PeriodDays)
	assert.Equal(t, 4, stats.TotalScans)
	assert.Equal(t, 2, stats.SuccessfulScans)
	assert.Equal(t, 1, stats.FailedScans)
	assert.InDelta(t, 50.0, stats.SuccessRate, 0.01)
	assert.Equal(t, 11, stats.TotalVulns)
	assert.Equal(t, 1, stats.CriticalVulns)
	assert.Equal(t, 3, stats.HighVulns)
	assert.Equal(t, 3, stats.MediumVulns)
	assert.Equal(t, 4, stats.LowVulns)
}

func TestGetStatisticsNoScans(t *testing.T) {
	stats, err := NewStatsService(&fakeStatsStore{}).GetStatistics(context.Background(), "grp", 30)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalScans)
	assert.Zero(t, stats.SuccessRate, "success rate defined as zero when no scans exist")
}

func TestGetStatisticsDefaultsDays(t *testing.T) {
	stats, err := NewStatsService(&fakeStatsStore{}).GetStatistics(context.Background(), "grp", 0)
	require.NoError(t, err)
	assert.Equal(t, 30, stats.PeriodDays)
}

func TestGetStatisticsStoreError(t *testing.T) {
	_, err := NewStatsService(&fakeStatsStore{err: errors.New("db down")}).GetStatistics(context.Background(), "grp", 30)
	assert.Error(t, err)
}

func TestGetChartDataGapless(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStatsStore{scans: []model.Scan{
		scanAt(now, model.ScanStatusSuccess, 1, 0, 0, 0),
		scanAt(now.Add(-49*time.Hour), model.ScanStatusSuccess, 0, 2, 1, 0),
		scanAt(now.Add(-50*time.Hour), model.ScanStatusSuccess, 0, 1, 0, 3),
	}}

	chart, err := NewStatsService(store).GetChartData(context.Background(), "grp", 7)
	require.NoError(t, err)

	// One bucket per calendar day, arrays index-aligned
	require.Len(t, chart.Labels, 7)
	require.Len(t, chart.Critical, 7)
	require.Len(t, chart.High, 7)
	require.Len(t, chart.Medium, 7)
	require.Len(t, chart.Low, 7)

	// Last bucket is today
	assert.Equal(t, now.Format("Jan 02"), chart.Labels[6])
	assert.Equal(t, 1, chart.Critical[6])

	totalHigh := 0
	for _, h := range chart.High {
		totalHigh += h
	}
	assert.Equal(t, 3, totalHigh, "all scans in range land in exactly one bucket")

	// Empty days emit zero buckets, not gaps
	zeroDays := 0
	for i := range chart.Labels {
		if chart.Critical[i] == 0 && chart.High[i] == 0 && chart.Medium[i] == 0 && chart.Low[i] == 0 {
			zeroDays++
		}
	}
	assert.GreaterOrEqual(t, zeroDays, 4)
}

func TestGetChartDataFallsBackToCreatedAt(t *testing.T) {
	now := time.Now().UTC()
	scan := scanAt(now, model.ScanStatusSuccess, 0, 0, 5, 0)
	scan.ScanTimestamp = nil

	chart, err := NewStatsService(&fakeStatsStore{scans: []model.Scan{scan}}).GetChartData(context.Background(), "grp", 7)
	require.NoError(t, err)
	assert.Equal(t, 5, chart.Medium[6])
}

func TestGetChartDataDefaultsDays(t *testing.T) {
	chart, err := NewStatsService(&fakeStatsStore{}).GetChartData(context.Background(), "grp", 0)
	require.NoError(t, err)
	assert.Len(t, chart.Labels, 7)
}

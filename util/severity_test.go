package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, NormalizeSeverity("critical"))
	assert.Equal(t, SeverityHigh, NormalizeSeverity(" High "))
	assert.Equal(t, SeverityMedium, NormalizeSeverity("MEDIUM"))
	assert.Equal(t, SeverityLow, NormalizeSeverity("low"))

	// Anything outside the canonical set folds to LOW
	assert.Equal(t, SeverityLow, NormalizeSeverity("UNKNOWN"))
	assert.Equal(t, SeverityLow, NormalizeSeverity("NEGLIGIBLE"))
	assert.Equal(t, SeverityLow, NormalizeSeverity(""))
}

func TestSeverityRank(t *testing.T) {
	assert.Equal(t, 4, SeverityRank(SeverityCritical))
	assert.Equal(t, 3, SeverityRank(SeverityHigh))
	assert.Equal(t, 2, SeverityRank(SeverityMedium))
	assert.Equal(t, 1, SeverityRank(SeverityLow))
	assert.Equal(t, 1, SeverityRank("bogus"))
}

func TestMeetsOrExceeds(t *testing.T) {
	assert.True(t, MeetsOrExceeds(SeverityHigh, SeverityCritical))
	assert.True(t, MeetsOrExceeds(SeverityHigh, SeverityHigh))
	assert.False(t, MeetsOrExceeds(SeverityHigh, SeverityMedium))
	assert.True(t, MeetsOrExceeds(SeverityLow, "unknown"))
}

func TestShouldFailBuild(t *testing.T) {
	tests := []struct {
		name      string
		counts    SeverityCounts
		threshold string
		want      bool
	}{
		{"clean scan passes", SeverityCounts{}, SeverityHigh, false},
		{"critical fails high threshold", SeverityCounts{Critical: 1}, SeverityHigh, true},
		{"high fails high threshold", SeverityCounts{High: 2}, SeverityHigh, true},
		{"medium passes high threshold", SeverityCounts{Medium: 10}, SeverityHigh, false},
		{"low passes high threshold", SeverityCounts{Low: 50}, SeverityHigh, false},
		{"medium fails medium threshold", SeverityCounts{Medium: 1}, SeverityMedium, true},
		{"low fails low threshold", SeverityCounts{Low: 1}, SeverityLow, true},
		{"only critical fails critical threshold", SeverityCounts{High: 9}, SeverityCritical, false},
		{"critical fails critical threshold", SeverityCounts{Critical: 1}, SeverityCritical, true},
		{"unknown threshold treated as LOW", SeverityCounts{Low: 1}, "bogus", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldFailBuild(tt.counts, tt.threshold))
		})
	}
}

// Raising any counter can only flip the gate from pass to fail, never back.
func TestShouldFailBuildMonotonic(t *testing.T) {
	base := SeverityCounts{Medium: 1}
	for _, threshold := range Severities {
		before := ShouldFailBuild(base, threshold)

		bumped := []SeverityCounts{
			{Critical: 1, Medium: 1},
			{High: 1, Medium: 1},
			{Medium: 2},
			{Medium: 1, Low: 1},
		}
		for _, counts := range bumped {
			after := ShouldFailBuild(counts, threshold)
			if before {
				assert.True(t, after, "threshold %s: gate flipped fail -> pass", threshold)
			}
		}
	}
}

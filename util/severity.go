// Package util provides utility functions for the backend.
//
//revive:disable-next-line:var-naming
package util

import "strings"

// Canonical severity levels, ordered CRITICAL > HIGH > MEDIUM > LOW
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"
)

// DefaultThreshold is the canonical build-fail threshold
const DefaultThreshold = SeverityHigh

var severityLevels = map[string]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// Severities lists the canonical levels from most to least severe
var Severities = []string{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// NormalizeSeverity maps scanner-reported severity strings onto the canonical
// set. Unrecognized input (including UNKNOWN and empty) normalizes to LOW,
// never rejected.
func NormalizeSeverity(severity string) string {
	s := strings.ToUpper(strings.TrimSpace(severity))
	if _, ok := severityLevels[s]; ok {
		return s
	}
	return SeverityLow
}

// SeverityRank returns the numeric rank of a severity, CRITICAL=4 down to
// LOW=1. Unknown severities rank as LOW.
func SeverityRank(severity string) int {
	return severityLevels[NormalizeSeverity(severity)]
}

// MeetsOrExceeds reports whether severity is at least as severe as threshold
func MeetsOrExceeds(threshold, severity string) bool {
	return SeverityRank(severity) >= SeverityRank(threshold)
}

// SeverityCounts holds per-severity finding counts for gating decisions
type SeverityCounts struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

// ShouldFailBuild reports whether any finding exists at or above the
// threshold severity. The decision is a monotonic step function over the
// four counters: raising a count can flip false to true, never the reverse.
func ShouldFailBuild(counts SeverityCounts, threshold string) bool {
	level := SeverityRank(threshold)
	if level <= severityLevels[SeverityCritical] && counts.Critical > 0 {
		return true
	}
	if level <= severityLevels[SeverityHigh] && counts.High > 0 {
		return true
	}
	if level <= severityLevels[SeverityMedium] && counts.Medium > 0 {
		return true
	}
	if level <= severityLevels[SeverityLow] && counts.Low > 0 {
		return true
	}
	return false
}

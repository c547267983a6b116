package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docksafe/docksafe-backend/util"
)

func TestValidateImageRef(t *testing.T) {
	assert.NoError(t, ValidateImageRef("nginx", "latest"))
	assert.NoError(t, ValidateImageRef("ghcr.io/acme/api", "v2.1.0"))

	tests := []struct {
		name      string
		imageName string
		imageTag  string
		field     string
	}{
		{"empty name", "", "latest", "image name"},
		{"name too long", strings.Repeat("a", 256), "latest", "image name"},
		{"empty tag", "nginx", "", "image tag"},
		{"tag too long", "nginx", strings.Repeat("b", 101), "image tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageRef(tt.imageName, tt.imageTag)
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}

	// Boundary lengths pass
	assert.NoError(t, ValidateImageRef(strings.Repeat("a", 255), strings.Repeat("b", 100)))
}

func TestResultCounts(t *testing.T) {
	r := &Result{
		Findings: []Finding{
			{CveID: "CVE-1", Severity: util.SeverityCritical},
			{CveID: "CVE-2", Severity: util.SeverityHigh},
			{CveID: "CVE-3", Severity: util.SeverityHigh},
			{CveID: "CVE-4", Severity: util.SeverityMedium},
			{CveID: "CVE-5", Severity: "unknown"},
		},
	}

	counts := r.Counts()
	assert.Equal(t, 1, counts.Critical)
	assert.Equal(t, 2, counts.High)
	assert.Equal(t, 1, counts.Medium)
	assert.Equal(t, 1, counts.Low)

	assert.Equal(t, 5, r.TotalVulnerabilities())
	assert.True(t, r.HasCritical())
	assert.True(t, r.HasHigh())

	empty := &Result{}
	assert.Zero(t, empty.TotalVulnerabilities())
	assert.False(t, empty.HasCritical())
}

func TestResultFilterBySeverity(t *testing.T) {
	r := &Result{
		Findings: []Finding{
			{CveID: "CVE-1", Severity: util.SeverityCritical},
			{CveID: "CVE-2", Severity: util.SeverityHigh},
			{CveID: "CVE-3", Severity: util.SeverityMedium},
			{CveID: "CVE-4", Severity: util.SeverityLow},
		},
	}

	filtered := r.FilterBySeverity(util.SeverityHigh)
	require.Len(t, filtered, 2)
	assert.Equal(t, "CVE-1", filtered[0].CveID)
	assert.Equal(t, "CVE-2", filtered[1].CveID)

	assert.Len(t, r.FilterBySeverity(util.SeverityLow), 4)
	assert.Len(t, r.FilterBySeverity(util.SeverityCritical), 1)
}

func TestResultSummary(t *testing.T) {
	r := &Result{
		ImageName:           "nginx",
		ImageTag:            "1.25",
		ScanStatus:          "SUCCESS",
		ScanDurationSeconds: 12,
		ScannerVersion:      "0.48.3",
		Findings: []Finding{
			{CveID: "CVE-1", Severity: util.SeverityHigh},
		},
	}

	summary := r.Summary()
	assert.Equal(t, "nginx:1.25", summary["image"])
	assert.Equal(t, "SUCCESS", summary["status"])
	assert.Equal(t, 1, summary["total_vulnerabilities"])
	assert.Equal(t, 1, summary["high"])
	assert.Equal(t, 0, summary["critical"])
}

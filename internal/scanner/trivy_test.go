package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docksafe/docksafe-backend/util"
)

func testTrivyScanner() *TrivyScanner {
	return NewTrivyScanner(DefaultConfig())
}

func TestParseOutputResultsNested(t *testing.T) {
	output := `{
		"Results": [
			{
				"Target": "nginx:1.25 (debian 12.1)",
				"Vulnerabilities": [
					{
						"VulnerabilityID": "CVE-2023-4911",
						"Severity": "HIGH",
						"PkgName": "glibc",
						"InstalledVersion": "2.36-9",
						"FixedVersion": "2.36-9+deb12u3",
						"Description": "Buffer overflow in the dynamic loader.",
						"CVSS": {
							"nvd": {"V3Vector": "CVSS:3.1/AV:L/AC:L/PR:L/UI:N/S:U/C:H/I:H/A:H", "V3Score": 7.8}
						},
						"PublishedDate": "2023-10-03T17:15:00Z",
						"References": ["https://nvd.nist.gov/vuln/detail/CVE-2023-4911"]
					}
				]
			}
		]
	}`

	findings := testTrivyScanner().parseOutput(output)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "CVE-2023-4911", f.CveID)
	assert.Equal(t, util.SeverityHigh, f.Severity)
	assert.Equal(t, "glibc", f.PackageName)
	assert.Equal(t, "2.36-9", f.PackageVersion)
	assert.Equal(t, "2.36-9+deb12u3", f.FixedVersion)
	require.NotNil(t, f.CvssScore)
	assert.InDelta(t, 7.8, *f.CvssScore, 0.01)
	assert.Equal(t, "CVSS:3.1/AV:L/AC:L/PR:L/UI:N/S:U/C:H/I:H/A:H", f.CvssVector)
	require.NotNil(t, f.PublishedDate)
	assert.Equal(t, 2023, f.PublishedDate.Year())
	assert.Equal(t, []string{"https://nvd.nist.gov/vuln/detail/CVE-2023-4911"}, f.References)
}

func TestParseOutputFlatVulnerabilities(t *testing.T) {
	output := `{
		"Vulnerabilities": [
			{"VulnerabilityID": "CVE-2022-1111", "Severity": "MEDIUM", "PkgName": "zlib"},
			{"VulnerabilityID": "CVE-2022-2222", "Severity": "LOW", "PkgName": "bash"}
		]
	}`

	findings := testTrivyScanner().parseOutput(output)
	require.Len(t, findings, 2)
	assert.Equal(t, "CVE-2022-1111", findings[0].CveID)
	assert.Equal(t, util.SeverityMedium, findings[0].Severity)
	assert.Nil(t, findings[0].CvssScore)
}

func TestParseOutputTopLevelList(t *testing.T) {
	output := `[
		{"Results": [{"Vulnerabilities": [{"VulnerabilityID": "CVE-1", "Severity": "HIGH"}]}]},
		{"Vulnerabilities": [{"VulnerabilityID": "CVE-2", "Severity": "LOW"}]}
	]`

	findings := testTrivyScanner().parseOutput(output)
	require.Len(t, findings, 2)
}

func TestParseOutputSkipsMalformedFindings(t *testing.T) {
	output := `{
		"Vulnerabilities": [
			{"Severity": "HIGH", "PkgName": "no-id"},
			{"VulnerabilityID": "CVE-2022-3333", "Severity": "HIGH", "PkgName": "ok"}
		]
	}`

	findings := testTrivyScanner().parseOutput(output)
	require.Len(t, findings, 1)
	assert.Equal(t, "CVE-2022-3333", findings[0].CveID)
}

func TestParseOutputEmptyAndInvalid(t *testing.T) {
	s := testTrivyScanner()
	assert.Empty(t, s.parseOutput(""))
	assert.Empty(t, s.parseOutput("   "))
	assert.Empty(t, s.parseOutput("not json"))
	assert.Empty(t, s.parseOutput(`{"Results": []}`))
}

func TestParseOutputNormalizesUnknownSeverity(t *testing.T) {
	output := `{"Vulnerabilities": [{"VulnerabilityID": "CVE-9", "Severity": "UNKNOWN"}]}`
	findings := testTrivyScanner().parseOutput(output)
	require.Len(t, findings, 1)
	assert.Equal(t, util.SeverityLow, findings[0].Severity)
}

func TestParseOutputRatesMissingSeverityFromScore(t *testing.T) {
	output := `{
		"Vulnerabilities": [
			{"VulnerabilityID": "CVE-1", "CVSS": {"nvd": {"V3Score": 9.8}}},
			{"VulnerabilityID": "CVE-2", "CVSS": {"nvd": {"V3Score": 5.5}}},
			{"VulnerabilityID": "CVE-3"}
		]
	}`

	findings := testTrivyScanner().parseOutput(output)
	require.Len(t, findings, 3)
	assert.Equal(t, util.SeverityCritical, findings[0].Severity)
	assert.Equal(t, util.SeverityMedium, findings[1].Severity)
	assert.Equal(t, util.SeverityLow, findings[2].Severity, "no severity and no score still defaults to LOW")
}

func TestParseCvssScorePriority(t *testing.T) {
	score73 := 7.3
	score58 := 5.8
	score91 := 9.1

	// NVD v3 wins over everything
	got := parseCvssScore(map[string]trivyCVSS{
		"nvd":    {V3Score: &score73, V2Score: &score58},
		"redhat": {V3Score: &score91},
	})
	require.NotNil(t, got)
	assert.Equal(t, 7.3, *got)

	// NVD v2 beats vendor v3
	got = parseCvssScore(map[string]trivyCVSS{
		"nvd":    {V2Score: &score58},
		"redhat": {V3Score: &score91},
	})
	require.NotNil(t, got)
	assert.Equal(t, 5.8, *got)

	// Vendor trackers fill in when NVD is absent
	got = parseCvssScore(map[string]trivyCVSS{
		"redhat": {V3Score: &score91},
	})
	require.NotNil(t, got)
	assert.Equal(t, 9.1, *got)

	// Vector-only entry computes the score from the vector
	got = parseCvssScore(map[string]trivyCVSS{
		"nvd": {V3Vector: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H"},
	})
	require.NotNil(t, got)
	assert.InDelta(t, 10.0, *got, 0.01)

	// Absent everywhere stays nil, never zero
	assert.Nil(t, parseCvssScore(map[string]trivyCVSS{}))
	assert.Nil(t, parseCvssScore(map[string]trivyCVSS{"ghsa": {}}))
}

func TestParseTrivyDate(t *testing.T) {
	ts := parseTrivyDate("2023-10-03T17:15:00Z")
	require.NotNil(t, ts)
	assert.Equal(t, time.October, ts.Month())

	ts = parseTrivyDate("2023-10-03T17:15:00.123456Z")
	require.NotNil(t, ts)

	ts = parseTrivyDate("2023-10-03")
	require.NotNil(t, ts)
	assert.Equal(t, 3, ts.Day())

	assert.Nil(t, parseTrivyDate(""))
	assert.Nil(t, parseTrivyDate("03/10/2023"))
}

func TestSeverityFilterList(t *testing.T) {
	assert.Equal(t, "CRITICAL", severityFilterList(util.SeverityCritical))
	assert.Equal(t, "CRITICAL,HIGH", severityFilterList(util.SeverityHigh))
	assert.Equal(t, "CRITICAL,HIGH,MEDIUM", severityFilterList(util.SeverityMedium))
	assert.Equal(t, "CRITICAL,HIGH,MEDIUM,LOW", severityFilterList(util.SeverityLow))
}

package scanner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docksafe/docksafe-backend/model"
	"github.com/docksafe/docksafe-backend/util"
)

func clairScannerFor(url string, demoFallback bool) *ClairScanner {
	cfg := DefaultConfig()
	cfg.ClairURL = url
	cfg.ClairDemoFallback = demoFallback
	return NewClairScanner(cfg)
}

func TestClairIsAvailableHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := clairScannerFor(srv.URL, true)
	assert.True(t, c.IsAvailable())
	assert.False(t, c.inDemoMode())
}

func TestClairIsAvailableDemoFallback(t *testing.T) {
	// Unreachable endpoint with fallback enabled still reports available
	c := clairScannerFor("http://127.0.0.1:1", true)
	assert.True(t, c.IsAvailable())
	assert.True(t, c.inDemoMode())
}

func TestClairIsAvailableNoFallback(t *testing.T) {
	c := clairScannerFor("http://127.0.0.1:1", false)
	assert.False(t, c.IsAvailable())
	assert.False(t, c.inDemoMode())
}

func TestClairHealthRecoveryLeavesDemoMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := clairScannerFor(srv.URL, true)
	c.demoMode = true

	assert.True(t, c.IsAvailable())
	assert.False(t, c.inDemoMode())
}

func TestClairVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/version" {
			fmt.Fprint(w, `{"Version": "4.7.2"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.Equal(t, "4.7.2", clairScannerFor(srv.URL, true).Version())
	assert.Equal(t, "unknown", clairScannerFor("http://127.0.0.1:1", true).Version())
}

func TestClairScanRealReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/v1/images/alpine:3.18/vulnerabilities":
			fmt.Fprint(w, `{"Vulnerabilities": [
				{"Name": "CVE-2023-5678", "Severity": "Medium", "PackageName": "openssl",
				 "PackageVersion": "3.1.3-r0", "FixedInVersion": "3.1.4-r1",
				 "Description": "Slow DH key generation.",
				 "Link": "https://nvd.nist.gov/vuln/detail/CVE-2023-5678"},
				{"Severity": "High", "PackageName": "dropped-no-name"}
			]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := clairScannerFor(srv.URL, false)
	require.True(t, c.IsAvailable())

	result, err := c.Scan(context.Background(), "alpine", "3.18")
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusSuccess, result.ScanStatus)
	require.Len(t, result.Findings, 1)

	f := result.Findings[0]
	assert.Equal(t, "CVE-2023-5678", f.CveID)
	assert.Equal(t, util.SeverityMedium, f.Severity)
	assert.Equal(t, "openssl", f.PackageName)
	assert.Equal(t, []string{"https://nvd.nist.gov/vuln/detail/CVE-2023-5678"}, f.References)
	assert.NotContains(t, result.Metadata, "note")
}

func TestClairScanDemoMode(t *testing.T) {
	c := clairScannerFor("http://127.0.0.1:1", true)
	require.True(t, c.IsAvailable())
	require.True(t, c.inDemoMode())

	result, err := c.Scan(context.Background(), "nginx", "1.25")
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusSuccess, result.ScanStatus)
	assert.Equal(t, "demo", result.ScannerVersion)
	assert.Equal(t, demoModeNote, result.Metadata["note"])
	require.NotEmpty(t, result.Findings)
	assert.Equal(t, "CVE-2023-44487", result.Findings[0].CveID)
}

func TestClairScanFetchFailureFallsBackToDemo(t *testing.T) {
	// Health passes but the report endpoint fails
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := clairScannerFor(srv.URL, true)
	require.True(t, c.IsAvailable())

	result, err := c.Scan(context.Background(), "redis", "7.2")
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusSuccess, result.ScanStatus)
	assert.Equal(t, demoModeNote, result.Metadata["note"])
	assert.True(t, c.inDemoMode())
}

func TestClairScanFetchFailureNoFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := clairScannerFor(srv.URL, false)
	result, err := c.Scan(context.Background(), "redis", "7.2")
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusError, result.ScanStatus)
	assert.Empty(t, result.Findings)
}

func TestClairScanValidation(t *testing.T) {
	c := clairScannerFor("http://127.0.0.1:1", true)
	_, err := c.Scan(context.Background(), "", "latest")
	require.Error(t, err)

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestDemoFindingsKeywordSets(t *testing.T) {
	tests := []struct {
		image    string
		firstCve string
	}{
		{"nginx", "CVE-2023-44487"},
		{"alpine", "CVE-2023-5678"},
		{"ubuntu", "CVE-2024-3094"},
		{"library/debian", "CVE-2024-3094"},
		{"node", "CVE-2023-45143"},
		{"postgres", "CVE-2024-0985"},
		{"some-internal-app", "CVE-2023-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.image, func(t *testing.T) {
			findings := demoFindings(tt.image)
			require.NotEmpty(t, findings)
			assert.Equal(t, tt.firstCve, findings[0].CveID)
		})
	}

	// Deterministic: same image yields the same set
	assert.Equal(t, demoFindings("nginx"), demoFindings("NGINX"))
}

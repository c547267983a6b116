package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewScan(t *testing.T) {
	scan := NewScan("nginx", "1.25", "trivy", "grp", "alice")

	assert.Equal(t, "nginx", scan.ImageName)
	assert.Equal(t, "1.25", scan.ImageTag)
	assert.Equal(t, ScanStatusInProgress, scan.ScanStatus)
	assert.Equal(t, "trivy", scan.ScannerType)
	assert.Equal(t, "grp", scan.GroupID)
	assert.Equal(t, "alice", scan.CreatedBy)
	assert.Equal(t, "Scan", scan.ObjType)
	assert.Zero(t, scan.TotalVulnerabilities)
	assert.False(t, scan.CreatedAt.IsZero())
}

func TestScanIsTerminal(t *testing.T) {
	terminal := []string{
		ScanStatusSuccess,
		ScanStatusFailed,
		ScanStatusError,
		ScanStatusTimeout,
		ScanStatusCancelled,
	}
	for _, status := range terminal {
		scan := Scan{ScanStatus: status}
		assert.True(t, scan.IsTerminal(), status)
	}

	for _, status := range []string{ScanStatusPending, ScanStatusInProgress} {
		scan := Scan{ScanStatus: status}
		assert.False(t, scan.IsTerminal(), status)
	}
}

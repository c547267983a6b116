package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docksafe/docksafe-backend/model"
)

func TestSeverityMarker(t *testing.T) {
	tests := []struct {
		name    string
		scan    model.Scan
		urgency string
	}{
		{"critical wins", model.Scan{CriticalCount: 1, HighCount: 3, LowCount: 9}, "CRITICAL"},
		{"high next", model.Scan{HighCount: 1, MediumCount: 2}, "HIGH"},
		{"medium next", model.Scan{MediumCount: 1, LowCount: 4}, "MEDIUM"},
		{"low only", model.Scan{LowCount: 2}, "LOW"},
		{"no findings", model.Scan{}, "LOW"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, urgency := severityMarker(&tt.scan)
			assert.Equal(t, tt.urgency, urgency)
		})
	}
}

func TestAlertText(t *testing.T) {
	scan := &model.Scan{
		ImageName:            "nginx",
		ImageTag:             "1.25",
		TotalVulnerabilities: 4,
		CriticalCount:        1,
		HighCount:            2,
		LowCount:             1,
	}

	text := alertText(scan)
	assert.Contains(t, text, "CRITICAL")
	assert.Contains(t, text, "nginx:1.25")
	assert.Contains(t, text, "Total Vulnerabilities: 4")
	assert.Contains(t, text, "Critical: 1, High: 2, Medium: 0, Low: 1")
}

func TestCompletionText(t *testing.T) {
	scan := &model.Scan{ImageName: "nginx", ImageTag: "1.25", ScannerType: "trivy", ScanDurationSeconds: 12}

	scan.ScanStatus = model.ScanStatusSuccess
	assert.Contains(t, completionText(scan), "completed successfully")
	assert.Contains(t, completionText(scan), "12s")

	scan.ScanStatus = model.ScanStatusFailed
	assert.Contains(t, completionText(scan), "failed")
	assert.Contains(t, completionText(scan), "trivy")

	scan.ScanStatus = model.ScanStatusTimeout
	assert.Contains(t, completionText(scan), model.ScanStatusTimeout)
}

func TestEmailSubject(t *testing.T) {
	scan := &model.Scan{
		ImageName:            "nginx",
		ImageTag:             "1.25",
		ScanStatus:           model.ScanStatusSuccess,
		TotalVulnerabilities: 3,
		HighCount:            3,
	}

	subject := emailSubject("", scan)
	assert.Contains(t, subject, "[DockSafe]")
	assert.Contains(t, subject, "HIGH")
	assert.Contains(t, subject, "nginx:1.25")

	subject = emailSubject("[SecOps]", scan)
	assert.Contains(t, subject, "[SecOps]")

	clean := &model.Scan{ImageName: "nginx", ImageTag: "1.25", ScanStatus: model.ScanStatusSuccess}
	subject = emailSubject("", clean)
	assert.Contains(t, subject, "Scan SUCCESS")
}

func TestAlertEmailBodyIsHTML(t *testing.T) {
	scan := &model.Scan{ImageName: "nginx", ImageTag: "1.25", CriticalCount: 1, TotalVulnerabilities: 1}
	body := alertEmailBody(scan)
	assert.Contains(t, body, "<html>")
	assert.Contains(t, body, "nginx:1.25")
	assert.Contains(t, body, "CRITICAL")
}

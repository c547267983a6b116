// Package notify implements the multi-channel notification dispatcher.
package notify

import (
	"fmt"
	"time"

	"github.com/docksafe/docksafe-backend/model"
)

// severityMarker maps a scan's highest populated severity onto the shared
// urgency marker used by every channel
func severityMarker(scan *model.Scan) (emoji, urgency string) {
	switch {
	case scan.CriticalCount > 0:
		return "🚨", "CRITICAL"
	case scan.HighCount > 0:
		return "⚠️", "HIGH"
	case scan.MediumCount > 0:
		return "⚡", "MEDIUM"
	default:
		return "✅", "LOW"
	}
}

// alertText builds the plain-text vulnerability alert shared by chat
// fallback text and email bodies
func alertText(scan *model.Scan) string {
	emoji, urgency := severityMarker(scan)
	return fmt.Sprintf(
		"%s DockSafe Vulnerability Alert - %s\n"+
			"Image: %s:%s\n"+
			"Total Vulnerabilities: %d\n"+
			"Critical: %d, High: %d, Medium: %d, Low: %d",
		emoji, urgency,
		scan.ImageName, scan.ImageTag,
		scan.TotalVulnerabilities,
		scan.CriticalCount, scan.HighCount, scan.MediumCount, scan.LowCount,
	)
}

// completionText builds the scan completion notice, branching on status
func completionText(scan *model.Scan) string {
	switch scan.ScanStatus {
	case model.ScanStatusSuccess:
		return fmt.Sprintf("✅ Scan completed successfully for %s:%s (duration %ds)",
			scan.ImageName, scan.ImageTag, scan.ScanDurationSeconds)
	case model.ScanStatusFailed:
		return fmt.Sprintf("❌ Scan failed for %s:%s (scanner %s)",
			scan.ImageName, scan.ImageTag, scan.ScannerType)
	default:
		return fmt.Sprintf("ℹ️ Scan %s for %s:%s",
			scan.ScanStatus, scan.ImageName, scan.ImageTag)
	}
}

// testText is the manual configuration-check message
func testText() string {
	return fmt.Sprintf(
		"🛡️ DockSafe Test Message - notification channel is working!\nSent at %s UTC",
		time.Now().UTC().Format("2006-01-02 15:04:05"))
}

// alertEmailBody renders the vulnerability alert as HTML for email delivery
func alertEmailBody(scan *model.Scan) string {
	emoji, urgency := severityMarker(scan)
	return fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>%s DockSafe Vulnerability Alert - %s</h2>
	<p>Security vulnerabilities have been detected in your container image.</p>
	<table border="0" cellpadding="6">
		<tr><td><strong>Image:</strong></td><td>%s:%s</td></tr>
		<tr><td><strong>Total:</strong></td><td>%d</td></tr>
		<tr><td><strong>🔴 Critical:</strong></td><td>%d</td></tr>
		<tr><td><strong>🟠 High:</strong></td><td>%d</td></tr>
		<tr><td><strong>🟡 Medium:</strong></td><td>%d</td></tr>
		<tr><td><strong>🟢 Low:</strong></td><td>%d</td></tr>
	</table>
	<hr>
	<p style="color: #666; font-size: 12px;">DockSafe Security Scanner</p>
</body>
</html>`,
		emoji, urgency,
		scan.ImageName, scan.ImageTag,
		scan.TotalVulnerabilities,
		scan.CriticalCount, scan.HighCount, scan.MediumCount, scan.LowCount)
}

// completionEmailBody renders the completion notice as HTML
func completionEmailBody(scan *model.Scan) string {
	return fmt.Sprintf(`
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
	<h2>%s</h2>
	<p>Scanner: %s<br>Duration: %ds<br>Status: %s</p>
	<hr>
	<p style="color: #666; font-size: 12px;">DockSafe Security Scanner</p>
</body>
</html>`,
		completionText(scan), scan.ScannerType, scan.ScanDurationSeconds, scan.ScanStatus)
}

// emailSubject builds the subject line from the per-config template prefix
func emailSubject(template string, scan *model.Scan) string {
	if template == "" {
		template = "[DockSafe]"
	}
	if scan.TotalVulnerabilities > 0 {
		emoji, urgency := severityMarker(scan)
		return fmt.Sprintf("%s %s %s Vulnerabilities Found in %s:%s",
			template, emoji, urgency, scan.ImageName, scan.ImageTag)
	}
	return fmt.Sprintf("%s Scan %s: %s:%s",
		template, scan.ScanStatus, scan.ImageName, scan.ImageTag)
}

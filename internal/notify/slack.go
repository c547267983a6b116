// Package notify - chat webhook delivery
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docksafe/docksafe-backend/model"
)

// ChatSender posts messages to a Slack-compatible incoming webhook
type ChatSender struct {
	WebhookURL string
	Channel    string
	client     *http.Client
}

// NewChatSender validates the webhook URL and builds a sender, nil when the
// URL is unusable
func NewChatSender(webhookURL, channel string) *ChatSender {
	if !strings.HasPrefix(webhookURL, "https://") {
		logger.Sugar().Errorf("Invalid chat webhook URL: %s", webhookURL)
		return nil
	}
	return &ChatSender{
		WebhookURL: webhookURL,
		Channel:    channel,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type chatPayload struct {
	Text    string      `json:"text"`
	Channel string      `json:"channel,omitempty"`
	Blocks  []chatBlock `json:"blocks,omitempty"`
}

type chatBlock struct {
	Type   string     `json:"type"`
	Text   *chatText  `json:"text,omitempty"`
	Fields []chatText `json:"fields,omitempty"`
}

type chatText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send posts a payload to the webhook, treating any non-200 response as a
// delivery failure
func (c *ChatSender) Send(ctx context.Context, text string, blocks []chatBlock) error {
	payload := chatPayload{Text: text, Channel: c.Channel, Blocks: blocks}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// SendVulnerabilityAlert posts a rich-formatted alert for a scan with
// post-filter findings
func (c *ChatSender) SendVulnerabilityAlert(ctx context.Context, scan *model.Scan) error {
	emoji, urgency := severityMarker(scan)

	blocks := []chatBlock{
		{
			Type: "header",
			Text: &chatText{Type: "plain_text", Text: fmt.Sprintf("%s DockSafe Vulnerability Alert - %s", emoji, urgency)},
		},
		{
			Type: "section",
			Fields: []chatText{
				{Type: "mrkdwn", Text: fmt.Sprintf("*Image:*\n%s:%s", scan.ImageName, scan.ImageTag)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Total Vulnerabilities:*\n%d", scan.TotalVulnerabilities)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Severity Breakdown:*\n🔴 Critical: %d\n🟠 High: %d\n🟡 Medium: %d\n🟢 Low: %d",
					scan.CriticalCount, scan.HighCount, scan.MediumCount, scan.LowCount)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Scanner:*\n%s %s", scan.ScannerType, scan.ScannerVersion)},
			},
		},
	}

	fallback := fmt.Sprintf("%s DockSafe Alert: %d vulnerabilities found in %s:%s",
		emoji, scan.TotalVulnerabilities, scan.ImageName, scan.ImageTag)
	return c.Send(ctx, fallback, blocks)
}

// SendScanCompletion posts the completion notice
func (c *ChatSender) SendScanCompletion(ctx context.Context, scan *model.Scan) error {
	text := completionText(scan)
	blocks := []chatBlock{
		{
			Type: "section",
			Text: &chatText{Type: "mrkdwn", Text: fmt.Sprintf("*%s*", text)},
		},
	}
	return c.Send(ctx, text, blocks)
}

// SendTestMessage posts the configuration-check message
func (c *ChatSender) SendTestMessage(ctx context.Context) error {
	text := testText()
	blocks := []chatBlock{
		{
			Type: "section",
			Text: &chatText{Type: "mrkdwn", Text: text},
		},
	}
	return c.Send(ctx, text, blocks)
}

// Package model - notification channel configuration and delivery history
package model

import "time"

// Notification channel kinds
const (
	ChannelKindChat  = "chat"
	ChannelKindEmail = "email"
)

// Notification delivery statuses
const (
	NotificationStatusSent   = "SENT"
	NotificationStatusFailed = "FAILED"
)

// NotificationConfig is a group-scoped delivery target. The dispatcher takes
// a read-only snapshot of active configs once per dispatch cycle.
type NotificationConfig struct {
	Key              string    `json:"_key,omitempty"`
	Name             string    `json:"name"`
	Kind             string    `json:"kind"`
	GroupID          string    `json:"group_id"`
	WebhookURL       string    `json:"webhook_url,omitempty"`
	Channel          string    `json:"channel,omitempty"`
	EmailRecipients  []string  `json:"email_recipients,omitempty"`
	SubjectTemplate  string    `json:"subject_template,omitempty"`
	IsActive         bool      `json:"is_active"`
	NotifyCritical   bool      `json:"notify_critical"`
	NotifyHigh       bool      `json:"notify_high"`
	NotifyMedium     bool      `json:"notify_medium"`
	NotifyLow        bool      `json:"notify_low"`
	NotifyScanFailed bool      `json:"notify_scan_failed"`
	ObjType          string    `json:"objtype"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewNotificationConfig creates an active config with the default
// notify toggles: critical/high and scan failures on, medium/low off.
func NewNotificationConfig(name, kind, groupID string) *NotificationConfig {
	now := time.Now().UTC()
	return &NotificationConfig{
		Name:             name,
		Kind:             kind,
		GroupID:          groupID,
		IsActive:         true,
		NotifyCritical:   true,
		NotifyHigh:       true,
		NotifyScanFailed: true,
		ObjType:          "NotificationConfig",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NotificationConfigUpdate enumerates the mutable fields of a channel config.
type NotificationConfigUpdate struct {
	Name             *string   `json:"name,omitempty"`
	WebhookURL       *string   `json:"webhook_url,omitempty"`
	Channel          *string   `json:"channel,omitempty"`
	EmailRecipients  *[]string `json:"email_recipients,omitempty"`
	SubjectTemplate  *string   `json:"subject_template,omitempty"`
	IsActive         *bool     `json:"is_active,omitempty"`
	NotifyCritical   *bool     `json:"notify_critical,omitempty"`
	NotifyHigh       *bool     `json:"notify_high,omitempty"`
	NotifyMedium     *bool     `json:"notify_medium,omitempty"`
	NotifyLow        *bool     `json:"notify_low,omitempty"`
	NotifyScanFailed *bool     `json:"notify_scan_failed,omitempty"`
}

// NotificationHistory records one delivery attempt to one channel.
type NotificationHistory struct {
	Key          string    `json:"_key,omitempty"`
	ScanKey      string    `json:"scan_key,omitempty"`
	GroupID      string    `json:"group_id"`
	ChannelKind  string    `json:"channel_kind"`
	Recipient    string    `json:"recipient"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	SentAt       time.Time `json:"sent_at"`
	ObjType      string    `json:"objtype"`
}

// ChannelResult is the outcome of one channel delivery within a dispatch.
type ChannelResult struct {
	ChannelName string `json:"channel_name"`
	Success     bool   `json:"success"`
	Message     string `json:"message"`
}

// DispatchReport aggregates per-channel outcomes by channel kind. Every
// configured channel yields exactly one entry per dispatch call.
type DispatchReport struct {
	Chat  []ChannelResult `json:"chat"`
	Email []ChannelResult `json:"email"`
}

// Package notify - dispatch manager
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/docksafe/docksafe-backend/database"
	"github.com/docksafe/docksafe-backend/model"
)

var logger = database.InitLogger()

// NotifyStore is the persistence surface the dispatcher depends on
type NotifyStore interface {
	NotificationConfigsByGroup(ctx context.Context, groupID string, activeOnly bool) ([]model.NotificationConfig, error)
	InsertNotificationHistory(ctx context.Context, hist *model.NotificationHistory) error
}

// Manager fans scan events out to every active channel of a group. Each
// channel is attempted independently; one channel's failure never affects
// another, and every configured channel yields exactly one outcome entry
// per dispatch. Channel deliveries run in parallel and are joined before
// the report is returned.
type Manager struct {
	Store NotifyStore
	SMTP  SMTPConfig
}

// NewManager builds a dispatcher over a store with SMTP settings from the
// environment
func NewManager(store NotifyStore) *Manager {
	return &Manager{
		Store: store,
		SMTP:  LoadSMTPConfig(),
	}
}

// DispatchScanComplete sends the notifications warranted by a finished scan:
// a vulnerability alert when post-filter findings exist and the channel's
// severity toggles match, plus a completion notice. Failures are contained
// per channel and recorded in the report and history; nothing propagates.
func (m *Manager) DispatchScanComplete(ctx context.Context, scan *model.Scan) model.DispatchReport {
	configs, err := m.Store.NotificationConfigsByGroup(ctx, scan.GroupID, true)
	if err != nil {
		logger.Sugar().Errorf("Failed to load notification configs for group %s: %v", scan.GroupID, err)
		return model.DispatchReport{Chat: []model.ChannelResult{}, Email: []model.ChannelResult{}}
	}

	return m.fanOut(ctx, configs, func(ctx context.Context, cfg *model.NotificationConfig) (string, error) {
		return m.deliverScanEvent(ctx, cfg, scan)
	}, scan.Key, scan.GroupID)
}

// SendTestMessage exercises every active channel of a group (or only those
// of one kind) with a configuration-check message, bypassing the scan
// pipeline but reusing the same per-channel containment.
func (m *Manager) SendTestMessage(ctx context.Context, groupID, kind string) model.DispatchReport {
	configs, err := m.Store.NotificationConfigsByGroup(ctx, groupID, true)
	if err != nil {
		logger.Sugar().Errorf("Failed to load notification configs for group %s: %v", groupID, err)
		return model.DispatchReport{Chat: []model.ChannelResult{}, Email: []model.ChannelResult{}}
	}

	if kind != "" {
		filtered := []model.NotificationConfig{}
		for _, cfg := range configs {
			if cfg.Kind == kind {
				filtered = append(filtered, cfg)
			}
		}
		configs = filtered
	}

	return m.fanOut(ctx, configs, func(ctx context.Context, cfg *model.NotificationConfig) (string, error) {
		return m.deliverTest(ctx, cfg)
	}, "", groupID)
}

type deliverFunc func(ctx context.Context, cfg *model.NotificationConfig) (string, error)

// fanOut runs one delivery per config in parallel and joins the results
// into a per-kind report
func (m *Manager) fanOut(ctx context.Context, configs []model.NotificationConfig, deliver deliverFunc, scanKey, groupID string) model.DispatchReport {
	report := model.DispatchReport{
		Chat:  []model.ChannelResult{},
		Email: []model.ChannelResult{},
	}
	if len(configs) == 0 {
		return report
	}

	type outcome struct {
		kind   string
		result model.ChannelResult
	}

	var wg sync.WaitGroup
	outcomes := make([]outcome, len(configs))

	for i := range configs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg := &configs[i]

			result := model.ChannelResult{ChannelName: cfg.Name}
			defer func() {
				if r := recover(); r != nil {
					result.Success = false
					result.Message = fmt.Sprintf("Error: channel delivery panicked: %v", r)
					outcomes[i] = outcome{kind: cfg.Kind, result: result}
				}
			}()

			message, err := deliver(ctx, cfg)
			if err != nil {
				result.Success = false
				result.Message = "Error: " + err.Error()
				logger.Sugar().Errorf("Notification delivery failed for channel %s: %v", cfg.Name, err)
			} else {
				result.Success = true
				result.Message = message
			}
			outcomes[i] = outcome{kind: cfg.Kind, result: result}

			m.recordHistory(ctx, cfg, scanKey, groupID, result)
		}(i)
	}
	wg.Wait()

	for _, o := range outcomes {
		if o.kind == model.ChannelKindEmail {
			report.Email = append(report.Email, o.result)
		} else {
			report.Chat = append(report.Chat, o.result)
		}
	}
	return report
}

// deliverScanEvent sends the messages one channel config wants for a scan
func (m *Manager) deliverScanEvent(ctx context.Context, cfg *model.NotificationConfig, scan *model.Scan) (string, error) {
	if scan.ScanStatus == model.ScanStatusFailed && !cfg.NotifyScanFailed {
		return "Skipped by notification toggles", nil
	}

	sendAlert := scan.TotalVulnerabilities > 0 && severityToggleMatches(cfg, scan)

	switch cfg.Kind {
	case model.ChannelKindEmail:
		sender := NewEmailSender(m.SMTP, cfg.EmailRecipients, cfg.SubjectTemplate)
		if sender == nil {
			return "", fmt.Errorf("email channel %s misconfigured", cfg.Name)
		}
		if sendAlert {
			if err := sender.SendVulnerabilityAlert(scan); err != nil {
				return "", err
			}
			return "Alert sent successfully", nil
		}
		if err := sender.SendScanCompletion(scan); err != nil {
			return "", err
		}
		return "Notification sent successfully", nil

	default: // chat webhook
		sender := NewChatSender(cfg.WebhookURL, cfg.Channel)
		if sender == nil {
			return "", fmt.Errorf("chat channel %s misconfigured", cfg.Name)
		}
		if sendAlert {
			if err := sender.SendVulnerabilityAlert(ctx, scan); err != nil {
				return "", err
			}
			return "Alert sent successfully", nil
		}
		if err := sender.SendScanCompletion(ctx, scan); err != nil {
			return "", err
		}
		return "Notification sent successfully", nil
	}
}

// deliverTest sends the configuration-check message on one channel
func (m *Manager) deliverTest(ctx context.Context, cfg *model.NotificationConfig) (string, error) {
	switch cfg.Kind {
	case model.ChannelKindEmail:
		sender := NewEmailSender(m.SMTP, cfg.EmailRecipients, cfg.SubjectTemplate)
		if sender == nil {
			return "", fmt.Errorf("email channel %s misconfigured", cfg.Name)
		}
		if err := sender.SendTestMessage(); err != nil {
			return "", err
		}
	default:
		sender := NewChatSender(cfg.WebhookURL, cfg.Channel)
		if sender == nil {
			return "", fmt.Errorf("chat channel %s misconfigured", cfg.Name)
		}
		if err := sender.SendTestMessage(ctx); err != nil {
			return "", err
		}
	}
	return "Test message sent successfully", nil
}

// severityToggleMatches reports whether any populated severity is one the
// config opted into
func severityToggleMatches(cfg *model.NotificationConfig, scan *model.Scan) bool {
	if cfg.NotifyCritical && scan.CriticalCount > 0 {
		return true
	}
	if cfg.NotifyHigh && scan.HighCount > 0 {
		return true
	}
	if cfg.NotifyMedium && scan.MediumCount > 0 {
		return true
	}
	if cfg.NotifyLow && scan.LowCount > 0 {
		return true
	}
	return false
}

// recordHistory stores one delivery attempt, best-effort
func (m *Manager) recordHistory(ctx context.Context, cfg *model.NotificationConfig, scanKey, groupID string, result model.ChannelResult) {
	status := model.NotificationStatusSent
	errorMessage := ""
	if !result.Success {
		status = model.NotificationStatusFailed
		errorMessage = result.Message
	}

	recipient := cfg.WebhookURL
	if cfg.Kind == model.ChannelKindEmail {
		recipient = fmt.Sprintf("%v", cfg.EmailRecipients)
	}

	hist := &model.NotificationHistory{
		ScanKey:      scanKey,
		GroupID:      groupID,
		ChannelKind:  cfg.Kind,
		Recipient:    recipient,
		Message:      result.Message,
		Status:       status,
		ErrorMessage: errorMessage,
		SentAt:       time.Now().UTC(),
		ObjType:      "NotificationHistory",
	}
	if err := m.Store.InsertNotificationHistory(ctx, hist); err != nil {
		logger.Sugar().Errorf("Failed to record notification history for channel %s: %v", cfg.Name, err)
	}
}

// Package notify - SMTP email delivery
package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/docksafe/docksafe-backend/model"
	"github.com/docksafe/docksafe-backend/util"
)

// SMTPConfig holds the shared mail relay settings, loaded from environment
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
}

// LoadSMTPConfig reads the mail relay settings from environment variables
func LoadSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     util.GetEnvDefault("SMTP_HOST", "smtp.gmail.com"),
		Port:     util.GetEnvDefault("SMTP_PORT", "587"),
		Username: util.GetEnvDefault("SMTP_USERNAME", ""),
		Password: util.GetEnvDefault("SMTP_PASSWORD", ""),
		From:     util.GetEnvDefault("SMTP_FROM_EMAIL", "noreply@docksafe.local"),
		FromName: util.GetEnvDefault("SMTP_FROM_NAME", "DockSafe Scanner"),
	}
}

// Configured reports whether the relay has credentials to send with
func (c SMTPConfig) Configured() bool {
	return c.Username != "" && c.Password != ""
}

// EmailSender delivers HTML mail for one channel config's recipient list
type EmailSender struct {
	SMTP            SMTPConfig
	Recipients      []string
	SubjectTemplate string
}

// NewEmailSender builds a sender, nil when no recipients are configured
func NewEmailSender(smtpCfg SMTPConfig, recipients []string, subjectTemplate string) *EmailSender {
	if len(recipients) == 0 {
		logger.Sugar().Error("Email channel has no recipients configured")
		return nil
	}
	return &EmailSender{
		SMTP:            smtpCfg,
		Recipients:      recipients,
		SubjectTemplate: subjectTemplate,
	}
}

// Send delivers one HTML message to the configured recipients
func (e *EmailSender) Send(subject, htmlBody string) error {
	if !e.SMTP.Configured() {
		return fmt.Errorf("smtp relay not configured (SMTP_USERNAME/SMTP_PASSWORD unset)")
	}

	auth := smtp.PlainAuth("", e.SMTP.Username, e.SMTP.Password, e.SMTP.Host)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		e.SMTP.FromName, e.SMTP.From, strings.Join(e.Recipients, ", "), subject, htmlBody,
	))

	addr := e.SMTP.Host + ":" + e.SMTP.Port
	return smtp.SendMail(addr, auth, e.SMTP.From, e.Recipients, msg)
}

// SendVulnerabilityAlert mails the alert for a scan with findings
func (e *EmailSender) SendVulnerabilityAlert(scan *model.Scan) error {
	return e.Send(emailSubject(e.SubjectTemplate, scan), alertEmailBody(scan))
}

// SendScanCompletion mails the completion notice
func (e *EmailSender) SendScanCompletion(scan *model.Scan) error {
	return e.Send(emailSubject(e.SubjectTemplate, scan), completionEmailBody(scan))
}

// SendTestMessage mails the configuration-check message
func (e *EmailSender) SendTestMessage() error {
	subject := e.SubjectTemplate
	if subject == "" {
		subject = "[DockSafe]"
	}
	body := fmt.Sprintf("<html><body><p>%s</p></body></html>",
		strings.ReplaceAll(testText(), "\n", "<br>"))
	return e.Send(subject+" Test Message", body)
}

// Package database - notification config and history persistence
package database

import (
	"context"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/docksafe/docksafe-backend/model"
)

// CreateNotificationConfig persists a channel config and returns its key
func (s *Store) CreateNotificationConfig(ctx context.Context, cfg *model.NotificationConfig) (string, error) {
	meta, err := s.DB.Collections["notification_config"].CreateDocument(ctx, cfg)
	if err != nil {
		return "", err
	}
	cfg.Key = meta.Key
	return meta.Key, nil
}

// GetNotificationConfig fetches a channel config by key, nil when not found
func (s *Store) GetNotificationConfig(ctx context.Context, key string) (*model.NotificationConfig, error) {
	query := `
		FOR nc IN notification_config
			FILTER nc._key == @key
			LIMIT 1
			RETURN nc
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var cfg model.NotificationConfig
		if _, err := cursor.ReadDocument(ctx, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return nil, nil
}

// UpdateNotificationConfig applies a typed partial update to a channel config
func (s *Store) UpdateNotificationConfig(ctx context.Context, key string, upd model.NotificationConfigUpdate) error {
	patch := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if upd.Name != nil {
		patch["name"] = *upd.Name
	}
	if upd.WebhookURL != nil {
		patch["webhook_url"] = *upd.WebhookURL
	}
	if upd.Channel != nil {
		patch["channel"] = *upd.Channel
	}
	if upd.EmailRecipients != nil {
		patch["email_recipients"] = *upd.EmailRecipients
	}
	if upd.SubjectTemplate != nil {
		patch["subject_template"] = *upd.SubjectTemplate
	}
	if upd.IsActive != nil {
		patch["is_active"] = *upd.IsActive
	}
	if upd.NotifyCritical != nil {
		patch["notify_critical"] = *upd.NotifyCritical
	}
	if upd.NotifyHigh != nil {
		patch["notify_high"] = *upd.NotifyHigh
	}
	if upd.NotifyMedium != nil {
		patch["notify_medium"] = *upd.NotifyMedium
	}
	if upd.NotifyLow != nil {
		patch["notify_low"] = *upd.NotifyLow
	}
	if upd.NotifyScanFailed != nil {
		patch["notify_scan_failed"] = *upd.NotifyScanFailed
	}

	query := `UPDATE @key WITH @patch IN notification_config`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"key":   key,
			"patch": patch,
		},
	})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// DeleteNotificationConfig removes a channel config
func (s *Store) DeleteNotificationConfig(ctx context.Context, key string) error {
	query := `REMOVE @key IN notification_config`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"key": key},
	})
	if err != nil {
		return err
	}
	return cursor.Close()
}

// NotificationConfigsByGroup returns a group's channel configs, optionally
// active ones only
func (s *Store) NotificationConfigsByGroup(ctx context.Context, groupID string, activeOnly bool) ([]model.NotificationConfig, error) {
	query := `
		FOR nc IN notification_config
			FILTER nc.group_id == @group_id
			FILTER @active_only == false OR nc.is_active == true
			SORT nc.name ASC
			RETURN nc
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"group_id":    groupID,
			"active_only": activeOnly,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	configs := []model.NotificationConfig{}
	for cursor.HasMore() {
		var cfg model.NotificationConfig
		if _, err := cursor.ReadDocument(ctx, &cfg); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

// InsertNotificationHistory records one delivery attempt
func (s *Store) InsertNotificationHistory(ctx context.Context, hist *model.NotificationHistory) error {
	meta, err := s.DB.Collections["notification_history"].CreateDocument(ctx, hist)
	if err != nil {
		return err
	}
	hist.Key = meta.Key
	return nil
}

// NotificationHistoryByGroup returns a group's delivery attempts, newest first
func (s *Store) NotificationHistoryByGroup(ctx context.Context, groupID string, limit int) ([]model.NotificationHistory, error) {
	query := `
		FOR h IN notification_history
			FILTER h.group_id == @group_id
			SORT h.sent_at DESC
			LIMIT @limit
			RETURN h
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"group_id": groupID,
			"limit":    limit,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	history := []model.NotificationHistory{}
	for cursor.HasMore() {
		var h model.NotificationHistory
		if _, err := cursor.ReadDocument(ctx, &h); err != nil {
			return nil, err
		}
		history = append(history, h)
	}
	return history, nil
}

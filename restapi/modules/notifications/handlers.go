// Package notifications implements the REST API handlers for notification
// channel configuration, test delivery and delivery history.
package notifications

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/docksafe/docksafe-backend/database"
	"github.com/docksafe/docksafe-backend/internal/notify"
	"github.com/docksafe/docksafe-backend/model"
)

// ConfigRequest is the POST /notifications request body.
type ConfigRequest struct {
	Name            string   `json:"name"`
	Kind            string   `json:"kind"`
	GroupID         string   `json:"group_id"`
	WebhookURL      string   `json:"webhook_url"`
	Channel         string   `json:"channel"`
	EmailRecipients []string `json:"email_recipients"`
	SubjectTemplate string   `json:"subject_template"`
}

// PostConfig creates a notification channel configuration.
func PostConfig(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ConfigRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if req.Name == "" || req.GroupID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "name and group_id are required",
			})
		}

		kind := strings.ToLower(req.Kind)
		switch kind {
		case model.ChannelKindChat:
			if !strings.HasPrefix(req.WebhookURL, "https://") {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"message": "Chat channels require an https webhook_url",
				})
			}
		case model.ChannelKindEmail:
			if len(req.EmailRecipients) == 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"message": "Email channels require at least one recipient",
				})
			}
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "kind must be chat or email",
			})
		}

		cfg := model.NewNotificationConfig(req.Name, kind, req.GroupID)
		cfg.WebhookURL = req.WebhookURL
		cfg.Channel = req.Channel
		cfg.EmailRecipients = req.EmailRecipients
		cfg.SubjectTemplate = req.SubjectTemplate

		key, err := store.CreateNotificationConfig(context.Background(), cfg)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		cfg.Key = key

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"config":  cfg,
		})
	}
}

// GetConfigs lists the notification configs of a group.
func GetConfigs(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groupID := c.Query("group_id")
		if groupID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "group_id is required",
			})
		}

		configs, err := store.NotificationConfigsByGroup(context.Background(), groupID, c.QueryBool("active_only", false))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"configs": configs,
			"count":   len(configs),
		})
	}
}

// GetConfig returns a single notification config by key.
func GetConfig(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg, err := store.GetNotificationConfig(context.Background(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if cfg == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Notification config not found",
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"config":  cfg,
		})
	}
}

// PutConfig updates the mutable fields of a notification config.
func PutConfig(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("id")

		cfg, err := store.GetNotificationConfig(context.Background(), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if cfg == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Notification config not found",
			})
		}

		var upd model.NotificationConfigUpdate
		if err := c.BodyParser(&upd); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if err := store.UpdateNotificationConfig(context.Background(), key, upd); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		updated, err := store.GetNotificationConfig(context.Background(), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"config":  updated,
		})
	}
}

// DeleteConfig removes a notification config.
func DeleteConfig(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("id")

		cfg, err := store.GetNotificationConfig(context.Background(), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if cfg == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Notification config not found",
			})
		}

		if err := store.DeleteNotificationConfig(context.Background(), key); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "Notification config deleted",
		})
	}
}

// PostTest sends a test message through the active channels of a group.
// The kind query narrows the test to chat or email channels.
func PostTest(manager *notify.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groupID := c.Query("group_id")
		if groupID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "group_id is required",
			})
		}

		kind := strings.ToLower(c.Query("kind"))
		if kind != "" && kind != model.ChannelKindChat && kind != model.ChannelKindEmail {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "kind must be chat or email",
			})
		}

		report := manager.SendTestMessage(context.Background(), groupID, kind)

		return c.JSON(fiber.Map{
			"success": true,
			"report":  report,
		})
	}
}

// GetHistory lists the delivery history of a group, newest first.
func GetHistory(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groupID := c.Query("group_id")
		if groupID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "group_id is required",
			})
		}

		history, err := store.NotificationHistoryByGroup(context.Background(), groupID, c.QueryInt("limit", 50))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"history": history,
			"count":   len(history),
		})
	}
}

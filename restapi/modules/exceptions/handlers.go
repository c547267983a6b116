// Package exceptions implements the REST API handlers for CVE exceptions.
package exceptions

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/docksafe/docksafe-backend/database"
	"github.com/docksafe/docksafe-backend/model"
)

// ExceptionRequest is the POST /exceptions request body. A missing or
// empty image_name creates a global exception.
type ExceptionRequest struct {
	CveID      string     `json:"cve_id"`
	ImageName  *string    `json:"image_name"`
	Reason     string     `json:"reason"`
	ApprovedBy string     `json:"approved_by"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// PostException creates a CVE exception.
func PostException(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ExceptionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		req.CveID = strings.TrimSpace(req.CveID)
		if req.CveID == "" || req.Reason == "" || req.ApprovedBy == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "cve_id, reason and approved_by are required",
			})
		}

		// Empty string means global, same as absent
		if req.ImageName != nil && strings.TrimSpace(*req.ImageName) == "" {
			req.ImageName = nil
		}

		exc := model.NewException(req.CveID, req.ImageName, req.Reason, req.ApprovedBy, req.ExpiresAt)
		key, err := store.CreateException(context.Background(), exc)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		exc.Key = key

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success":   true,
			"exception": exc,
		})
	}
}

// GetExceptions lists exceptions, optionally filtered to those applicable
// to one image and/or to active entries only.
func GetExceptions(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		imageName := c.Query("image_name")
		activeOnly := c.QueryBool("active_only", false)

		excs, err := store.ListExceptions(context.Background(), imageName, activeOnly)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"exceptions": excs,
			"count":      len(excs),
		})
	}
}

// GetException returns a single exception by key.
func GetException(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		exc, err := store.GetException(context.Background(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if exc == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Exception not found",
			})
		}

		return c.JSON(fiber.Map{
			"success":   true,
			"exception": exc,
		})
	}
}

// PutException updates the mutable fields of an exception.
func PutException(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("id")

		exc, err := store.GetException(context.Background(), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if exc == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Exception not found",
			})
		}

		var upd model.ExceptionUpdate
		if err := c.BodyParser(&upd); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if err := store.UpdateException(context.Background(), key, upd); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		updated, err := store.GetException(context.Background(), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":   true,
			"exception": updated,
		})
	}
}

// DeleteException removes an exception. Already-scanned results are not
// retroactively changed; the exception simply stops applying to new scans.
func DeleteException(store *database.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("id")

		exc, err := store.GetException(context.Background(), key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if exc == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Exception not found",
			})
		}

		if err := store.DeleteException(context.Background(), key); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "Exception deleted",
		})
	}
}

// Package scans implements the REST API handlers for scan operations.
package scans

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/docksafe/docksafe-backend/internal/scanner"
	"github.com/docksafe/docksafe-backend/internal/services"
	"github.com/docksafe/docksafe-backend/util"
)

// ScanRequest is the POST /scans request body.
type ScanRequest struct {
	ImageName string `json:"image_name"`
	ImageTag  string `json:"image_tag"`
	GroupID   string `json:"group_id"`
	CreatedBy string `json:"created_by"`
}

// PostScan handles POST requests to run a scan. The scan executes
// synchronously; the response carries the finished scan record.
func PostScan(svc *services.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req ScanRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid request body: " + err.Error(),
			})
		}

		if req.GroupID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "group_id is required",
			})
		}
		// An empty tag is resolved by the service: "nginx:1.25" splits,
		// bare names default to latest
		scan, err := svc.ScanImage(context.Background(), req.ImageName, req.ImageTag, req.GroupID, req.CreatedBy)
		if err != nil {
			var vErr *scanner.ValidationError
			if errors.As(err, &vErr) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"success": false,
					"message": vErr.Error(),
				})
			}
			if errors.Is(err, scanner.ErrBackendUnavailable) {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"success": false,
					"message": "Scanner backend is not available",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"scan":    scan,
		})
	}
}

// GetScans lists scan history for a group, optionally narrowed to one image.
func GetScans(svc *services.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groupID := c.Query("group_id")
		if groupID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "group_id is required",
			})
		}

		imageName := c.Query("image_name")
		limit := c.QueryInt("limit", 50)

		history, err := svc.GetScanHistory(context.Background(), imageName, groupID, limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"scans":   history,
			"count":   len(history),
		})
	}
}

// GetScan returns a single scan record by key.
func GetScan(svc *services.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scan, err := svc.GetScan(context.Background(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if scan == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Scan not found",
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"scan":    scan,
		})
	}
}

// GetScanVulnerabilities returns the stored findings for a scan, ordered
// most severe first. The optional severity query narrows to one level.
func GetScanVulnerabilities(svc *services.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scanKey := c.Params("id")

		scan, err := svc.GetScan(context.Background(), scanKey)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if scan == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Scan not found",
			})
		}

		vulns, err := svc.ListFindings(context.Background(), scanKey, c.Query("severity"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":         true,
			"vulnerabilities": vulns,
			"count":           len(vulns),
		})
	}
}

// GetBuildGate evaluates the CI gate for a finished scan against a
// severity threshold (default HIGH).
func GetBuildGate(svc *services.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scan, err := svc.GetScan(context.Background(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}
		if scan == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Scan not found",
			})
		}

		threshold := util.NormalizeSeverity(c.Query("threshold", util.DefaultThreshold))
		shouldFail := svc.ShouldFailBuild(scan, threshold)

		return c.JSON(fiber.Map{
			"success":           true,
			"scan_key":          scan.Key,
			"scan_status":       scan.ScanStatus,
			"threshold":         threshold,
			"should_fail_build": shouldFail,
		})
	}
}

// GetScannerStatus reports the configured backend type, version and
// availability.
func GetScannerStatus(svc *services.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"success": true,
			"scanner": svc.GetScannerInfo(),
		})
	}
}

// PostScannerUpdateDB refreshes the backend vulnerability database. Only
// the trivy backend supports this.
func PostScannerUpdateDB(svc *services.ScanService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trivy, ok := svc.Backend.(*scanner.TrivyScanner)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Database update is only supported for the trivy scanner",
			})
		}

		if err := trivy.UpdateDatabase(context.Background()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Database update failed: " + err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "Vulnerability database updated",
		})
	}
}

// GetStatistics returns aggregate scan metrics for a group over a period.
func GetStatistics(statsSvc *services.StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groupID := c.Query("group_id")
		if groupID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "group_id is required",
			})
		}

		stats, err := statsSvc.GetStatistics(context.Background(), groupID, c.QueryInt("days", 30))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"statistics": stats,
		})
	}
}

// GetChartData returns day-bucketed severity series for trend charts.
func GetChartData(statsSvc *services.StatsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		groupID := c.Query("group_id")
		if groupID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "group_id is required",
			})
		}

		chart, err := statsSvc.GetChartData(context.Background(), groupID, c.QueryInt("days", 7))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"chart":   chart,
		})
	}
}

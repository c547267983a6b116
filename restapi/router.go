// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/docksafe/docksafe-backend/database"
	"github.com/docksafe/docksafe-backend/internal/notify"
	"github.com/docksafe/docksafe-backend/internal/services"
	"github.com/docksafe/docksafe-backend/restapi/modules/exceptions"
	"github.com/docksafe/docksafe-backend/restapi/modules/notifications"
	"github.com/docksafe/docksafe-backend/restapi/modules/scans"
)

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
// CORS is handled globally in internal/api/fiber.go.
func SetupRoutes(app *fiber.App, db database.DBConnection, schema graphql.Schema, scanSvc *services.ScanService, notifier *notify.Manager) {
	store := database.NewStore(db)
	statsSvc := services.NewStatsService(store)

	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route - Mounted within the api group to inherit path prefixes
	api.Post("/graphql", GraphQLHandler(schema))

	// Scan Routes
	scanGroup := api.Group("/scans")
	scanGroup.Post("/", scans.PostScan(scanSvc))
	scanGroup.Get("/", scans.GetScans(scanSvc))
	scanGroup.Get("/:id", scans.GetScan(scanSvc))
	scanGroup.Get("/:id/vulnerabilities", scans.GetScanVulnerabilities(scanSvc))
	scanGroup.Get("/:id/gate", scans.GetBuildGate(scanSvc))

	// Scanner Status & Maintenance
	scannerGroup := api.Group("/scanner")
	scannerGroup.Get("/status", scans.GetScannerStatus(scanSvc))
	scannerGroup.Post("/update-db", scans.PostScannerUpdateDB(scanSvc))

	// Exception Routes
	excGroup := api.Group("/exceptions")
	excGroup.Post("/", exceptions.PostException(store))
	excGroup.Get("/", exceptions.GetExceptions(store))
	excGroup.Get("/:id", exceptions.GetException(store))
	excGroup.Put("/:id", exceptions.PutException(store))
	excGroup.Delete("/:id", exceptions.DeleteException(store))

	// Notification Routes
	notifyGroup := api.Group("/notifications")
	notifyGroup.Post("/", notifications.PostConfig(store))
	notifyGroup.Get("/", notifications.GetConfigs(store))
	notifyGroup.Post("/test", notifications.PostTest(notifier))
	notifyGroup.Get("/history", notifications.GetHistory(store))
	notifyGroup.Get("/:id", notifications.GetConfig(store))
	notifyGroup.Put("/:id", notifications.PutConfig(store))
	notifyGroup.Delete("/:id", notifications.DeleteConfig(store))

	// Statistics Routes
	api.Get("/statistics", scans.GetStatistics(statsSvc))
	api.Get("/statistics/chart", scans.GetChartData(statsSvc))

	log.Println("API routes initialized successfully")
}

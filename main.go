// Package main is the entry point of the DockSafe backend service.
package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/docksafe/docksafe-backend/database"
	scanevents "github.com/docksafe/docksafe-backend/events/modules/scans"
	"github.com/docksafe/docksafe-backend/internal/api"
	kafkaprocessor "github.com/docksafe/docksafe-backend/internal/kafka"
	"github.com/docksafe/docksafe-backend/internal/notify"
	"github.com/docksafe/docksafe-backend/internal/scanner"
	"github.com/docksafe/docksafe-backend/internal/services"
	"github.com/docksafe/docksafe-backend/util"
)

func main() {
	// Initialize database connection
	db := database.InitializeDatabase()
	store := database.NewStore(db)

	// Scanner backend from config file and environment
	cfg, err := scanner.LoadConfig(os.Getenv("SCANNER_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load scanner config: %v", err)
	}
	backend, err := scanner.NewBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to create scanner backend: %v", err)
	}

	notifier := notify.NewManager(store)

	scanSvc := services.NewScanService(store, backend)
	scanSvc.Notifier = notifier
	scanSvc.Threshold = util.NormalizeSeverity(cfg.SeverityThreshold)

	ctx := context.Background()

	// Kafka is optional: producer and consumer start only when brokers are set
	if brokersEnv := os.Getenv("KAFKA_BROKERS"); brokersEnv != "" {
		topic := os.Getenv("KAFKA_SCAN_TOPIC")
		if topic == "" {
			topic = "scan-events"
		}
		producer := scanevents.NewScanProducer(strings.Split(brokersEnv, ","), topic)
		defer producer.Close()
		scanSvc.Events = producer

		if err := kafkaprocessor.RunEventProcessor(ctx, scanSvc); err != nil {
			log.Printf("WARNING: Kafka event processor disabled: %v", err)
		}
	}

	// Create Fiber app with REST and GraphQL routes
	app := api.NewFiberApp(db, scanSvc, notifier)

	// Get port from environment or default to 3000
	port := os.Getenv("MS_PORT")
	if port == "" {
		port = "3000"
	}

	// Start server
	log.Printf("Starting server on port %s", port)
	log.Printf("GraphQL endpoint available at /api/v1/graphql")
	log.Printf("Scanner backend: %s", backend.Type())
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

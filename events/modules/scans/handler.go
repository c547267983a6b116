// Package scans handles Kafka event processing for scan lifecycle events.
package scans

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/docksafe/docksafe-backend/model"
)

// ScanRunner defines the interface for executing scan requests.
type ScanRunner interface {
	ScanImage(ctx context.Context, imageName, imageTag, groupID, userID string) (*model.Scan, error)
}

// HandleScanRequested processes scan request events from Kafka.
func HandleScanRequested(ctx context.Context, msg []byte, runner ScanRunner) error {
	var event ScanRequestedEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal ScanRequestedEvent: %w", err)
	}

	if event.EventType != "" && event.EventType != EventTypeScanRequested {
		return nil
	}
	if event.ImageName == "" || event.GroupID == "" {
		return fmt.Errorf("invalid event: missing required fields")
	}
	if event.ImageTag == "" {
		event.ImageTag = "latest"
	}

	log.Printf("Processing scan request for %s:%s (group=%s)", event.ImageName, event.ImageTag, event.GroupID)

	scan, err := runner.ScanImage(ctx, event.ImageName, event.ImageTag, event.GroupID, event.RequestedBy)
	if err != nil {
		return fmt.Errorf("scan execution failed: %w", err)
	}

	log.Printf("Successfully processed scan %s for %s:%s - status %s",
		scan.Key, event.ImageName, event.ImageTag, scan.ScanStatus)
	return nil
}

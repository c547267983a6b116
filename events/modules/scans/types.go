// Package scans defines types for Kafka event processing of scan lifecycle events.
package scans

import (
	"time"

	"github.com/docksafe/docksafe-backend/model"
)

// Event type names carried in the envelope
const (
	EventTypeScanRequested = "scan.requested"
	EventTypeScanCompleted = "scan.completed"
)

// ScanRequestedEvent asks the worker to run a scan. Published by external
// callers (CI systems) onto the scan topic.
type ScanRequestedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	ImageName   string `json:"image_name"`
	ImageTag    string `json:"image_tag"`
	GroupID     string `json:"group_id"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// ScanCompletedEvent announces a finished scan with its final record state.
type ScanCompletedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	Scan model.Scan `json:"scan"`
}

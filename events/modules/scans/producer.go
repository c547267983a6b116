// Package scans handles Kafka event production for scan lifecycle events.
package scans

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/docksafe/docksafe-backend/model"
)

// ScanProducer handles sending scan lifecycle events to Kafka
type ScanProducer struct {
	Writer *kafka.Writer
}

// NewScanProducer initializes a new Kafka writer for scan events
func NewScanProducer(brokers []string, topic string) *ScanProducer {
	return &ScanProducer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishScanCompleted sends the completion event to the Kafka topic
func (p *ScanProducer) PublishScanCompleted(ctx context.Context, scan *model.Scan) error {
	event := ScanCompletedEvent{
		EventType:     EventTypeScanCompleted,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		Scan:          *scan,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(scan.ImageName),
		Value: payload,
	})
}

// PublishScanRequested queues a scan request for the worker
func (p *ScanProducer) PublishScanRequested(ctx context.Context, imageName, imageTag, groupID, requestedBy string) error {
	event := ScanRequestedEvent{
		EventType:     EventTypeScanRequested,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		ImageName:     imageName,
		ImageTag:      imageTag,
		GroupID:       groupID,
		RequestedBy:   requestedBy,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(imageName),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *ScanProducer) Close() error {
	return p.Writer.Close()
}

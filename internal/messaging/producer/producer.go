package producer

import (
	"context"

	"medichain/internal/models"
)

// Producer defines the interface for the audit event feed
type Producer interface {
	// Publish sends a single audit event to the configured topic
	Publish(ctx context.Context, event *models.AuditEvent) error

	// Close closes the producer connection
	Close() error
}

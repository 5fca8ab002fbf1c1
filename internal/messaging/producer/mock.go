package producer

import (
	"context"
	"log"
	"sync"

	"medichain/internal/models"
)

// MockProducer records published audit events in memory for testing.
type MockProducer struct {
	logger *log.Logger

	mu     sync.Mutex
	events []*models.AuditEvent

	// FailNext makes the next Publish call return this error, once.
	FailNext error
}

// NewMockProducer creates an empty MockProducer.
func NewMockProducer(logger *log.Logger) *MockProducer {
	return &MockProducer{logger: logger}
}

// Publish records the event in memory.
func (m *MockProducer) Publish(ctx context.Context, event *models.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext != nil {
		err := m.FailNext
		m.FailNext = nil
		return err
	}
	copied := *event
	m.events = append(m.events, &copied)
	m.logger.Printf("[MockProducer] Recorded audit event: type=%s batch=%s", event.EventType, event.BatchID)
	return nil
}

// Events returns a snapshot of the recorded events.
func (m *MockProducer) Events() []*models.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.AuditEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Close is a no-op for the mock producer.
func (m *MockProducer) Close() error {
	m.logger.Println("[MockProducer] Closing...")
	return nil
}

var _ Producer = (*MockProducer)(nil)

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"college-service/internal/config"
)

const (
	StudentCreated    = "student.created"
	StudentDeleted    = "student.deleted"
	EnrollmentCreated = "enrollment.created"
	EnrollmentDeleted = "enrollment.deleted"
)

// Event is the wire shape published to the broker.
type Event struct {
	Type       string          `json:"type"`
	EntityID   int             `json:"entity_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Key is used for partitioning so every event of one entity lands on the same partition.
func (e Event) Key() string {
	return strconv.Itoa(e.EntityID)
}

func New(eventType string, entityID int, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		Type:       eventType,
		EntityID:   entityID,
		Payload:    raw,
		OccurredAt: time.Now().UTC(),
	}, nil
}

// Publisher sends domain events after the owning transaction committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops events; used when events.driver is "none".
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// NewPublisher builds the publisher selected by cfg.Driver.
func NewPublisher(cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return Noop{}, nil
	case "nats":
		return NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}

// Emit builds and publishes an event, logging instead of failing: the write it describes
// is already committed.
func Emit(ctx context.Context, p Publisher, logger *slog.Logger, eventType string, entityID int, payload interface{}) {
	if p == nil {
		return
	}
	event, err := New(eventType, entityID, payload)
	if err != nil {
		logger.ErrorContext(ctx, "failed to build event", "type", eventType, "error", err)
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "failed to publish event", "type", eventType, "entity_id", entityID, "error", err)
	}
}

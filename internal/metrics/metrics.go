package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metrics groups every instrument the service records.
// All Record* methods are nil-safe so NewMock() can stand in for tests.
type Metrics struct {
	Database *DatabaseMetrics
	Health   *HealthMetrics
	College  *CollegeMetrics
	Events   *EventMetrics
	meter    metric.Meter
}

func New(ctx context.Context, serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	health, err := NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	college, err := NewCollegeMetrics(meter)
	if err != nil {
		return nil, err
	}

	eventMetrics, err := NewEventMetrics(meter)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "metrics collectors initialized successfully")

	return &Metrics{
		Database: database,
		Health:   health,
		College:  college,
		Events:   eventMetrics,
		meter:    meter,
	}, nil
}

// Meter exposes the meter used for callback registration (pool stats, dependency gauges).
func (m *Metrics) Meter() metric.Meter {
	if m == nil || m.meter == nil {
		return otel.Meter("noop")
	}
	return m.meter
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database: &DatabaseMetrics{},
		Health:   &HealthMetrics{dependencies: make(map[string]bool)},
		College:  &CollegeMetrics{},
		Events:   &EventMetrics{},
	}
}

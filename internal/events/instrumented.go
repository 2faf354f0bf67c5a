package events

import (
	"context"
	"time"

	"college-service/internal/metrics"
)

type instrumented struct {
	next    Publisher
	driver  string
	metrics *metrics.Metrics
}

// Instrument records publish count, latency and failures for p. Noop is returned unchanged.
func Instrument(p Publisher, driver string, m *metrics.Metrics) Publisher {
	if _, ok := p.(Noop); ok || m == nil {
		return p
	}
	return &instrumented{next: p, driver: driver, metrics: m}
}

func (p *instrumented) Publish(ctx context.Context, event Event) error {
	start := time.Now()
	err := p.next.Publish(ctx, event)
	p.metrics.Events.RecordPublish(ctx, p.driver, event.Type, time.Since(start), err)
	return err
}

func (p *instrumented) Close() error {
	return p.next.Close()
}

package events

import (
	"context"
	"errors"
	"testing"

	"college-service/internal/config"
	"college-service/internal/logger"
	"college-service/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []Event
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, event Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func TestNewPublisher_Drivers(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{Driver: "none"}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	p, err = NewPublisher(config.EventsConfig{}, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, Noop{}, p)

	_, err = NewPublisher(config.EventsConfig{Driver: "carrier-pigeon"}, logger.Discard())
	assert.Error(t, err)
}

func TestEmit(t *testing.T) {
	rec := &recordingPublisher{}
	Emit(context.Background(), rec, logger.Discard(), StudentCreated, 3, map[string]string{"email": "ann@x.edu"})

	require.Len(t, rec.events, 1)
	assert.Equal(t, StudentCreated, rec.events[0].Type)
	assert.Equal(t, "3", rec.events[0].Key())
	assert.JSONEq(t, `{"email":"ann@x.edu"}`, string(rec.events[0].Payload))
	assert.False(t, rec.events[0].OccurredAt.IsZero())
}

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("broker down")}
	assert.NotPanics(t, func() {
		Emit(context.Background(), rec, logger.Discard(), StudentDeleted, 3, nil)
	})
	assert.NotPanics(t, func() {
		Emit(context.Background(), nil, logger.Discard(), StudentDeleted, 3, nil)
	})
}

func TestInstrument(t *testing.T) {
	assert.IsType(t, Noop{}, Instrument(Noop{}, "none", metrics.NewMock()))

	rec := &recordingPublisher{}
	wrapped := Instrument(rec, "nats", metrics.NewMock())
	require.NotSame(t, rec, wrapped)

	event, err := New(EnrollmentCreated, 9, map[string]int{"id": 9})
	require.NoError(t, err)
	require.NoError(t, wrapped.Publish(context.Background(), event))
	assert.Len(t, rec.events, 1)

	rec.err = errors.New("nats: connection closed")
	assert.ErrorIs(t, wrapped.Publish(context.Background(), event), rec.err)
	assert.NoError(t, wrapped.Close())
}

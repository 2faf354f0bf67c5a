package telemetry_test

import (
	"context"
	"testing"

	"college-service/internal/config"
	"college-service/internal/logger"
	"college-service/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()
	log := logger.Discard()

	tel, err := telemetry.Init(ctx, config.TelemetryConfig{Enabled: false}, "college-service", "test", "test", log)
	require.NoError(t, err)

	assert.Nil(t, tel.MeterProvider)
	require.NotNil(t, tel.Metrics)
	assert.NotPanics(t, func() { tel.Metrics.College.RecordCourseCreated(ctx) })
	assert.NoError(t, tel.Shutdown(ctx, log))
}

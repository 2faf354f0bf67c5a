package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"college-service/internal/health"
	"college-service/internal/logger"
	"college-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func serve(t *testing.T, path string, deps ...health.Dependency) (*httptest.ResponseRecorder, health.HealthResponse) {
	t.Helper()
	router := chi.NewRouter()
	health.NewHandler(metrics.NewMock(), logger.Discard(), deps...).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var resp health.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w, resp
}

func TestHealth(t *testing.T) {
	w, resp := serve(t, "/health", health.Dependency{Name: metrics.DependencyPostgres, Required: true, Check: down})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp.Status)
}

func TestReady(t *testing.T) {
	t.Run("AllUp", func(t *testing.T) {
		w, resp := serve(t, "/ready",
			health.Dependency{Name: metrics.DependencyPostgres, Required: true, Check: ok},
			health.Dependency{Name: metrics.DependencyEvents, Check: ok},
		)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, map[string]string{"postgres": "up", "events": "up"}, resp.Checks)
	})

	t.Run("DatabaseDown", func(t *testing.T) {
		w, resp := serve(t, "/ready", health.Dependency{Name: metrics.DependencyPostgres, Required: true, Check: down})

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "down", resp.Checks["postgres"])
	})

	t.Run("OptionalDown", func(t *testing.T) {
		w, resp := serve(t, "/ready",
			health.Dependency{Name: metrics.DependencyPostgres, Required: true, Check: ok},
			health.Dependency{Name: metrics.DependencyEvents, Check: down},
		)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "down", resp.Checks["events"])
	})
}

package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthMux_Health(t *testing.T) {
	mux := newHealthMux(nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHealthMux_Ready(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return stderrors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]pinger
		wantStatus int
		wantState  string
	}{
		{
			name:       "all dependencies up",
			checks:     map[string]pinger{"zeebe": ok, "postgres": ok},
			wantStatus: http.StatusOK,
			wantState:  "ready",
		},
		{
			name:       "postgres down",
			checks:     map[string]pinger{"zeebe": ok, "postgres": down},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "not_ready",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newHealthMux(tt.checks).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantState, body.Status)
			assert.Len(t, body.Checks, len(tt.checks))
		})
	}
}

func TestHealthMux_Metrics(t *testing.T) {
	rec := httptest.NewRecorder()
	newHealthMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRetryWithBackoff(t *testing.T) {
	log := zaptest.NewLogger(t)

	calls := 0
	err := retryWithBackoff(func() error {
		calls++
		if calls < 3 {
			return stderrors.New("not yet")
		}
		return nil
	}, 5, time.Millisecond, log, "flaky op")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = retryWithBackoff(func() error {
		calls++
		return stderrors.New("still down")
	}, 2, time.Millisecond, log, "dead op")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "dead op failed after 2 attempts")
}

func TestTaskTypesMatchShippedConfig(t *testing.T) {
	assert.ElementsMatch(t, []string{
		"start-comparison", "await-comparison", "direct-comparison",
		"generate-survey-questions", "save-survey-response", "get-survey-response", "build-survey-prompt",
		"search-cars", "save-user",
	}, taskTypes())
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name         string
		checks       map[string]HealthCheck
		expectedCode int
		expected     dto.HealthResponse
	}{
		{
			name:         "no checks",
			checks:       nil,
			expectedCode: http.StatusOK,
			expected:     dto.HealthResponse{Status: "ok", Checks: map[string]string{}},
		},
		{
			name: "database up",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return nil },
			},
			expectedCode: http.StatusOK,
			expected:     dto.HealthResponse{Status: "ok", Checks: map[string]string{"database": "ok"}},
		},
		{
			name: "cache down",
			checks: map[string]HealthCheck{
				"database": func(context.Context) error { return nil },
				"cache":    func(context.Context) error { return errors.New("dial tcp: connection refused") },
			},
			expectedCode: http.StatusServiceUnavailable,
			expected: dto.HealthResponse{Status: "degraded", Checks: map[string]string{
				"database": "ok",
				"cache":    "dial tcp: connection refused",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.checks).Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedCode, w.Code)
			var resp dto.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expected, resp)
		})
	}
}

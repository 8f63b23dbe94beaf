package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name     string
		pingers  map[string]Pinger
		wantCode int
		wantBody string
	}{
		{
			name:     "no dependencies",
			wantCode: http.StatusOK,
			wantBody: `{"ok":true,"data":{"status":"ok","checks":{}}}`,
		},
		{
			name:     "all dependencies up",
			pingers:  map[string]Pinger{"postgres": ok, "redis": ok},
			wantCode: http.StatusOK,
			wantBody: `{"ok":true,"data":{"status":"ok","checks":{"postgres":"ok","redis":"ok"}}}`,
		},
		{
			name:     "redis down",
			pingers:  map[string]Pinger{"postgres": ok, "redis": down},
			wantCode: http.StatusServiceUnavailable,
			wantBody: `{"ok":false,"error":"dependency unavailable","data":{"status":"degraded","checks":{"postgres":"ok","redis":"unavailable"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(logger, tt.pingers).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

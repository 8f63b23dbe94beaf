package access

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	domain "github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/http/middlewarectx"
)

func TestAccessHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("returns status from context", func(t *testing.T) {
		status := domain.Status{
			HasAccess:          true,
			Reason:             domain.ReasonActiveSubscription,
			TrialEndsAt:        "2025-01-01T00:00:00Z",
			TrialDaysLeft:      0,
			SubscriptionStatus: domain.SubscriptionActive,
		}
		req := httptest.NewRequest(http.MethodGet, "/api/tools/access", nil)
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.AccessKey, status))
		rec := httptest.NewRecorder()

		New(logger).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok":true,"data":{
			"hasAccess":true,
			"reason":"active_subscription",
			"trialEndsAt":"2025-01-01T00:00:00Z",
			"trialDaysLeft":0,
			"subscriptionStatus":"active"}}`, rec.Body.String())
	})

	t.Run("missing context is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		New(logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tools/access", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"ok":false,"error":"authentication required"}`, rec.Body.String())
	})
}

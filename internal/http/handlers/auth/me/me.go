// Package me реализует GET /api/auth/me: текущий пользователь и его доступ.
//
// Сессия перевыпускается по сохранённому пользователю, поэтому изменения
// подписки попадают в cookie без повторного входа. Недействительная сессия
// удаляется на клиенте.
package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/http/response"
	"github.com/magabrotheeeer/toolbox/internal/lib/metrics"
	"github.com/magabrotheeeer/toolbox/internal/lib/session"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
	"github.com/magabrotheeeer/toolbox/internal/services/auth"
	"github.com/magabrotheeeer/toolbox/internal/storage"
)

// Data — тело успешного ответа.
type Data struct {
	Email              string                    `json:"email"`
	SubscriptionStatus access.SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndsAt        string                    `json:"trialEndsAt"`
	Access             access.Status             `json:"access"`
}

// Service продлевает сессию.
type Service interface {
	Refresh(ctx context.Context, token string) (*auth.Result, error)
}

// Handler обрабатывает GET /api/auth/me.
type Handler struct {
	log     *slog.Logger
	service Service
	cookie  session.CookieOptions
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, cookie session.CookieOptions) *Handler {
	return &Handler{
		log:     log,
		service: service,
		cookie:  cookie,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	raw := session.FromRequest(r, h.cookie.Name)
	if raw == "" {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("not authenticated"))
		return
	}

	res, err := h.service.Refresh(r.Context(), raw)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) ||
			errors.Is(err, session.ErrSessionExpired) ||
			errors.Is(err, storage.ErrUserNotFound) {
			log.Info("session rejected", sl.Err(err))
			metrics.AuthAttempts.WithLabelValues("refresh", "denied").Inc()
			http.SetCookie(w, session.ExpiredCookie(h.cookie))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid session"))
			return
		}
		log.Error("session refresh failed", sl.Err(err))
		metrics.AuthAttempts.WithLabelValues("refresh", "error").Inc()
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to load session"))
		return
	}

	metrics.AuthAttempts.WithLabelValues("refresh", "success").Inc()
	http.SetCookie(w, session.NewCookie(h.cookie, res.Token))
	render.JSON(w, r, response.OKWithData(Data{
		Email:              res.User.Email,
		SubscriptionStatus: res.User.SubscriptionStatus,
		TrialEndsAt:        res.User.TrialEnd(),
		Access:             res.Access,
	}))
}

// Package middlewarectx содержит HTTP middleware: гейт сессии для защищённых
// путей и ограничение частоты запросов.
//
// SessionGate читает токен из cookie, проверяет его и вычисляет доступ.
// Для API-путей ошибки отдаются JSON со статусом 401 или 402, для страниц
// отдаётся редирект на вход или на страницу тарифов. При успехе claims и
// статус доступа кладутся в контекст запроса.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/http/response"
	"github.com/magabrotheeeer/toolbox/internal/lib/metrics"
	"github.com/magabrotheeeer/toolbox/internal/lib/session"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// ClaimsKey — ключ для session.Claims в контексте
	ClaimsKey Key = "session_claims"
	// AccessKey — ключ для access.Status в контексте
	AccessKey Key = "access_status"
)

// Тексты ошибок для API-клиентов.
const (
	MsgUnauthorized = "authentication required"
	MsgNoAccess     = "trial expired, subscribe to keep using the tools"
)

// SessionVerifier проверяет сессионный токен.
type SessionVerifier interface {
	Verify(raw string) (session.Claims, error)
}

// GateConfig описывает защищённые пути и адреса редиректов.
type GateConfig struct {
	CookieName        string
	ProtectedPrefixes []string
	APIPrefix         string
	LoginPath         string
	ReturnParam       string
	PricingPath       string
}

// SessionGate возвращает middleware, закрывающий ProtectedPrefixes.
// Запросы вне защищённых путей проходят без проверки.
func SessionGate(log *slog.Logger, verifier SessionVerifier, cfg GateConfig, clock func() time.Time) func(http.Handler) http.Handler {
	if clock == nil {
		clock = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if !cfg.protects(path) {
				next.ServeHTTP(w, r)
				return
			}

			const op = "middlewarectx.SessionGate"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("path", path),
			)
			isAPI := strings.HasPrefix(path, cfg.APIPrefix)

			raw := session.FromRequest(r, cfg.CookieName)
			if raw == "" {
				log.Debug("no session cookie")
				metrics.GateDecisions.WithLabelValues(metrics.DecisionUnauthorized).Inc()
				cfg.denyUnauthenticated(w, r, isAPI)
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				decision := metrics.DecisionUnauthorized
				if errors.Is(err, session.ErrSessionExpired) {
					decision = metrics.DecisionExpired
				}
				log.Info("session rejected", slog.String("outcome", session.OutcomeOf(err).String()), sl.Err(err))
				metrics.GateDecisions.WithLabelValues(decision).Inc()
				cfg.denyUnauthenticated(w, r, isAPI)
				return
			}

			status := claims.Access(clock())
			if !status.HasAccess {
				log.Info("access denied", sl.Email(claims.Email), slog.String("reason", string(status.Reason)))
				metrics.GateDecisions.WithLabelValues(metrics.DecisionNoAccess).Inc()
				if isAPI {
					render.Status(r, http.StatusPaymentRequired)
					render.JSON(w, r, response.Error(MsgNoAccess))
					return
				}
				http.Redirect(w, r, cfg.PricingPath, http.StatusFound)
				return
			}

			metrics.GateDecisions.WithLabelValues(metrics.DecisionAllow).Inc()
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, AccessKey, status)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext возвращает claims, положенные гейтом.
func ClaimsFromContext(ctx context.Context) (session.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(session.Claims)
	return c, ok
}

// AccessFromContext возвращает статус доступа, вычисленный гейтом.
func AccessFromContext(ctx context.Context) (access.Status, bool) {
	s, ok := ctx.Value(AccessKey).(access.Status)
	return s, ok
}

// protects сообщает, попадает ли путь под один из защищённых префиксов.
// Префикс "/api/tools" закрывает "/api/tools" и "/api/tools/...", но не "/api/toolsx".
// Префикс "/tools/" закрывает и сам "/tools".
// Путь проверяется и без расширения: middleware.URLFormat маршрутизирует
// "/api/tools.json" как "/api/tools".
func (c GateConfig) protects(path string) bool {
	if c.protectsPath(path) {
		return true
	}
	if route := trimFormat(path); route != path {
		return c.protectsPath(route)
	}
	return false
}

func (c GateConfig) protectsPath(path string) bool {
	for _, prefix := range c.ProtectedPrefixes {
		if prefix == "" {
			continue
		}
		trimmed := strings.TrimSuffix(prefix, "/")
		if path == trimmed || path == prefix {
			return true
		}
		if strings.HasPrefix(path, trimmed+"/") {
			return true
		}
	}
	return false
}

// trimFormat отрезает расширение последнего сегмента так же, как middleware.URLFormat.
func trimFormat(path string) string {
	base := strings.LastIndex(path, "/")
	if base < 0 {
		return path
	}
	if idx := strings.LastIndex(path[base:], "."); idx > 0 {
		return path[:base+idx]
	}
	return path
}

func (c GateConfig) denyUnauthenticated(w http.ResponseWriter, r *http.Request, isAPI bool) {
	if isAPI {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(MsgUnauthorized))
		return
	}
	q := url.Values{}
	q.Set(c.ReturnParam, r.URL.RequestURI())
	http.Redirect(w, r, c.LoginPath+"?"+q.Encode(), http.StatusFound)
}

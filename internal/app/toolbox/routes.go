package toolbox

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	// Регистрация описания API для /docs/*.
	_ "github.com/magabrotheeeer/toolbox/docs"
	"github.com/magabrotheeeer/toolbox/internal/config"
	"github.com/magabrotheeeer/toolbox/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/toolbox/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/toolbox/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/toolbox/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/toolbox/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/toolbox/internal/http/handlers/health"
	toolsaccess "github.com/magabrotheeeer/toolbox/internal/http/handlers/tools/access"
	"github.com/magabrotheeeer/toolbox/internal/http/handlers/tools/catalog"
	"github.com/magabrotheeeer/toolbox/internal/http/middlewarectx"
	"github.com/magabrotheeeer/toolbox/internal/lib/session"
	"github.com/magabrotheeeer/toolbox/internal/services/auth"
	"github.com/magabrotheeeer/toolbox/internal/services/billing"
)

// AuthService — операции учётной записи, которые нужны обработчикам.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*auth.Result, error)
	Login(ctx context.Context, email, password string) (*auth.Result, error)
	Refresh(ctx context.Context, token string) (*auth.Result, error)
}

// BillingService применяет события биллинга.
type BillingService interface {
	Apply(ctx context.Context, e billing.Event) (billing.Result, error)
}

// Deps — собранные зависимости для маршрутов.
type Deps struct {
	Logger   *slog.Logger
	Sessions middlewarectx.SessionVerifier
	Cookie   session.CookieOptions
	Auth     AuthService
	Billing  BillingService
	Pingers  map[string]health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, cfg *config.Config, d *Deps) {
	logger := d.Logger

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.SessionGate(logger, d.Sessions, middlewarectx.GateConfig{
			CookieName:        d.Cookie.Name,
			ProtectedPrefixes: cfg.ProtectedPrefixes,
			APIPrefix:         cfg.APIPrefix,
			LoginPath:         cfg.LoginPath,
			ReturnParam:       cfg.ReturnParam,
			PricingPath:       cfg.PricingPath,
		}, nil),
	)

	limiter := middlewarectx.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
				r.Post("/register", register.New(logger, d.Auth, d.Cookie).ServeHTTP)
				r.Post("/login", login.New(logger, d.Auth, d.Cookie).ServeHTTP)
			})
			r.Get("/me", me.New(logger, d.Auth, d.Cookie).ServeHTTP)
			r.Post("/logout", logout.New(logger, d.Cookie).ServeHTTP)
		})

		// Webhook endpoint (без сессии, проверяется подписью)
		r.Post("/billing/webhook", webhook.New(logger, d.Billing, cfg.WebhookSecret).ServeHTTP)

		// За гейтом: доступ уже проверен и лежит в контексте
		r.Get("/tools", catalog.New(logger).ServeHTTP)
		r.Get("/tools/access", toolsaccess.New(logger).ServeHTTP)
	})

	if cfg.StaticDir != "" {
		r.Handle("/tools/*", http.StripPrefix("/tools/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	r.Handle("/health", health.New(logger, d.Pingers))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

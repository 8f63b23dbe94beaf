// Package health реализует GET /health.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/toolbox/internal/http/response"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler отвечает 200, если все зависимости доступны, иначе 503.
type Handler struct {
	log     *slog.Logger
	pingers map[string]Pinger
}

// New создаёт Handler. pingers может быть пустым.
func New(log *slog.Logger, pingers map[string]Pinger) *Handler {
	return &Handler{
		log:     log,
		pingers: pingers,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	checks := make(map[string]string, len(h.pingers))
	healthy := true
	for name, p := range h.pingers {
		if err := p.PingContext(r.Context()); err != nil {
			h.log.Error("dependency unavailable", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			checks[name] = "unavailable"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{
			OK:    false,
			Error: "dependency unavailable",
			Data:  map[string]any{"status": "degraded", "checks": checks},
		})
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
		"checks": checks,
	}))
}

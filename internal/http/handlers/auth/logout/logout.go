// Package logout реализует POST /api/auth/logout.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/toolbox/internal/http/response"
	"github.com/magabrotheeeer/toolbox/internal/lib/session"
)

// Handler удаляет сессионную cookie. Токен на сервере не отзывается.
type Handler struct {
	log    *slog.Logger
	cookie session.CookieOptions
}

// New создаёт Handler.
func New(log *slog.Logger, cookie session.CookieOptions) *Handler {
	return &Handler{log: log, cookie: cookie}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
	h.log.Debug("logout", slog.String("op", op), slog.String("request_id", middleware.GetReqID(r.Context())))

	http.SetCookie(w, session.ExpiredCookie(h.cookie))
	render.JSON(w, r, response.Response{OK: true})
}

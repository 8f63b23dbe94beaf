// Package access реализует GET /api/tools/access: статус доступа вызывающего.
package access

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/toolbox/internal/http/middlewarectx"
	"github.com/magabrotheeeer/toolbox/internal/http/response"
)

// Handler отдаёт статус, вычисленный гейтом.
type Handler struct {
	log *slog.Logger
}

// New создаёт Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tools.access"

	status, ok := middlewarectx.AccessFromContext(r.Context())
	if !ok {
		h.log.Error("access status missing from context",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(middlewarectx.MsgUnauthorized))
		return
	}
	render.JSON(w, r, response.OKWithData(status))
}

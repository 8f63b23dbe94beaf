// Package catalog реализует GET /api/tools: список инструментов и доступ вызывающего.
// Обработчик стоит за гейтом и берёт статус доступа из контекста.
package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/http/middlewarectx"
	"github.com/magabrotheeeer/toolbox/internal/http/response"
	"github.com/magabrotheeeer/toolbox/internal/tools"
)

// Data — тело ответа.
type Data struct {
	Tools  []tools.Tool  `json:"tools"`
	Access access.Status `json:"access"`
}

// Handler отдаёт каталог.
type Handler struct {
	log *slog.Logger
}

// New создаёт Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.tools.catalog"

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

	render.JSON(w, r, response.OKWithData(Data{
		Tools:  tools.Catalog(),
		Access: status,
	}))
}

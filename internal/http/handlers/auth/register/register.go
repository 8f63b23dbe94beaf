// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Новый пользователь получает пробный период и сразу сессию в cookie.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/http/response"
	"github.com/magabrotheeeer/toolbox/internal/lib/metrics"
	"github.com/magabrotheeeer/toolbox/internal/lib/session"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
	"github.com/magabrotheeeer/toolbox/internal/services/auth"
	"github.com/magabrotheeeer/toolbox/internal/storage"
)

// Request — входные данные для регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Data — тело успешного ответа.
type Data struct {
	Email  string        `json:"email"`
	Access access.Status `json:"access"`
}

// Service описывает регистрацию.
type Service interface {
	Register(ctx context.Context, email, password string) (*auth.Result, error)
}

// Handler обрабатывает POST /api/auth/register.
type Handler struct {
	log      *slog.Logger
	service  Service
	cookie   session.CookieOptions
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, cookie session.CookieOptions) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		metrics.AuthAttempts.WithLabelValues("register", "invalid").Inc()
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	res, err := h.service.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, storage.ErrUserExists) {
		log.Info("email already registered", sl.Email(req.Email))
		metrics.AuthAttempts.WithLabelValues("register", "conflict").Inc()
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("an account with this email already exists"))
		return
	}
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		metrics.AuthAttempts.WithLabelValues("register", "error").Inc()
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to register user"))
		return
	}

	log.Info("user registered", sl.Email(res.User.Email))
	metrics.AuthAttempts.WithLabelValues("register", "success").Inc()
	http.SetCookie(w, session.NewCookie(h.cookie, res.Token))
	render.JSON(w, r, response.OKWithData(Data{
		Email:  res.User.Email,
		Access: res.Access,
	}))
}

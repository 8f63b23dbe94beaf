// Package login реализует HTTP-обработчик входа по email и паролю.
//
// При успехе выпускается сессия в cookie и возвращается статус доступа;
// неизвестный email и неверный пароль неразличимы для клиента.
package login

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
)

// Request — входные данные для авторизации.
type Request struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Data — тело успешного ответа.
type Data struct {
	Email  string        `json:"email"`
	Access access.Status `json:"access"`
}

// Service описывает вход пользователя.
type Service interface {
	Login(ctx context.Context, email, password string) (*auth.Result, error)
}

// Handler обрабатывает POST /api/auth/login.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис аутентификации
	cookie   session.CookieOptions
	validate *validator.Validate // Валидатор для проверки входных данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookie session.CookieOptions) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookie:   cookie,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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
		metrics.AuthAttempts.WithLabelValues("login", "invalid").Inc()
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("email and password are required"))
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		log.Info("invalid credentials", sl.Email(req.Email))
		metrics.AuthAttempts.WithLabelValues("login", "denied").Inc()
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	}
	if err != nil {
		log.Error("login failed", sl.Err(err))
		metrics.AuthAttempts.WithLabelValues("login", "error").Inc()
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to log in"))
		return
	}

	log.Info("login success", sl.Email(res.User.Email))
	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	http.SetCookie(w, session.NewCookie(h.cookie, res.Token))
	render.JSON(w, r, response.OKWithData(Data{
		Email:  res.User.Email,
		Access: res.Access,
	}))
}

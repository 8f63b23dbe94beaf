// Package webhook принимает события платёжного провайдера.
//
// Тело подписывается провайдером: заголовок X-Signature содержит
// base64(HMAC-SHA256(body, secret)). Неподписанные запросы отклоняются
// до разбора JSON.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/toolbox/internal/http/response"
	"github.com/magabrotheeeer/toolbox/internal/lib/metrics"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
	"github.com/magabrotheeeer/toolbox/internal/services/billing"
)

// SignatureHeader — заголовок с подписью тела.
const SignatureHeader = "X-Signature"

const maxBodyBytes = 1 << 20

// Service применяет событие биллинга.
type Service interface {
	Apply(ctx context.Context, e billing.Event) (billing.Result, error)
}

// Handler обрабатывает POST /api/billing/webhook.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	service       Service
	webhookSecret []byte // Секрет для проверки подписи
	validate      *validator.Validate
}

// New создаёт Handler. Пустой секрет делает эндпоинт недоступным (503).
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: []byte(secret),
		validate:      validator.New(),
	}
}

// Sign возвращает подпись тела, которую ожидает обработчик.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	got, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if len(h.webhookSecret) == 0 {
		log.Error("billing webhook secret is not configured")
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("billing webhook is not configured"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		log.Warn("missing webhook signature")
		metrics.BillingEvents.WithLabelValues("unknown", "bad_signature").Inc()
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing signature"))
		return
	}
	if !h.verifySignature(body, signature) {
		log.Warn("invalid webhook signature")
		metrics.BillingEvents.WithLabelValues("unknown", "bad_signature").Inc()
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event billing.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(event); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid event"))
		return
	}

	result, err := h.service.Apply(r.Context(), event)
	if err != nil {
		log.Error("failed to process webhook event", slog.String("event", event.Type), sl.Err(err))
		metrics.BillingEvents.WithLabelValues(event.Type, "error").Inc()
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to process event"))
		return
	}

	metrics.BillingEvents.WithLabelValues(event.Type, string(result)).Inc()
	log.Info("webhook processed", slog.String("event", event.Type), slog.String("result", string(result)))
	render.JSON(w, r, map[string]bool{"received": true})
}

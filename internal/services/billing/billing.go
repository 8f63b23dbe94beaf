// Package billing применяет события платёжного провайдера к статусу подписки пользователя.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/events"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
	"github.com/magabrotheeeer/toolbox/internal/models"
	"github.com/magabrotheeeer/toolbox/internal/storage"
)

// Типы событий вебхука.
const (
	EventCheckoutCompleted   = "checkout.completed"
	EventSubscriptionUpdated = "subscription.updated"
	EventSubscriptionDeleted = "subscription.deleted"
)

// Result — что стало с событием.
type Result string

const (
	ResultApplied     Result = "applied"
	ResultIgnored     Result = "ignored"
	ResultUnknownUser Result = "unknown_user"
)

// Event — событие провайдера в нейтральном формате.
type Event struct {
	Type string    `json:"type" validate:"required"`
	Data EventData `json:"data"`
}

// EventData — поля события. Для checkout.completed нужен Email,
// для subscription.* нужен CustomerID.
type EventData struct {
	Email          string `json:"email"`
	CustomerID     string `json:"customerId"`
	SubscriptionID string `json:"subscriptionId"`
	Status         string `json:"status"`
}

// UserRepository — операции хранилища, которые нужны биллингу.
type UserRepository interface {
	GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error)
	UpdateSubscription(ctx context.Context, email string, patch models.SubscriptionPatch) (*models.User, error)
	UpdateSubscriptionByCustomerID(ctx context.Context, customerID string, patch models.SubscriptionPatch) (*models.User, error)
}

// Service обрабатывает события биллинга.
type Service struct {
	log    *slog.Logger
	users  UserRepository
	events events.Publisher
	now    func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithEvents включает публикацию subscription.changed после каждого
// применённого события.
func WithEvents(pub events.Publisher) Option {
	return func(s *Service) {
		s.events = pub
	}
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New создаёт Service.
func New(log *slog.Logger, users UserRepository, opts ...Option) *Service {
	s := &Service{
		log:    log,
		users:  users,
		events: events.Noop{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StatusFromProvider переводит статус подписки провайдера в доменный:
// active и trialing дают доступ, всё остальное нет.
func StatusFromProvider(status string) access.SubscriptionStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing":
		return access.SubscriptionActive
	default:
		return access.SubscriptionInactive
	}
}

// Apply применяет событие. Неизвестные типы и события без нужных полей
// игнорируются: провайдер не должен повторять их доставку.
func (s *Service) Apply(ctx context.Context, e Event) (Result, error) {
	const op = "services.billing.Apply"
	log := s.log.With(slog.String("op", op), slog.String("event", e.Type))

	switch e.Type {
	case EventCheckoutCompleted:
		if e.Data.Email == "" {
			log.Warn("checkout event without email")
			return ResultIgnored, nil
		}
		updated, err := s.users.UpdateSubscription(ctx, e.Data.Email, models.SubscriptionPatch{
			Status:                access.SubscriptionActive,
			BillingCustomerID:     e.Data.CustomerID,
			BillingSubscriptionID: e.Data.SubscriptionID,
		})
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("checkout for unknown user", sl.Email(e.Data.Email))
			return ResultUnknownUser, nil
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		log.Info("subscription activated", sl.Email(e.Data.Email))
		s.publish(ctx, log, updated)
		return ResultApplied, nil

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		if e.Data.CustomerID == "" {
			log.Warn("subscription event without customer id")
			return ResultIgnored, nil
		}
		user, err := s.users.GetUserByCustomerID(ctx, e.Data.CustomerID)
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("subscription event for unknown customer", slog.String("customer_id", e.Data.CustomerID))
			return ResultUnknownUser, nil
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}

		status := StatusFromProvider(e.Data.Status)
		if e.Type == EventSubscriptionDeleted {
			status = access.SubscriptionInactive
		}
		updated, err := s.users.UpdateSubscriptionByCustomerID(ctx, e.Data.CustomerID, models.SubscriptionPatch{
			Status:                status,
			BillingSubscriptionID: e.Data.SubscriptionID,
		})
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		log.Info("subscription status synced", sl.Email(user.Email), slog.String("status", string(status)))
		s.publish(ctx, log, updated)
		return ResultApplied, nil

	default:
		log.Info("ignored billing event")
		return ResultIgnored, nil
	}
}

func (s *Service) publish(ctx context.Context, log *slog.Logger, user *models.User) {
	if user == nil {
		return
	}
	err := s.events.Publish(ctx, events.Event{
		Type:               events.SubscriptionChanged,
		Email:              user.Email,
		SubscriptionStatus: user.SubscriptionStatus,
		TrialEndsAt:        user.TrialEnd(),
		OccurredAt:         s.now().UTC(),
	})
	if err != nil {
		log.Warn("failed to publish event", sl.Email(user.Email), sl.Err(err))
	}
}

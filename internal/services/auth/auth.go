// Package auth содержит бизнес-логику регистрации, входа и продления сессии.
//
// Сервис хранит пользователей через UserRepository и выпускает сессионные
// токены через session.Manager. Новый пользователь получает пробный период
// на TrialDays дней и неактивную подписку.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/events"
	"github.com/magabrotheeeer/toolbox/internal/lib/password"
	"github.com/magabrotheeeer/toolbox/internal/lib/session"
	"github.com/magabrotheeeer/toolbox/internal/lib/sl"
	"github.com/magabrotheeeer/toolbox/internal/models"
	"github.com/magabrotheeeer/toolbox/internal/storage"
)

// ErrInvalidCredentials — неизвестный email или неверный пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash сравнивается с паролем, когда пользователь не найден, чтобы
// время ответа не выдавало существование email.
var dummyHash, _ = password.GetHash("toolbox-dummy-password")

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Sessions выпускает и проверяет сессионные токены.
type Sessions interface {
	Issue(c session.Claims) (string, error)
	Verify(raw string) (session.Claims, error)
}

// Result — пользователь, свежий токен и его статус доступа.
type Result struct {
	User   *models.User
	Token  string
	Access access.Status
}

// Service отвечает за регистрацию, вход и продление сессии.
type Service struct {
	users     UserRepository
	sessions  Sessions
	trialDays int
	now       func() time.Time
	events    events.Publisher
	log       *slog.Logger
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithEvents включает публикацию user.registered. Ошибки доставки
// только логируются через log.
func WithEvents(pub events.Publisher, log *slog.Logger) Option {
	return func(s *Service) {
		s.events = pub
		s.log = log
	}
}

// New создаёт Service.
func New(users UserRepository, sessions Sessions, trialDays int, opts ...Option) *Service {
	s := &Service{
		users:     users,
		sessions:  sessions,
		trialDays: trialDays,
		now:       time.Now,
		events:    events.Noop{},
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register создаёт пользователя с пробным периодом и выпускает ему сессию.
// Занятый email возвращается как storage.ErrUserExists.
func (s *Service) Register(ctx context.Context, email, rawPassword string) (*Result, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	now := s.now().UTC()
	created, err := s.users.CreateUser(ctx, models.User{
		Email:              models.NormalizeEmail(email),
		PasswordHash:       hashed,
		TrialEndsAt:        now.AddDate(0, 0, s.trialDays),
		SubscriptionStatus: access.SubscriptionInactive,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.events.Publish(ctx, events.Event{
		Type:               events.UserRegistered,
		Email:              created.Email,
		SubscriptionStatus: created.SubscriptionStatus,
		TrialEndsAt:        created.TrialEnd(),
		OccurredAt:         now,
	}); err != nil {
		s.log.Warn("failed to publish event",
			slog.String("op", op),
			slog.String("event", string(events.UserRegistered)),
			sl.Email(created.Email),
			sl.Err(err),
		)
	}

	res, err := s.issue(created)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Login проверяет пароль и выпускает сессию.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*Result, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrUserNotFound) {
		_ = password.CompareHash(dummyHash, rawPassword)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	res, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Refresh проверяет текущий токен и выпускает новый по сохранённому пользователю,
// так что изменения подписки попадают в сессию без повторного входа.
// Ошибки проверки токена оборачивают session.ErrInvalidSession или session.ErrSessionExpired.
func (s *Service) Refresh(ctx context.Context, raw string) (*Result, error) {
	const op = "services.auth.Refresh"

	claims, err := s.sessions.Verify(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.GetUserByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.issue(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) issue(user *models.User) (*Result, error) {
	token, err := s.sessions.Issue(session.Claims{
		Email:              user.Email,
		TrialEndsAt:        user.TrialEnd(),
		SubscriptionStatus: user.SubscriptionStatus,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		User:   user,
		Token:  token,
		Access: user.Access(s.now()),
	}, nil
}

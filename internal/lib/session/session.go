// Package session выпускает и проверяет сессионные токены.
//
// Токен несёт email, дату окончания триала и статус подписки, подписан
// HMAC-SHA256 и живёт фиксированное время (TTL). Серверного хранилища
// сессий нет: продление — это выпуск нового токена.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/toolbox/internal/access"
	"github.com/magabrotheeeer/toolbox/internal/lib/token"
	"github.com/magabrotheeeer/toolbox/internal/models"
)

// Claims — публичная часть сессии.
type Claims struct {
	Email              string                    `json:"email"`
	TrialEndsAt        string                    `json:"trialEndsAt"`
	SubscriptionStatus access.SubscriptionStatus `json:"subscriptionStatus"`
}

// Access вычисляет статус доступа для владельца сессии на момент now.
func (c Claims) Access(now time.Time) access.Status {
	return access.Evaluate(c.TrialEndsAt, c.SubscriptionStatus, now)
}

type payload struct {
	Claims
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

// Manager выпускает и проверяет токены одним секретом.
// После создания не изменяется и безопасен для конкурентного использования.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option настраивает Manager.
type Option func(*Manager)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager создаёт Manager. Секрет копируется.
func NewManager(secret []byte, ttl time.Duration, opts ...Option) (*Manager, error) {
	const op = "session.NewManager"
	if len(secret) == 0 {
		return nil, fmt.Errorf("%s: empty secret", op)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%s: ttl must be positive, got %s", op, ttl)
	}
	m := &Manager{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL возвращает время жизни токена.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue выпускает токен: iat = сейчас, exp = iat + TTL.
func (m *Manager) Issue(c Claims) (string, error) {
	const op = "session.Issue"

	now := m.now().Unix()
	c.Email = models.NormalizeEmail(c.Email)
	p := payload{
		Claims:    c,
		IssuedAt:  now,
		ExpiresAt: now + int64(m.ttl/time.Second),
	}

	header, err := token.EncodeSegment(token.DefaultHeader)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	body, err := token.EncodeSegment(p)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	signingInput := header + "." + body
	sig, err := token.Sign(signingInput, m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return signingInput + "." + sig, nil
}

// Verify проверяет подпись, срок и обязательные поля и возвращает публичные claims.
// Ошибка всегда оборачивает ErrInvalidSession или ErrSessionExpired.
func (m *Manager) Verify(raw string) (Claims, error) {
	const op = "session.Verify"

	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	if !token.Verify(parts[0]+"."+parts[1], parts[2], m.secret) {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	var p payload
	if err := token.DecodeSegment(parts[1], &p); err != nil {
		if errors.Is(err, token.ErrMalformed) {
			return Claims{}, fmt.Errorf("%s: %w", op, ErrMalformedToken)
		}
		return Claims{}, fmt.Errorf("%s: %w", op, ErrInvalidSession)
	}

	if p.ExpiresAt == 0 || p.ExpiresAt <= m.now().Unix() {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrSessionExpired)
	}

	if p.Email == "" || !access.ValidTrialEnd(p.TrialEndsAt) || !p.SubscriptionStatus.Valid() {
		return Claims{}, fmt.Errorf("%s: %w", op, ErrMissingClaims)
	}

	return p.Claims, nil
}

// Package events описывает события учётной записи, которые сервис отдаёт
// наружу. Доставка не влияет на ответ клиенту.
package events

import (
	"context"
	"time"

	"github.com/magabrotheeeer/toolbox/internal/access"
)

// Type — тип события, он же routing key.
type Type string

const (
	UserRegistered      Type = "user.registered"
	SubscriptionChanged Type = "subscription.changed"
	TrialEnding         Type = "trial.ending"
)

// Event — тело сообщения.
type Event struct {
	Type               Type                      `json:"type"`
	Email              string                    `json:"email"`
	SubscriptionStatus access.SubscriptionStatus `json:"subscriptionStatus"`
	TrialEndsAt        string                    `json:"trialEndsAt"`
	OccurredAt         time.Time                 `json:"occurredAt"`
}

// Publisher отправляет события.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop отбрасывает события. Используется, когда брокер не настроен.
type Noop struct{}

// Publish ничего не делает.
func (Noop) Publish(context.Context, Event) error { return nil }

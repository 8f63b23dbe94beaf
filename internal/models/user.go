// Package models содержит доменную модель пользователя: учётные данные,
// дату окончания пробного периода и состояние подписки.
package models

import (
	"strings"
	"time"

	"github.com/magabrotheeeer/toolbox/internal/access"
)

// User представляет зарегистрированного пользователя.
type User struct {
	UID                   string                    `json:"uid"`
	Email                 string                    `json:"email"`
	PasswordHash          string                    `json:"passwordHash"`
	CreatedAt             time.Time                 `json:"createdAt"`
	UpdatedAt             time.Time                 `json:"updatedAt"`
	TrialEndsAt           time.Time                 `json:"trialEndsAt"`
	SubscriptionStatus    access.SubscriptionStatus `json:"subscriptionStatus"`
	BillingCustomerID     string                    `json:"billingCustomerId,omitempty"`
	BillingSubscriptionID string                    `json:"billingSubscriptionId,omitempty"`
}

// TrialEnd возвращает дату окончания триала в формате, который хранится в сессии.
func (u *User) TrialEnd() string {
	return access.FormatTrialEnd(u.TrialEndsAt)
}

// Access вычисляет статус доступа пользователя на момент now.
func (u *User) Access(now time.Time) access.Status {
	return access.Evaluate(u.TrialEnd(), u.SubscriptionStatus, now)
}

// SubscriptionPatch — изменение состояния подписки. Пустые ID не перезаписывают сохранённые.
type SubscriptionPatch struct {
	Status                access.SubscriptionStatus
	BillingCustomerID     string
	BillingSubscriptionID string
}

// Apply применяет изменение к пользователю и обновляет UpdatedAt.
func (p SubscriptionPatch) Apply(u *User, now time.Time) {
	if p.Status != "" {
		u.SubscriptionStatus = p.Status
	}
	if p.BillingCustomerID != "" {
		u.BillingCustomerID = p.BillingCustomerID
	}
	if p.BillingSubscriptionID != "" {
		u.BillingSubscriptionID = p.BillingSubscriptionID
	}
	u.UpdatedAt = now
}

// NormalizeEmail приводит email к каноническому виду: без пробелов по краям, в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

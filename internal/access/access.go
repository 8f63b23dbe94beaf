// Package access вычисляет право доступа к инструментам по состоянию
// пробного периода и подписки пользователя.
//
// Решение не хранится: оно пересчитывается при каждом обращении из
// даты окончания триала, статуса подписки и текущего времени.
package access

import (
	"math"
	"time"
)

// SubscriptionStatus — статус оплаченной подписки.
type SubscriptionStatus string

const (
	// SubscriptionInactive — подписки нет или она отменена.
	SubscriptionInactive SubscriptionStatus = "inactive"
	// SubscriptionActive — подписка оплачена.
	SubscriptionActive SubscriptionStatus = "active"
)

// Valid сообщает, является ли статус одним из известных значений.
func (s SubscriptionStatus) Valid() bool {
	return s == SubscriptionInactive || s == SubscriptionActive
}

// Reason — причина, по которой доступ выдан или закрыт.
type Reason string

const (
	ReasonActiveSubscription Reason = "active_subscription"
	ReasonTrial              Reason = "trial"
	ReasonExpired            Reason = "expired"
)

// Status — итог проверки доступа, отдаётся клиенту как есть.
type Status struct {
	HasAccess          bool               `json:"hasAccess"`
	Reason             Reason             `json:"reason"`
	TrialEndsAt        string             `json:"trialEndsAt"`
	TrialDaysLeft      int                `json:"trialDaysLeft"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
}

const day = 24 * time.Hour

// Evaluate принимает решение о доступе.
//
// Активная подписка открывает доступ независимо от дат триала.
// Нераспознанная дата окончания триала трактуется как истёкший триал.
func Evaluate(trialEndsAt string, status SubscriptionStatus, now time.Time) Status {
	trialEnd, parsed := parseTrialEnd(trialEndsAt)

	daysLeft := 0
	if parsed {
		daysLeft = daysUntil(trialEnd, now)
	}

	if status == SubscriptionActive {
		return Status{
			HasAccess:          true,
			Reason:             ReasonActiveSubscription,
			TrialEndsAt:        trialEndsAt,
			TrialDaysLeft:      daysLeft,
			SubscriptionStatus: SubscriptionActive,
		}
	}

	if parsed && trialEnd.After(now) {
		return Status{
			HasAccess:          true,
			Reason:             ReasonTrial,
			TrialEndsAt:        trialEndsAt,
			TrialDaysLeft:      daysLeft,
			SubscriptionStatus: SubscriptionInactive,
		}
	}

	return Status{
		HasAccess:          false,
		Reason:             ReasonExpired,
		TrialEndsAt:        trialEndsAt,
		TrialDaysLeft:      0,
		SubscriptionStatus: status,
	}
}

// FormatTrialEnd приводит момент окончания триала к строке, которая хранится в сессии.
func FormatTrialEnd(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ValidTrialEnd сообщает, разбирается ли строка как момент окончания триала.
func ValidTrialEnd(s string) bool {
	_, ok := parseTrialEnd(s)
	return ok
}

func parseTrialEnd(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysUntil округляет оставшееся время вверх до целых суток, не меньше нуля.
func daysUntil(end, now time.Time) int {
	left := end.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}

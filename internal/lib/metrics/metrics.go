// Package metrics объявляет счётчики Prometheus приложения.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Решения гейта по защищённым путям.
const (
	DecisionAllow        = "allow"
	DecisionUnauthorized = "unauthorized"
	DecisionExpired      = "session_expired"
	DecisionNoAccess     = "no_access"
)

var (
	// GateDecisions считает решения гейта по защищённым запросам.
	GateDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toolbox",
		Name:      "gate_decisions_total",
		Help:      "Decisions taken by the session gate for protected requests.",
	}, []string{"decision"})

	// AuthAttempts считает попытки регистрации, входа и обновления сессии.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toolbox",
		Name:      "auth_attempts_total",
		Help:      "Register, login and session refresh attempts by result.",
	}, []string{"action", "result"})

	// BillingEvents считает события биллинга по типу и результату обработки.
	BillingEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "toolbox",
		Name:      "billing_events_total",
		Help:      "Billing webhook events by type and processing result.",
	}, []string{"event", "result"})
)

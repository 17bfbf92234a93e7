// Package metrics defines the custom Prometheus metrics of the users API.
// It is the single source of truth for metric names, labels and help strings.
//
// Build one Metrics per registry with New; the HTTP layer and the startup
// code record into it.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "users_api"

// Login results.
const (
	LoginSuccess   = "success"
	LoginInvalid   = "invalid_credentials"
	LoginThrottled = "throttled"
	LoginError     = "error"
)

// Bootstrap results.
const (
	BootstrapCreated  = "created"
	BootstrapExisting = "existing"
	BootstrapDisabled = "disabled"
	BootstrapError    = "error"
)

type Metrics struct {
	// UsersCreatedTotal counts created accounts.
	// Label:
	//   - source: "admin" (POST /api/users) or "register" (self-registration)
	UsersCreatedTotal *prometheus.CounterVec

	// UsersDeletedTotal counts delete requests, including deletes of absent ids.
	UsersDeletedTotal prometheus.Counter

	// LoginsTotal counts login attempts by outcome.
	// Label:
	//   - result: success, invalid_credentials, throttled or error
	LoginsTotal *prometheus.CounterVec

	// AdminBootstrapTotal counts startup bootstrap outcomes.
	// Label:
	//   - result: created, existing, disabled or error
	AdminBootstrapTotal *prometheus.CounterVec
}

// New creates and registers every metric with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UsersCreatedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "users_created_total",
				Help:      "Total number of user accounts created, by source.",
			},
			[]string{"source"},
		),
		UsersDeletedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "users_deleted_total",
				Help:      "Total number of user delete requests served.",
			},
		),
		LoginsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of login attempts, by result.",
			},
			[]string{"result"},
		),
		AdminBootstrapTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admin_bootstrap_total",
				Help:      "Outcomes of the startup admin bootstrap.",
			},
			[]string{"result"},
		),
	}
}

// RegisterStoreSize exposes the number of stored users through size.
func RegisterStoreSize(reg prometheus.Registerer, size func() int) {
	promauto.With(reg).NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "users_stored",
			Help:      "Number of user records currently held by the store.",
		},
		func() float64 { return float64(size()) },
	)
}

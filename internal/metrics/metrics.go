// Package metrics keeps the distinct internal auth outcomes observable
// where the API responses deliberately collapse them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PinsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fractalshop_auth_pins_issued_total",
		Help: "PIN codes generated and stored.",
	})

	PinStoreFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fractalshop_auth_pin_store_failures_total",
		Help: "PIN persistence failures swallowed by the fail-open issuance path.",
	})

	MailFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fractalshop_auth_mail_failures_total",
		Help: "PIN email dispatch failures swallowed by the fail-open issuance path.",
	})

	PinVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractalshop_auth_pin_verifications_total",
		Help: "PIN verification attempts by internal outcome.",
	}, []string{"outcome"})

	SignInFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractalshop_auth_sign_in_failures_total",
		Help: "Sign-in failures by strategy and internal reason.",
	}, []string{"strategy", "reason"})

	SignIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fractalshop_auth_sign_ins_total",
		Help: "Successful sign-ins by strategy.",
	}, []string{"strategy"})
)

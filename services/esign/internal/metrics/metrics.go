// Package metrics registers the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConsentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esign_consents_recorded_total",
		Help: "Number of ESIGN disclosure consents recorded.",
	})

	SignaturesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esign_signatures_issued_total",
		Help: "Number of signatures successfully applied, including certificate issuance.",
	})

	IntegrityChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esign_integrity_checks_total",
		Help: "Number of document integrity verifications by result.",
	}, []string{"result"})
)

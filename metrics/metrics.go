package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// UploadsTotal counts report submissions by outcome.
	UploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safestreet",
		Subsystem: "uploads",
		Name:      "submitted_total",
		Help:      "Total number of report submissions, labeled by result.",
	}, []string{"result"})

	// ResolvedTotal counts reports marked resolved by supervisors.
	ResolvedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safestreet",
		Subsystem: "uploads",
		Name:      "resolved_total",
		Help:      "Total number of reports marked as resolved.",
	})

	// GeocodeFailuresTotal counts best-effort forward geocode failures.
	// These do not fail the submission; coordinates are stored as null.
	GeocodeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safestreet",
		Subsystem: "uploads",
		Name:      "geocode_failures_total",
		Help:      "Total number of submissions stored without coordinates because geocoding failed.",
	})

	// OtpIssuedTotal counts password-reset codes issued.
	OtpIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "safestreet",
		Subsystem: "otp",
		Name:      "issued_total",
		Help:      "Total number of one-time passcodes issued.",
	})

	// OtpVerifyTotal counts verification attempts by outcome.
	OtpVerifyTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safestreet",
		Subsystem: "otp",
		Name:      "verify_total",
		Help:      "Total number of one-time passcode verification attempts, labeled by result.",
	}, []string{"result"})
)

// Register registers all collectors with the default registry. Safe to
// call more than once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			UploadsTotal,
			ResolvedTotal,
			GeocodeFailuresTotal,
			OtpIssuedTotal,
			OtpVerifyTotal,
		)
	})
}

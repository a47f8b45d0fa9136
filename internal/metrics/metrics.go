package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccessDecisions counts access checks by outcome (granted, denied).
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_mgt_access_decisions_total",
		Help: "Access control decisions by outcome",
	}, []string{"outcome"})

	// AccessAttempts counts audit-trail appends by type and success.
	AccessAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_mgt_access_attempts_total",
		Help: "Recorded access attempts by access type and result",
	}, []string{"access_type", "result"})

	// Downloads counts file downloads by final outcome.
	Downloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_mgt_downloads_total",
		Help: "File downloads by outcome",
	}, []string{"outcome"})

	// DownloadDuration observes end-to-end download latency in seconds.
	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "access_mgt_download_duration_seconds",
		Help:    "End-to-end file download duration",
		Buckets: prometheus.DefBuckets,
	})

	// DownloadRetries counts retry attempts after transient failures.
	DownloadRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "access_mgt_download_retries_total",
		Help: "Download retry attempts after transient failures",
	})

	// CacheRequests counts content cache lookups by tier and result.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_mgt_cache_requests_total",
		Help: "Content cache lookups by tier (memory, disk) and result (hit, miss)",
	}, []string{"tier", "result"})

	// DecryptionFailures counts decryption failures by category.
	DecryptionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_mgt_decryption_failures_total",
		Help: "Decryption failures by category (key, integrity, metadata)",
	}, []string{"category"})

	// Payments counts payment transactions by status transition.
	Payments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "access_mgt_payments_total",
		Help: "Payment transactions by resulting status",
	}, []string{"status"})

	// LedgerMirrorFailures counts best-effort ledger mirror calls that failed.
	LedgerMirrorFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "access_mgt_ledger_mirror_failures_total",
		Help: "Best-effort consent ledger mirror calls that failed",
	})

	// ActiveSessions tracks currently active access sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "access_mgt_active_sessions",
		Help: "Currently active access sessions",
	})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Report-File-API Metrics
var (
	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportstack",
			Subsystem: "report_file_api",
			Name:      "uploads_total",
			Help:      "Total report file uploads",
		},
		[]string{"backend", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportstack",
			Subsystem: "report_file_api",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded to object storage",
		},
		[]string{"backend"},
	)

	// URL issuance counter
	URLIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportstack",
			Subsystem: "report_file_api",
			Name:      "url_issues_total",
			Help:      "Total presigned URL issuances",
		},
		[]string{"access_type", "status"},
	)

	// Storage backend operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reportstack",
			Subsystem: "report_file_api",
			Name:      "storage_operations_total",
			Help:      "Total storage backend operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// Storage operation duration
	StorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reportstack",
			Subsystem: "report_file_api",
			Name:      "storage_duration_seconds",
			Help:      "Storage backend operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"backend", "operation"},
	)

	// Lazy expiry transitions
	ExpiredTransitionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reportstack",
			Subsystem: "report_file_api",
			Name:      "expired_transitions_total",
			Help:      "Files transitioned to expired on access",
		},
	)

	// Best-effort audit writes that failed
	AuditFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reportstack",
			Subsystem: "report_file_api",
			Name:      "audit_failures_total",
			Help:      "Access-log writes dropped after a successful URL issuance",
		},
	)
)

// RecordUpload records a file upload
func RecordUpload(backend, status string, bytes int64) {
	UploadsTotal.WithLabelValues(backend, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(backend).Add(float64(bytes))
	}
}

// RecordURLIssue records a presigned URL issuance
func RecordURLIssue(accessType, status string) {
	URLIssuesTotal.WithLabelValues(accessType, status).Inc()
}

// RecordStorageOperation records a storage backend operation
func RecordStorageOperation(backend, operation, status string, durationSec float64) {
	StorageOperationsTotal.WithLabelValues(backend, operation, status).Inc()
	StorageDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

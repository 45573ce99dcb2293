package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FormEditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspectform_edits_total",
			Help: "Total committed form edits",
		},
		[]string{"scope"},
	)

	StorageWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspectform_storage_writes_total",
			Help: "Total persistence writes by slot and status",
		},
		[]string{"slot", "status"},
	)

	StorageReadErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspectform_storage_read_errors_total",
			Help: "Total failed or corrupt persistence reads by slot",
		},
		[]string{"slot"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inspectform_exports_total",
			Help: "Total exports by format and status",
		},
		[]string{"format", "status"},
	)

	ExportLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inspectform_export_latency_seconds",
			Help:    "Export latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format"},
	)

	ArchiveEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inspectform_archive_entries",
			Help: "Number of dates held in the archive",
		},
	)
)

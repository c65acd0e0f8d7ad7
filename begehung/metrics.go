package begehung

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InspectionsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "begehung_inspections_saved_total",
			Help: "Inspections saved from a checklist",
		},
	)

	RecordsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "begehung_records_appended_total",
			Help: "Inspection records added to the table",
		},
		[]string{"source"}, // save, merge
	)

	DuplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "begehung_duplicates_removed_total",
			Help: "Rows dropped as exact duplicates while merging",
		},
	)

	ImportWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "begehung_import_warnings_total",
			Help: "Row-level problems found while importing",
		},
		[]string{"column"},
	)

	ImportsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "begehung_imports_rejected_total",
			Help: "Uploads rejected as malformed",
		},
	)

	TemplatesReplaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "begehung_templates_replaced_total",
			Help: "Variant templates replaced",
		},
		[]string{"variant"},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "begehung_exports_total",
			Help: "Downloads produced",
		},
		[]string{"format"}, // csv, xlsx, template
	)

	TableRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "begehung_table_rows",
			Help: "Rows currently held in the inspection table",
		},
	)
)

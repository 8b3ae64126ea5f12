package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector contains all metrics for the smart import service.
type Collector struct {
	// File intake metrics
	FilesUploadedTotal   prometheus.Counter
	ParseErrorsTotal     prometheus.Counter
	ColumnsRemappedTotal prometheus.Counter
	FileRecordsHistogram prometheus.Histogram

	// Analysis metrics
	AnalysisRunsTotal     prometheus.Counter
	AnalysisRejectedTotal prometheus.Counter
	AnalysisDuration      prometheus.Histogram
	EntitiesResolvedTotal prometheus.Counter
	EdgesCreatedTotal     prometheus.Counter
	HighRiskEntities      prometheus.Gauge

	// Persistence metrics
	AnalysesConfirmedTotal prometheus.Counter
	PersistenceErrors      prometheus.Counter
	KafkaErrors            prometheus.Counter
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		FilesUploadedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_files_uploaded_total",
			Help: "The total number of files uploaded to an import batch",
		}),
		ParseErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_parse_errors_total",
			Help: "The total number of uploaded files rejected by the parser",
		}),
		ColumnsRemappedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_columns_remapped_total",
			Help: "The total number of manual column mapping overrides",
		}),
		FileRecordsHistogram: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "smart_import_file_records",
			Help:    "The number of records per uploaded file",
			Buckets: prometheus.ExponentialBuckets(10, 10, 6),
		}),
		AnalysisRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_analysis_runs_total",
			Help: "The total number of completed analysis runs",
		}),
		AnalysisRejectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_analysis_rejected_total",
			Help: "The total number of analysis runs refused by the precondition check",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "smart_import_analysis_duration_seconds",
			Help:    "The duration of analysis runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		EntitiesResolvedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_entities_resolved_total",
			Help: "The total number of entities produced by analysis runs",
		}),
		EdgesCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_edges_created_total",
			Help: "The total number of relationship edges produced by analysis runs",
		}),
		HighRiskEntities: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "smart_import_high_risk_entities",
			Help: "The number of high risk entities in the most recent analysis run",
		}),
		AnalysesConfirmedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_analyses_confirmed_total",
			Help: "The total number of analysis results persisted to the case graph",
		}),
		PersistenceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_persistence_errors_total",
			Help: "The total number of graph or database persistence failures",
		}),
		KafkaErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smart_import_kafka_errors_total",
			Help: "The total number of event publishing failures",
		}),
	}
}

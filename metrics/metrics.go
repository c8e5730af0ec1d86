package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleforge_events_imported_total",
			Help: "Total number of events produced by the log importer",
		},
		[]string{"format"},
	)

	ImportRowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleforge_import_rows_skipped_total",
			Help: "Total number of rows skipped during import",
		},
		[]string{"format"},
	)

	RuleEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ruleforge_rule_evaluations_total",
			Help: "Total number of rule-versus-event evaluations",
		},
		[]string{"result"},
	)

	RegexTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ruleforge_regex_timeouts_total",
			Help: "Total number of regex comparisons that hit the match timeout",
		},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ruleforge_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one rule against one event set",
			Buckets: prometheus.DefBuckets,
		},
	)
)

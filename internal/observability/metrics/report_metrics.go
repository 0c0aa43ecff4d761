package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	ReportOutcomeOK          = "ok"
	ReportOutcomeInvalid     = "invalid"
	ReportOutcomeRateLimited = "rate_limited"
	ReportOutcomeSourceError = "source_error"
)

const (
	SourceErrorDeadlineExceeded = "deadline_exceeded"
	SourceErrorCanceled         = "canceled"
	SourceErrorLockTimeout      = "db_lock_timeout"
	SourceErrorConnection       = "db_connection"
	SourceErrorUndefinedTable   = "db_undefined_table"
	SourceErrorNotFound         = "not_found"
	SourceErrorUnknown          = "unknown"
)

// ReportMetrics exposes report pipeline health on /metrics.
type ReportMetrics struct {
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	rows         *prometheus.HistogramVec
	sourceErrors *prometheus.CounterVec
}

func NewReportMetrics(cfg Config) (*ReportMetrics, error) {
	return newReportMetrics(prometheus.DefaultRegisterer, cfg)
}

func newReportMetrics(registerer prometheus.Registerer, cfg Config) (*ReportMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := serviceLabels(cfg)

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "backoffice_report_runs_total",
		Help:        "Summary report runs by kind, variant and outcome.",
		ConstLabels: constLabels,
	}, []string{"kind", "variant", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "backoffice_report_build_seconds",
		Help:        "Time spent fetching and aggregating one report.",
		ConstLabels: constLabels,
		Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"kind", "variant"})
	rows := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "backoffice_report_rows",
		Help:        "Rows per finished report.",
		ConstLabels: constLabels,
		Buckets:     prometheus.ExponentialBuckets(8, 2, 8),
	}, []string{"kind"})
	sourceErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "backoffice_report_source_errors_total",
		Help:        "Document or taxonomy fetch failures by source and reason.",
		ConstLabels: constLabels,
	}, []string{"source", "reason"})

	var err error
	if runs, err = registerCounterVec(registerer, runs); err != nil {
		return nil, err
	}
	if duration, err = registerHistogramVec(registerer, duration); err != nil {
		return nil, err
	}
	if rows, err = registerHistogramVec(registerer, rows); err != nil {
		return nil, err
	}
	if sourceErrors, err = registerCounterVec(registerer, sourceErrors); err != nil {
		return nil, err
	}

	return &ReportMetrics{runs: runs, duration: duration, rows: rows, sourceErrors: sourceErrors}, nil
}

// ObserveRun records one report run.
func (m *ReportMetrics) ObserveRun(kind, variant, outcome string, elapsed time.Duration, rows int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(kind, variant, outcome).Inc()
	if outcome != ReportOutcomeOK {
		return
	}
	m.duration.WithLabelValues(kind, variant).Observe(elapsed.Seconds())
	m.rows.WithLabelValues(kind).Observe(float64(rows))
}

// IncSourceError counts a failed fetch from source ("documents" or "taxonomy").
func (m *ReportMetrics) IncSourceError(source string, err error) {
	if m == nil || err == nil {
		return
	}
	m.sourceErrors.WithLabelValues(source, ClassifySourceError(err)).Inc()
}

// ClassifySourceError maps fetch failures to a low-cardinality reason.
func ClassifySourceError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return SourceErrorDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return SourceErrorCanceled
	case errors.Is(err, gorm.ErrRecordNotFound):
		return SourceErrorNotFound
	case hasPGCode(err, "55P03"):
		return SourceErrorLockTimeout
	case hasPGCode(err, "42P01"):
		return SourceErrorUndefinedTable
	case hasPGClass(err, "08"):
		return SourceErrorConnection
	default:
		return SourceErrorUnknown
	}
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func hasPGClass(err error, class string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == class
}

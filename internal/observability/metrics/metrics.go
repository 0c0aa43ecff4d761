package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the OTLP meter provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
	// Interval between pushes; zero means 10s.
	Interval time.Duration
}

// Metrics holds the OTLP instruments recorded by the report and order
// services and the rate limit middleware.
type Metrics struct {
	reportRuns     metric.Int64Counter
	reportDuration metric.Float64Histogram
	reportDropped  metric.Int64Counter
	ordersCreated  metric.Int64Counter
	limitAllowed   metric.Int64Counter
	limitDenied    metric.Int64Counter
}

// NewProvider installs the global meter provider. Disabled configs get a
// noop provider so instruments stay valid.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)
	otel.SetMeterProvider(provider)

	if log == nil {
		log = zap.NewNop()
	}
	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("flushing meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}
	log.Info("otlp metrics enabled",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
		zap.Duration("interval", interval),
	)
	return provider, nil
}

// New creates the instruments on a meter named after the service.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "backoffice"
	}
	meter := provider.Meter(name)

	var errs []error
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}

	m := &Metrics{
		reportRuns:    counter("backoffice_report_runs_total", "Summary report runs."),
		reportDropped: counter("backoffice_report_dropped_entries_total", "Entries matching no taxonomy row."),
		ordersCreated: counter("backoffice_orders_created_total", "Finance documents recorded."),
		limitAllowed:  counter("backoffice_rate_limit_allowed_total", "Requests admitted by the report limiter."),
		limitDenied:   counter("backoffice_rate_limit_denied_total", "Requests rejected by the report limiter."),
	}
	hist, err := meter.Float64Histogram("backoffice_report_duration_seconds",
		metric.WithUnit("s"),
		metric.WithDescription("Report build latency."),
	)
	errs = append(errs, err)
	m.reportDuration = hist

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordReportRun counts a finished report run and its latency.
func (m *Metrics) RecordReportRun(ctx context.Context, kind, variant, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	opt := withAttrs(
		attribute.String("kind", kind),
		attribute.String("variant", variant),
		attribute.String("outcome", outcome),
	)
	m.reportRuns.Add(ctx, 1, opt)
	m.reportDuration.Record(ctx, elapsed.Seconds(), opt)
}

// RecordDroppedEntries counts entries that matched no taxonomy row.
func (m *Metrics) RecordDroppedEntries(ctx context.Context, kind string, dropped int) {
	if m == nil || dropped <= 0 {
		return
	}
	m.reportDropped.Add(ctx, int64(dropped), withAttrs(attribute.String("kind", kind)))
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.ordersCreated.Add(ctx, 1, withAttrs(attribute.String("kind", kind)))
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, branch, endpoint string) {
	if m == nil {
		return
	}
	m.limitAllowed.Add(ctx, 1, withAttrs(
		attribute.String("branch", branch),
		attribute.String("endpoint", endpoint),
	))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, branch, endpoint, reason string) {
	if m == nil {
		return
	}
	m.limitDenied.Add(ctx, 1, withAttrs(
		attribute.String("branch", branch),
		attribute.String("endpoint", endpoint),
		attribute.String("reason", reason),
	))
}

func withAttrs(attrs ...attribute.KeyValue) metric.MeasurementOption {
	for i, attr := range attrs {
		if attr.Value.Type() == attribute.STRING {
			attrs[i] = attribute.String(string(attr.Key), strings.TrimSpace(attr.Value.AsString()))
		}
	}
	return metric.WithAttributes(FilterAttributes(attrs...)...)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch p := strings.ToLower(strings.TrimSpace(protocol)); p {
	case "http", "http/protobuf":
		var opts []otlpmetrichttp.Option
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", p)
	}
}

// Labels outside this set would carry document ids or amounts.
var allowedLabelKeys = map[attribute.Key]bool{
	"branch":      true,
	"kind":        true,
	"variant":     true,
	"outcome":     true,
	"endpoint":    true,
	"status_code": true,
	"reason":      true,
}

// FilterAttributes drops labels outside the low-cardinality allow list.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if allowedLabelKeys[attr.Key] {
			filtered = append(filtered, attr)
		}
	}
	return filtered
}

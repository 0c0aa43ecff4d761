package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/backoffice/internal/clock"
	"github.com/smallbiznis/backoffice/internal/config"
	obscontext "github.com/smallbiznis/backoffice/internal/observability/context"
	obsmetrics "github.com/smallbiznis/backoffice/internal/observability/metrics"
	obstracing "github.com/smallbiznis/backoffice/internal/observability/tracing"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	"github.com/smallbiznis/backoffice/internal/summary/engine"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	variantDaily   = "daily"
	variantMonthly = "monthly"
)

type Params struct {
	fx.In

	Cfg       config.Config
	Options   engine.Options
	Log       *zap.Logger
	Clock     clock.Clock
	Documents domain.Repository
	Taxonomy  taxonomydomain.Source

	Metrics       *obsmetrics.Metrics       `optional:"true"`
	ReportMetrics *obsmetrics.ReportMetrics `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	clock     clock.Clock
	documents domain.DocumentSource
	taxonomy  taxonomydomain.Source
	opts      engine.Options
	maxDays   int
	tracer    trace.Tracer

	metrics       *obsmetrics.Metrics
	reportMetrics *obsmetrics.ReportMetrics
}

func New(p Params) domain.Service {
	return &Service{
		log:           p.Log.Named("summary.service"),
		clock:         p.Clock,
		documents:     p.Documents,
		taxonomy:      p.Taxonomy,
		opts:          p.Options,
		maxDays:       p.Cfg.Report.MaxPeriodDays,
		tracer:        otel.Tracer("backoffice/summary"),
		metrics:       p.Metrics,
		reportMetrics: p.ReportMetrics,
	}
}

// ProvideOptions builds the engine options shared by report runs and order
// intake.
func ProvideOptions(cfg config.Config) (engine.Options, error) {
	return OptionsFromConfig(cfg.Report)
}

// OptionsFromConfig resolves the report location, VAT rate and deduction
// prefixes.
func OptionsFromConfig(cfg config.ReportConfig) (engine.Options, error) {
	opts := engine.DefaultOptions()

	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return opts, fmt.Errorf("invalid report timezone %q: %w", tz, err)
		}
		opts.Location = loc
	}
	if raw := strings.TrimSpace(cfg.VATRate); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil || rate.IsNegative() {
			return opts, fmt.Errorf("invalid report vat rate %q", raw)
		}
		opts.VATRate = rate
	}
	if cfg.DeductionPrefixes != nil {
		opts.DeductionPrefixes = cfg.DeductionPrefixes
	}
	return opts, nil
}

func (s *Service) Daily(ctx context.Context, req domain.DailyRequest) (*domain.Report, error) {
	kind, branch, err := s.parseTarget(req.Kind, req.Branch)
	if err != nil {
		s.observeInvalid(req.Kind, variantDaily)
		return nil, err
	}

	axis := engine.NewAxis(req.Start, req.End, s.opts.Location)
	period := domain.Period{Start: axis.First(), End: axis.Last()}
	return s.run(ctx, variantDaily, kind, branch, axis, period)
}

func (s *Service) Monthly(ctx context.Context, req domain.MonthlyRequest) (*domain.Report, error) {
	kind, branch, err := s.parseTarget(req.Kind, req.Branch)
	if err != nil {
		s.observeInvalid(req.Kind, variantMonthly)
		return nil, err
	}

	axis := engine.MonthAxis(req.Month, s.opts.Location)
	period := domain.Period{Start: axis.First(), End: axis.Last()}
	if !axis.Empty() {
		period.Month = strings.TrimSpace(req.Month)
	}
	return s.run(ctx, variantMonthly, kind, branch, axis, period)
}

func (s *Service) parseTarget(rawKind, rawBranch string) (taxonomydomain.Kind, string, error) {
	kind, err := taxonomydomain.ParseKind(rawKind)
	if err != nil {
		return "", "", err
	}
	branch := strings.TrimSpace(rawBranch)
	if branch == "" {
		return "", "", domain.ErrInvalidBranch
	}
	return kind, branch, nil
}

func (s *Service) run(ctx context.Context, variant string, kind taxonomydomain.Kind, branch string, axis engine.Axis, period domain.Period) (*domain.Report, error) {
	if s.maxDays > 0 && axis.Len() > s.maxDays {
		s.observeInvalid(string(kind), variant)
		return nil, domain.ErrPeriodTooLong
	}

	start := time.Now()
	// ULIDs sort by start time, which keeps run logs in order.
	runID := ulid.MustNew(ulid.Timestamp(s.clock.Now()), ulid.DefaultEntropy()).String()
	ctx = obscontext.WithRunID(ctx, runID)
	ctx, span := s.tracer.Start(ctx, "summary.run", trace.WithAttributes(obstracing.SafeAttributes(
		attribute.String("report.kind", string(kind)),
		attribute.String("report.variant", variant),
		attribute.String("report.branch", branch),
		attribute.Int("report.days", axis.Len()),
	)...))
	defer span.End()

	log := s.log.With(
		zap.String("run_id", runID),
		zap.String("kind", string(kind)),
		zap.String("variant", variant),
		zap.String("branch", branch),
	)

	report := &domain.Report{
		RunID:        runID,
		Kind:         kind,
		Branch:       branch,
		Period:       period,
		Columns:      axis.Keys(),
		SummableKeys: engine.SummableKeys(axis),
		Rows:         []domain.Row{},
	}

	if axis.Empty() {
		result := engine.Build(nil, axis, nil, branch, s.opts)
		report.Summary = result.Summary
		report.GeneratedAt = s.clock.Now()
		log.Debug("empty period, returning empty report")
		s.observeRun(ctx, kind, variant, obsmetrics.ReportOutcomeOK, time.Since(start), report)
		return report, nil
	}

	docs, taxonomy, err := s.fetch(ctx, kind, branch, axis)
	if err != nil {
		span.RecordError(obstracing.SafeError(err))
		span.SetStatus(codes.Error, "fetch failed")
		log.Error("report fetch failed", zap.Error(err))
		s.observeRun(ctx, kind, variant, obsmetrics.ReportOutcomeSourceError, time.Since(start), nil)
		return nil, err
	}

	result := engine.Build(docs, axis, taxonomy, branch, s.opts)
	report.Rows = result.Rows
	report.Summary = result.Summary
	report.GeneratedAt = s.clock.Now()

	span.SetAttributes(obstracing.SafeAttributes(
		attribute.Int("report.documents", result.Summary.Documents),
		attribute.Int("report.rows", len(result.Rows)),
		attribute.Int("report.dropped", result.Summary.Dropped),
	)...)
	if result.Summary.Dropped > 0 || result.Summary.Skipped > 0 {
		log.Warn("report left entries out",
			zap.Int("dropped", result.Summary.Dropped),
			zap.Int("skipped", result.Summary.Skipped),
		)
	}
	log.Info("report built",
		zap.Int("documents", result.Summary.Documents),
		zap.Int("entries", result.Summary.Entries),
		zap.Int("rows", len(result.Rows)),
		zap.String("total", result.Summary.Total.String()),
		zap.Duration("elapsed", time.Since(start)),
	)

	s.observeRun(ctx, kind, variant, obsmetrics.ReportOutcomeOK, time.Since(start), report)
	return report, nil
}

// fetch loads documents and the taxonomy concurrently. Either failure fails
// the run. A missing taxonomy yields an empty report rather than an error.
func (s *Service) fetch(ctx context.Context, kind taxonomydomain.Kind, branch string, axis engine.Axis) ([]domain.Document, *taxonomydomain.Taxonomy, error) {
	first, _ := time.Parse(domain.DateLayout, axis.First())
	last, _ := time.Parse(domain.DateLayout, axis.Last())

	var (
		docs     []domain.Document
		taxonomy *taxonomydomain.Taxonomy
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := s.documents.ListDocuments(gctx, domain.DocumentQuery{
			Kind:   kind,
			Branch: branch,
			Start:  first,
			End:    last,
		})
		if err != nil {
			s.reportMetrics.IncSourceError("documents", err)
			return fmt.Errorf("%w: list documents: %w", domain.ErrSourceFailure, err)
		}
		docs = out
		return nil
	})
	g.Go(func() error {
		out, err := s.taxonomy.Taxonomy(gctx, kind)
		if errors.Is(err, taxonomydomain.ErrNotFound) {
			s.log.Warn("no taxonomy configured", zap.String("kind", string(kind)))
			return nil
		}
		if err != nil {
			s.reportMetrics.IncSourceError("taxonomy", err)
			return fmt.Errorf("%w: load taxonomy: %w", domain.ErrSourceFailure, err)
		}
		taxonomy = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return docs, taxonomy, nil
}

func (s *Service) observeRun(ctx context.Context, kind taxonomydomain.Kind, variant, outcome string, elapsed time.Duration, report *domain.Report) {
	rows := 0
	if report != nil {
		rows = len(report.Rows)
		s.metrics.RecordDroppedEntries(ctx, string(kind), report.Summary.Dropped)
	}
	s.metrics.RecordReportRun(ctx, string(kind), variant, outcome, elapsed)
	s.reportMetrics.ObserveRun(string(kind), variant, outcome, elapsed, rows)
}

func (s *Service) observeInvalid(kind, variant string) {
	s.reportMetrics.ObserveRun(strings.ToLower(strings.TrimSpace(kind)), variant, obsmetrics.ReportOutcomeInvalid, 0, 0)
}

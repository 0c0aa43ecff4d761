package server

import (
	"context"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/backoffice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/backoffice/internal/observability/metrics"
	"github.com/smallbiznis/backoffice/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	rateLimitReasonReportRate = "report-rate"
	rateLimitReasonExportRate = "export-rate"
	rateLimitReasonExportBusy = "export-in-progress"
)

// reportLimiter is satisfied by *ratelimit.ReportLimiter.
type reportLimiter interface {
	AllowReport(ctx context.Context, branch string) (*ratelimit.RateLimitResult, error)
	AllowExport(ctx context.Context, branch string) (*ratelimit.RateLimitResult, error)
	TryLockExport(ctx context.Context, branch string) (string, bool, error)
	ReleaseExport(ctx context.Context, branch, token string) error
}

// ReportRateLimit throttles report runs per branch. Requests without a branch
// pass through and fail validation in the handler.
func (s *Server) ReportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		branch := reportBranch(c)
		if s.limiter == nil || branch == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		result, err := s.limiter.AllowReport(ctx, branch)
		if err != nil {
			logger.FromContext(ctx).Warn("report rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			denyRateLimit(c, endpoint, branch, rateLimitReasonReportRate, result, s.obsMetrics)
			return
		}

		recordRateLimitAllowed(ctx, endpoint, branch, s.obsMetrics)
		c.Next()
	}
}

// ExportRateLimit throttles workbook exports per branch and lets only one
// export per branch run at a time.
func (s *Server) ExportRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		branch := reportBranch(c)
		if s.limiter == nil || branch == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		endpoint := normalizeRateLimitEndpoint(c)

		result, err := s.limiter.AllowExport(ctx, branch)
		if err != nil {
			log.Warn("export rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			denyRateLimit(c, endpoint, branch, rateLimitReasonExportRate, result, s.obsMetrics)
			return
		}

		token, locked, err := s.limiter.TryLockExport(ctx, branch)
		if err != nil {
			log.Warn("export lock failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !locked {
			denyRateLimit(c, endpoint, branch, rateLimitReasonExportBusy, nil, s.obsMetrics)
			return
		}
		defer func() {
			if err := s.limiter.ReleaseExport(context.WithoutCancel(ctx), branch, token); err != nil {
				log.Warn("export unlock failed", zap.Error(err))
			}
		}()

		recordRateLimitAllowed(ctx, endpoint, branch, s.obsMetrics)
		c.Next()
	}
}

func denyRateLimit(c *gin.Context, endpoint, branch, reason string, result *ratelimit.RateLimitResult, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("report rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	metrics.RecordRateLimitDenied(ctx, branch, endpoint, reason)

	retryAfter := 1
	if result != nil && result.RetryAfter > 0 {
		retryAfter = int(math.Ceil(result.RetryAfter.Seconds()))
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	if result != nil && result.Limit > 0 {
		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	}
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimitAllowed(ctx context.Context, endpoint, branch string, metrics *obsmetrics.Metrics) {
	metrics.RecordRateLimitAllowed(ctx, branch, endpoint)
}

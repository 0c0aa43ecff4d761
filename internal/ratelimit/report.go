package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/backoffice/internal/config"
)

const (
	keyReportBranch = "report:run:branch:%s"
	keyExportBranch = "report:export:branch:%s"
	keyExportLock   = "report:export:lock:%s"
)

type exportLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// ReportLimiter throttles report runs and exports per branch. A nil limiter
// allows everything.
type ReportLimiter struct {
	bucket Bucket
	locker exportLocker

	reportRate  float64
	reportBurst int
	exportRate  float64
	exportBurst int
	lockTTL     time.Duration
}

func NewReportLimiter(cfg config.Config) (*ReportLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})
	return newReportLimiter(limitCfg, NewTokenBucket(client), NewLocker(client))
}

func newReportLimiter(limitCfg config.RateLimitConfig, bucket Bucket, locker exportLocker) (*ReportLimiter, error) {
	if limitCfg.ReportRate <= 0 || limitCfg.ReportBurst <= 0 {
		return nil, errors.New("report rate limit must be positive")
	}
	if limitCfg.ExportRate <= 0 || limitCfg.ExportBurst <= 0 {
		return nil, errors.New("export rate limit must be positive")
	}
	lockTTL := time.Duration(limitCfg.ExportLockTTLSeconds) * time.Second
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}

	return &ReportLimiter{
		bucket:      bucket,
		locker:      locker,
		reportRate:  limitCfg.ReportRate,
		reportBurst: limitCfg.ReportBurst,
		exportRate:  limitCfg.ExportRate,
		exportBurst: limitCfg.ExportBurst,
		lockTTL:     lockTTL,
	}, nil
}

func (l *ReportLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *ReportLimiter) AllowReport(ctx context.Context, branch string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, branchKey(keyReportBranch, branch), l.reportRate, l.reportBurst)
}

func (l *ReportLimiter) AllowExport(ctx context.Context, branch string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, branchKey(keyExportBranch, branch), l.exportRate, l.exportBurst)
}

// TryLockExport serializes workbook generation per branch.
func (l *ReportLimiter) TryLockExport(ctx context.Context, branch string) (string, bool, error) {
	if !l.Enabled() || l.locker == nil {
		return "", true, nil
	}
	return l.locker.TryLock(ctx, branchKey(keyExportLock, branch), l.lockTTL)
}

func (l *ReportLimiter) ReleaseExport(ctx context.Context, branch, token string) error {
	if !l.Enabled() || l.locker == nil {
		return nil
	}
	return l.locker.Release(ctx, branchKey(keyExportLock, branch), token)
}

func branchKey(format, branch string) string {
	return fmt.Sprintf(format, strings.ToUpper(strings.TrimSpace(branch)))
}

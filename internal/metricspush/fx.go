package metricspush

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/backoffice/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Invoke(register),
)

// Loop pushes on every tick and once more on Stop so the last report runs
// of a short-lived process are not lost.
type Loop struct {
	pusher   Pusher
	gatherer prometheus.Gatherer
	interval time.Duration
	log      *zap.Logger

	stop chan struct{}
	done chan struct{}
	// failing suppresses repeated warnings until a push succeeds.
	failing bool
}

func NewLoop(pusher Pusher, gatherer prometheus.Gatherer, interval time.Duration, log *zap.Logger) *Loop {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{pusher: pusher, gatherer: gatherer, interval: interval, log: log}
}

func (l *Loop) Start() {
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go func() {
		defer close(l.done)
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.pushOnce(context.Background())
			case <-l.stop:
				return
			}
		}
	}()
}

func (l *Loop) Stop(ctx context.Context) error {
	if l.stop == nil {
		return nil
	}
	close(l.stop)
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	l.pushOnce(ctx)
	return nil
}

func (l *Loop) pushOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	if err := l.pusher.Push(ctx, l.gatherer); err != nil {
		if !l.failing {
			l.log.Warn("metrics push failed", zap.Error(err))
		}
		l.failing = true
		return
	}
	if l.failing {
		l.log.Info("metrics push recovered")
	}
	l.failing = false
}

func register(lc fx.Lifecycle, cfg config.Config, pusher Pusher, log *zap.Logger) {
	if pusher == nil {
		return
	}
	interval := time.Duration(cfg.MetricsPush.IntervalSeconds) * time.Second
	loop := NewLoop(pusher, prometheus.DefaultGatherer, interval, log.Named("metrics.push"))
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			loop.Start()
			log.Info("metrics push enabled",
				zap.String("exporter", cfg.MetricsPush.Exporter),
				zap.Duration("interval", loop.interval),
			)
			return nil
		},
		OnStop: loop.Stop,
	})
}

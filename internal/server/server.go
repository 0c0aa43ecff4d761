package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/backoffice/internal/config"
	"github.com/smallbiznis/backoffice/internal/observability"
	obsmiddleware "github.com/smallbiznis/backoffice/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/backoffice/internal/observability/metrics"
	obstracing "github.com/smallbiznis/backoffice/internal/observability/tracing"
	"github.com/smallbiznis/backoffice/internal/ratelimit"
	"github.com/smallbiznis/backoffice/internal/summary"
	summarydomain "github.com/smallbiznis/backoffice/internal/summary/domain"
	"github.com/smallbiznis/backoffice/internal/taxonomy"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	taxonomy.Module,
	summary.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	summarySvc  summarydomain.Service
	orderSvc    summarydomain.OrderService
	taxonomySvc taxonomydomain.Service
	limiter     reportLimiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	SummarySvc  summarydomain.Service
	OrderSvc    summarydomain.OrderService
	TaxonomySvc taxonomydomain.Service
	Limiter     *ratelimit.ReportLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		summarySvc:  p.SummarySvc,
		orderSvc:    p.OrderSvc,
		taxonomySvc: p.TaxonomySvc,
		obsMetrics:  p.ObsMetrics,
	}
	if p.Limiter != nil {
		svc.limiter = p.Limiter
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	finance := s.engine.Group("/api/finance")

	// -------- Summary reports --------
	summary := finance.Group("/summary/:kind")
	{
		summary.GET("/daily", s.ReportRateLimit(), s.GetDailySummary)
		summary.GET("/monthly", s.ReportRateLimit(), s.GetMonthlySummary)
		summary.GET("/daily/export", s.ExportRateLimit(), s.ExportDailySummary)
		summary.GET("/monthly/export", s.ExportRateLimit(), s.ExportMonthlySummary)
	}

	// -------- Orders --------
	finance.GET("/orders", s.ListOrders)
	finance.POST("/orders", s.CreateOrder)
	finance.GET("/orders/:id", s.GetOrderByID)
	finance.DELETE("/orders/:id", s.DeleteOrder)

	// -------- Taxonomy --------
	finance.GET("/taxonomy/:kind", s.GetTaxonomy)
	finance.PUT("/taxonomy/:kind", s.ReplaceTaxonomy)
}

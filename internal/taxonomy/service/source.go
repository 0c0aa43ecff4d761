package service

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/backoffice/internal/cache"
	"github.com/smallbiznis/backoffice/internal/config"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type SourceParams struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Repo   taxonomydomain.Repository
	Cache  cache.TaxonomyCache
	Holder *config.TaxonomyHolder
}

// NewSource picks the taxonomy source report runs read from.
func NewSource(p SourceParams) taxonomydomain.Source {
	if p.Cfg.Report.TaxonomySource == config.TaxonomySourceFile {
		p.Log.Named("taxonomy.source").Info("using file taxonomy source")
		return NewFileSource(p.Holder)
	}
	return NewDatabaseSource(p.Repo, p.Cache, p.Log)
}

func NewCache(cfg config.Config) cache.TaxonomyCache {
	return cache.NewTaxonomyCache(time.Duration(cfg.Report.TaxonomyCacheTTLSeconds) * time.Second)
}

type databaseSource struct {
	repo  taxonomydomain.Repository
	cache cache.TaxonomyCache
	log   *zap.Logger
}

func NewDatabaseSource(repo taxonomydomain.Repository, c cache.TaxonomyCache, log *zap.Logger) taxonomydomain.Source {
	return &databaseSource{repo: repo, cache: c, log: log.Named("taxonomy.source")}
}

func (s *databaseSource) Taxonomy(ctx context.Context, kind taxonomydomain.Kind) (*taxonomydomain.Taxonomy, error) {
	if s.cache != nil {
		if taxonomy, ok := s.cache.Get(kind); ok {
			return taxonomy, nil
		}
	}

	taxonomy, err := s.repo.Load(ctx, kind)
	if err != nil {
		if errors.Is(err, taxonomydomain.ErrNotFound) {
			return nil, err
		}
		s.log.Warn("failed to load taxonomy", zap.String("kind", string(kind)), zap.Error(err))
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(kind, taxonomy)
	}
	return taxonomy, nil
}

type fileSource struct {
	holder *config.TaxonomyHolder
}

func NewFileSource(holder *config.TaxonomyHolder) taxonomydomain.Source {
	return &fileSource{holder: holder}
}

func (s *fileSource) Taxonomy(_ context.Context, kind taxonomydomain.Kind) (*taxonomydomain.Taxonomy, error) {
	if s.holder == nil {
		return nil, taxonomydomain.ErrSourceNotConfig
	}
	taxonomy, ok := s.holder.Get(kind)
	if !ok {
		return nil, taxonomydomain.ErrNotFound
	}
	return taxonomy, nil
}

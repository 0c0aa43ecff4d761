package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/backoffice/internal/cache"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Repo   taxonomydomain.Repository
	Cache  cache.TaxonomyCache
	Source taxonomydomain.Source
}

type Service struct {
	log    *zap.Logger
	repo   taxonomydomain.Repository
	cache  cache.TaxonomyCache
	source taxonomydomain.Source
}

func New(p Params) taxonomydomain.Service {
	return &Service{
		log:    p.Log.Named("taxonomy.service"),
		repo:   p.Repo,
		cache:  p.Cache,
		source: p.Source,
	}
}

// Get returns the taxonomy report runs currently see for kind.
func (s *Service) Get(ctx context.Context, kind string) (*taxonomydomain.Taxonomy, error) {
	k, err := taxonomydomain.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return s.source.Taxonomy(ctx, k)
}

func (s *Service) Replace(ctx context.Context, req taxonomydomain.ReplaceRequest) (*taxonomydomain.Taxonomy, error) {
	k, err := taxonomydomain.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}

	taxonomy := &taxonomydomain.Taxonomy{Kind: k, Sections: make([]taxonomydomain.Section, 0, len(req.Sections))}
	for _, section := range req.Sections {
		items := make([]taxonomydomain.Item, 0, len(section.Items))
		for _, item := range section.Items {
			items = append(items, taxonomydomain.Item{
				Key:       strings.TrimSpace(item.Key),
				Label:     strings.TrimSpace(item.Label),
				Deduction: item.Deduction,
			})
		}
		taxonomy.Sections = append(taxonomy.Sections, taxonomydomain.Section{
			Key:   strings.TrimSpace(section.Key),
			Label: strings.TrimSpace(section.Label),
			Items: items,
		})
	}
	if err := taxonomy.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Replace(ctx, taxonomy); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(k)
	}

	s.log.Info("taxonomy replaced",
		zap.String("kind", string(k)),
		zap.Int("sections", len(taxonomy.Sections)),
	)
	return taxonomy, nil
}

package cache

import (
	"strings"
	"time"

	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

const defaultTaxonomyTTL = 5 * time.Minute

// TaxonomyCache keeps taxonomy snapshots between report runs.
type TaxonomyCache interface {
	Get(kind taxonomydomain.Kind) (*taxonomydomain.Taxonomy, bool)
	Set(kind taxonomydomain.Kind, taxonomy *taxonomydomain.Taxonomy)
	Invalidate(kind taxonomydomain.Kind)
}

type taxonomyCache struct {
	entries Cache[string, *taxonomydomain.Taxonomy]
	ttl     time.Duration
}

// NewTaxonomyCache returns an in-memory taxonomy cache. ttl <= 0 uses the default.
func NewTaxonomyCache(ttl time.Duration) TaxonomyCache {
	if ttl <= 0 {
		ttl = defaultTaxonomyTTL
	}
	return &taxonomyCache{
		entries: NewTTLCache[string, *taxonomydomain.Taxonomy](),
		ttl:     ttl,
	}
}

func (c *taxonomyCache) Get(kind taxonomydomain.Kind) (*taxonomydomain.Taxonomy, bool) {
	taxonomy, ok := c.entries.Get(cacheKey("taxonomy", string(kind)))
	if !ok {
		return nil, false
	}
	return taxonomy.Clone(), true
}

func (c *taxonomyCache) Set(kind taxonomydomain.Kind, taxonomy *taxonomydomain.Taxonomy) {
	if taxonomy == nil {
		return
	}
	c.entries.Set(cacheKey("taxonomy", string(kind)), taxonomy.Clone(), c.ttl)
}

func (c *taxonomyCache) Invalidate(kind taxonomydomain.Kind) {
	c.entries.Delete(cacheKey("taxonomy", string(kind)))
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}

package domain

import "context"

type Repository interface {
	Load(ctx context.Context, kind Kind) (*Taxonomy, error)
	Replace(ctx context.Context, taxonomy *Taxonomy) error
}

// Source supplies the taxonomy snapshot used by one report run.
type Source interface {
	Taxonomy(ctx context.Context, kind Kind) (*Taxonomy, error)
}

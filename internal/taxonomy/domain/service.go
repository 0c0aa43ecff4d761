package domain

import "context"

// Service manages the stored taxonomies.
type Service interface {
	Get(ctx context.Context, kind string) (*Taxonomy, error)
	Replace(ctx context.Context, req ReplaceRequest) (*Taxonomy, error)
}

type ReplaceRequest struct {
	Kind     string    `json:"-"`
	Sections []Section `json:"sections"`
}

package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

// DocumentQuery selects the documents a branch report needs: the branch's
// own documents plus documents of other branches with lines paid to it.
type DocumentQuery struct {
	Kind   taxonomydomain.Kind
	Branch string
	Start  time.Time
	End    time.Time
}

// DocumentSource is the read side consumed by report runs.
type DocumentSource interface {
	ListDocuments(ctx context.Context, query DocumentQuery) ([]Document, error)
}

// OrderFilter pages through a branch's own orders by ascending ID.
type OrderFilter struct {
	Kind    taxonomydomain.Kind
	Branch  string
	AfterID snowflake.ID
	Limit   int
}

type Repository interface {
	DocumentSource
	CreateOrder(ctx context.Context, order *Order) error
	FindOrder(ctx context.Context, id snowflake.ID) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	SoftDeleteOrder(ctx context.Context, id snowflake.ID) error
}

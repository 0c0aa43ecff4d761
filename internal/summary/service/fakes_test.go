package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

type fakeRepo struct {
	mu      sync.Mutex
	docs    []domain.Document
	docsErr error
	queries []domain.DocumentQuery
	orders  map[snowflake.ID]domain.Order
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[snowflake.ID]domain.Order{}}
}

func (r *fakeRepo) ListDocuments(_ context.Context, query domain.DocumentQuery) ([]domain.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, query)
	if r.docsErr != nil {
		return nil, r.docsErr
	}
	return r.docs, nil
}

func (r *fakeRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = *order
	return nil
}

func (r *fakeRepo) FindOrder(_ context.Context, id snowflake.ID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.DeletedAt.Valid {
		return nil, domain.ErrNotFound
	}
	return &order, nil
}

func (r *fakeRepo) ListOrders(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Order
	for _, order := range r.orders {
		if order.DeletedAt.Valid || !strings.EqualFold(order.BranchCode, filter.Branch) {
			continue
		}
		if filter.Kind != "" && order.Kind != filter.Kind {
			continue
		}
		if order.ID <= filter.AfterID {
			continue
		}
		out = append(out, order)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *fakeRepo) SoftDeleteOrder(_ context.Context, id snowflake.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.DeletedAt.Valid {
		return domain.ErrNotFound
	}
	order.DeletedAt.Valid = true
	r.orders[id] = order
	return nil
}

type fakeTaxonomy struct {
	taxonomy *taxonomydomain.Taxonomy
	err      error
	calls    int
}

func (f *fakeTaxonomy) Taxonomy(_ context.Context, _ taxonomydomain.Kind) (*taxonomydomain.Taxonomy, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.taxonomy.Clone(), nil
}

func officeTaxonomy() *taxonomydomain.Taxonomy {
	return &taxonomydomain.Taxonomy{
		Kind: taxonomydomain.KindExpense,
		Sections: []taxonomydomain.Section{
			{
				Key:   "office",
				Label: "Office expenses",
				Items: []taxonomydomain.Item{
					{Key: "rent", Label: "Rent"},
					{Key: "utilities", Label: "Utilities"},
				},
			},
		},
	}
}

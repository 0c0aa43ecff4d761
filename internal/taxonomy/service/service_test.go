package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/backoffice/internal/cache"
	"github.com/smallbiznis/backoffice/internal/config"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepository struct {
	stored   map[taxonomydomain.Kind]*taxonomydomain.Taxonomy
	loads    int
	loadErr  error
	replaced *taxonomydomain.Taxonomy
}

func (r *fakeRepository) Load(_ context.Context, kind taxonomydomain.Kind) (*taxonomydomain.Taxonomy, error) {
	r.loads++
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	t, ok := r.stored[kind]
	if !ok {
		return nil, taxonomydomain.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *fakeRepository) Replace(_ context.Context, t *taxonomydomain.Taxonomy) error {
	r.replaced = t
	if r.stored == nil {
		r.stored = map[taxonomydomain.Kind]*taxonomydomain.Taxonomy{}
	}
	r.stored[t.Kind] = t.Clone()
	return nil
}

func sampleTaxonomy(label string) *taxonomydomain.Taxonomy {
	return &taxonomydomain.Taxonomy{
		Kind: taxonomydomain.KindExpense,
		Sections: []taxonomydomain.Section{
			{Key: "office", Label: label, Items: []taxonomydomain.Item{{Key: "rent", Label: "Rent"}}},
		},
	}
}

func TestDatabaseSourceCachesSnapshots(t *testing.T) {
	repo := &fakeRepository{stored: map[taxonomydomain.Kind]*taxonomydomain.Taxonomy{
		taxonomydomain.KindExpense: sampleTaxonomy("Office"),
	}}
	source := NewDatabaseSource(repo, cache.NewTaxonomyCache(time.Minute), zap.NewNop())

	first, err := source.Taxonomy(context.Background(), taxonomydomain.KindExpense)
	require.NoError(t, err)
	first.Sections[0].Label = "mutated"

	second, err := source.Taxonomy(context.Background(), taxonomydomain.KindExpense)
	require.NoError(t, err)
	assert.Equal(t, "Office", second.Sections[0].Label)
	assert.Equal(t, 1, repo.loads)
}

func TestDatabaseSourcePropagatesErrors(t *testing.T) {
	boom := errors.New("connection refused")
	source := NewDatabaseSource(&fakeRepository{loadErr: boom}, nil, zap.NewNop())

	_, err := source.Taxonomy(context.Background(), taxonomydomain.KindExpense)
	assert.ErrorIs(t, err, boom)
}

func TestFileSource(t *testing.T) {
	source := NewFileSource(config.NewStaticTaxonomyHolder(sampleTaxonomy("Office")))

	got, err := source.Taxonomy(context.Background(), taxonomydomain.KindExpense)
	require.NoError(t, err)
	assert.Equal(t, "Office", got.Sections[0].Label)

	_, err = source.Taxonomy(context.Background(), taxonomydomain.KindIncome)
	assert.ErrorIs(t, err, taxonomydomain.ErrNotFound)

	_, err = NewFileSource(nil).Taxonomy(context.Background(), taxonomydomain.KindIncome)
	assert.ErrorIs(t, err, taxonomydomain.ErrSourceNotConfig)
}

func TestNewSourceFollowsConfig(t *testing.T) {
	cfg := config.Config{}
	cfg.Report.TaxonomySource = config.TaxonomySourceFile

	source := NewSource(SourceParams{
		Cfg:    cfg,
		Log:    zap.NewNop(),
		Holder: config.NewStaticTaxonomyHolder(sampleTaxonomy("From file")),
		Repo:   &fakeRepository{},
	})
	got, err := source.Taxonomy(context.Background(), taxonomydomain.KindExpense)
	require.NoError(t, err)
	assert.Equal(t, "From file", got.Sections[0].Label)
}

func TestReplaceInvalidatesCache(t *testing.T) {
	repo := &fakeRepository{stored: map[taxonomydomain.Kind]*taxonomydomain.Taxonomy{
		taxonomydomain.KindExpense: sampleTaxonomy("Old"),
	}}
	c := cache.NewTaxonomyCache(time.Hour)
	source := NewDatabaseSource(repo, c, zap.NewNop())
	svc := New(Params{Log: zap.NewNop(), Repo: repo, Cache: c, Source: source})

	got, err := svc.Get(context.Background(), "expense")
	require.NoError(t, err)
	assert.Equal(t, "Old", got.Sections[0].Label)

	_, err = svc.Replace(context.Background(), taxonomydomain.ReplaceRequest{
		Kind: " Expense ",
		Sections: []taxonomydomain.Section{
			{Key: " office ", Label: " New ", Items: []taxonomydomain.Item{{Key: "rent", Label: "Rent"}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "office", repo.replaced.Sections[0].Key)

	got, err = svc.Get(context.Background(), "expense")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Sections[0].Label)
}

func TestReplaceValidates(t *testing.T) {
	svc := New(Params{Log: zap.NewNop(), Repo: &fakeRepository{}, Source: NewFileSource(nil)})

	_, err := svc.Replace(context.Background(), taxonomydomain.ReplaceRequest{Kind: "assets"})
	assert.ErrorIs(t, err, taxonomydomain.ErrInvalidKind)

	_, err = svc.Replace(context.Background(), taxonomydomain.ReplaceRequest{
		Kind:     "income",
		Sections: []taxonomydomain.Section{{Key: "", Label: "Nameless"}},
	})
	assert.ErrorIs(t, err, taxonomydomain.ErrInvalidSection)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, taxonomydomain.ErrInvalidKind)
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"github.com/smallbiznis/backoffice/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo domain.Repository
	node *snowflake.Node
}

func setup(t *testing.T) fixture {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Order{}, &domain.OrderItem{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return fixture{repo: Provide(conn), node: node}
}

func day(raw string) time.Time {
	t, _ := time.Parse(domain.DateLayout, raw)
	return t
}

func (f fixture) order(t *testing.T, kind taxonomydomain.Kind, branch, date string, items ...domain.OrderItem) *domain.Order {
	t.Helper()

	order := &domain.Order{
		ID:         f.node.Generate(),
		Kind:       kind,
		BranchCode: branch,
		DocDate:    day(date),
		Category:   "office",
		Type:       domain.TypeGeneral,
	}
	for i := range items {
		items[i].ID = f.node.Generate()
		items[i].Position = i
	}
	order.Items = items
	require.NoError(t, f.repo.CreateOrder(context.Background(), order))
	return order
}

func item(amount int64, payTo string) domain.OrderItem {
	return domain.OrderItem{
		Amount:        domain.AmountFromInt(amount),
		TaxTreatment:  domain.TaxNone,
		CategoryID:    "office",
		AccountNameID: "rent",
		PayToBranch:   payTo,
	}
}

func TestListDocumentsSelectsBranchPeriodAndKind(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	own := f.order(t, taxonomydomain.KindExpense, "BKK", "2024-03-02", item(100, ""), item(5, ""))
	paidToUs := f.order(t, taxonomydomain.KindExpense, "CNX", "2024-03-03", item(200, "bkk"))
	f.order(t, taxonomydomain.KindExpense, "CNX", "2024-03-03", item(300, ""))
	f.order(t, taxonomydomain.KindExpense, "BKK", "2024-04-01", item(1, ""))
	f.order(t, taxonomydomain.KindIncome, "BKK", "2024-03-02", item(1, ""))

	docs, err := f.repo.ListDocuments(ctx, domain.DocumentQuery{
		Kind:   taxonomydomain.KindExpense,
		Branch: "BKK",
		Start:  day("2024-03-01"),
		End:    day("2024-03-31"),
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, own.ID.String(), docs[0].ID)
	assert.Equal(t, "2024-03-02", docs[0].Date)
	require.Len(t, docs[0].Items, 2)
	assert.True(t, docs[0].Items[0].Amount.Equal(domain.AmountFromInt(100).Decimal))
	assert.Equal(t, "rent", docs[0].Items[0].AccountNameID)

	assert.Equal(t, paidToUs.ID.String(), docs[1].ID)
	assert.Equal(t, "bkk", docs[1].Items[0].PayToBranch)
}

func TestSoftDeleteHidesOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	order := f.order(t, taxonomydomain.KindExpense, "BKK", "2024-03-02", item(100, ""))
	require.NoError(t, f.repo.SoftDeleteOrder(ctx, order.ID))

	_, err := f.repo.FindOrder(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	docs, err := f.repo.ListDocuments(ctx, domain.DocumentQuery{
		Kind:   taxonomydomain.KindExpense,
		Branch: "BKK",
		Start:  day("2024-03-01"),
		End:    day("2024-03-31"),
	})
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.ErrorIs(t, f.repo.SoftDeleteOrder(ctx, order.ID), domain.ErrNotFound)
}

func TestFindOrderLoadsItems(t *testing.T) {
	f := setup(t)
	order := f.order(t, taxonomydomain.KindIncome, "BKK", "2024-03-02", item(10, ""), item(20, "CNX"))

	found, err := f.repo.FindOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, order.ID, found.Items[1].OrderID)
	assert.Equal(t, "CNX", found.Items[1].PayToBranch)
}

func TestListOrdersPagesByID(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.order(t, taxonomydomain.KindExpense, "BKK", "2024-03-01", item(1, ""))
	second := f.order(t, taxonomydomain.KindExpense, "BKK", "2024-03-02", item(2, ""))
	f.order(t, taxonomydomain.KindExpense, "CNX", "2024-03-02", item(3, ""))

	page, err := f.repo.ListOrders(ctx, domain.OrderFilter{Branch: "bkk", Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	page, err = f.repo.ListOrders(ctx, domain.OrderFilter{Branch: "BKK", AfterID: first.ID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)
}

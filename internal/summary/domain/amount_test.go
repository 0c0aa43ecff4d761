package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountUnmarshalLenient(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: `12.5`, want: "12.5"},
		{raw: `"12.5"`, want: "12.5"},
		{raw: `"1,250.00"`, want: "1250"},
		{raw: `null`, want: "0"},
		{raw: `""`, want: "0"},
		{raw: `"abc"`, want: "0"},
		{raw: `-3`, want: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var item struct {
				Amount Amount `json:"amount"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"amount":`+tt.raw+`}`), &item))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(item.Amount.Decimal), item.Amount.String())
		})
	}
}

func TestAmountScan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan(nil))
	assert.True(t, a.IsZero())
	require.NoError(t, a.Scan([]byte("10.2500")))
	assert.Equal(t, "10.25", a.String())
	require.NoError(t, a.Scan(int64(7)))
	assert.Equal(t, "7", a.String())
	assert.Error(t, a.Scan(struct{}{}))
}

func TestNetAmount(t *testing.T) {
	rate := decimal.RequireFromString("0.07")

	tests := []struct {
		name string
		kind taxonomydomain.Kind
		item LineItem
		want string
	}{
		{
			name: "separate vat with withholding",
			kind: taxonomydomain.KindExpense,
			item: LineItem{Amount: AmountFromInt(100), TaxTreatment: TaxSeparateVAT, Vat: AmountFromInt(7), WithholdingTax: AmountFromInt(3)},
			want: "104",
		},
		{
			name: "inclusive ignores vat",
			kind: taxonomydomain.KindExpense,
			item: LineItem{Amount: AmountFromInt(100), TaxTreatment: TaxInclusive, Vat: AmountFromInt(7)},
			want: "100",
		},
		{
			name: "derived vat",
			kind: taxonomydomain.KindExpense,
			item: LineItem{Amount: NewAmount("250.50"), TaxTreatment: "separate"},
			want: "268.04",
		},
		{
			name: "income keeps withholding",
			kind: taxonomydomain.KindIncome,
			item: LineItem{Amount: AmountFromInt(100), WithholdingTax: AmountFromInt(3)},
			want: "100",
		},
		{
			name: "unknown kind keeps withholding",
			kind: "",
			item: LineItem{Amount: AmountFromInt(100), WithholdingTax: AmountFromInt(3)},
			want: "100",
		},
		{
			name: "zero vat on separate line is derived",
			kind: taxonomydomain.KindIncome,
			item: LineItem{Amount: AmountFromInt(100), TaxTreatment: TaxSeparateVAT, Vat: AmountFromInt(0)},
			want: "107",
		},
		{
			name: "no vat treatment adds nothing",
			kind: taxonomydomain.KindIncome,
			item: LineItem{Amount: AmountFromInt(100), TaxTreatment: TaxNone},
			want: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.item.NetAmount(tt.kind, rate)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), got.String())
		})
	}
}

func TestCellsArithmetic(t *testing.T) {
	cells := NewCells(3)
	next := cells.AddAt(1, decimal.NewFromInt(5)).AddAt(1, decimal.NewFromInt(2)).AddAt(9, decimal.NewFromInt(1))

	assert.False(t, cells[1].Valid, "AddAt must not mutate the receiver")
	assert.False(t, next[0].Valid)
	assert.True(t, decimal.NewFromInt(7).Equal(next[1].Decimal))
	assert.True(t, decimal.NewFromInt(14).Equal(next.Plus(next).Sum()))
	assert.True(t, decimal.Zero.Equal(NewCells(0).Sum()))
}

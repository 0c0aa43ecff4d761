package engine

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

func expenseTaxonomy() *taxonomydomain.Taxonomy {
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
			{
				Key:   "vehicle",
				Label: "Vehicle",
				Items: []taxonomydomain.Item{
					{Key: "fuel", Label: "Fuel"},
					{Key: "battery", Label: TitleBattery},
					{Key: "tire", Label: TitleTire},
					{Key: "gps", Label: TitleGPS},
				},
			},
			{
				Key:   "deposit",
				Label: "Deposits",
				Items: []taxonomydomain.Item{
					{Key: "received", Label: "Deposit received"},
					{Key: "refund", Label: "Deposit refund"},
					{Key: "deduct", Label: "Deduct deposit on delivery"},
				},
			},
			{
				Key:   "misc",
				Label: "Miscellaneous",
				Items: []taxonomydomain.Item{
					{Key: "general", Label: "Miscellaneous"},
				},
			},
		},
	}
}

func testAxis() Axis {
	return NewAxis("2024-03-01", "2024-03-03", nil)
}

func line(category, account string, amount int64) domain.LineItem {
	return domain.LineItem{
		CategoryID:    category,
		AccountNameID: account,
		Amount:        domain.AmountFromInt(amount),
	}
}

func expense(id, branch, date string, items ...domain.LineItem) domain.Document {
	return domain.Document{
		ID:         id,
		Kind:       taxonomydomain.KindExpense,
		BranchCode: branch,
		Date:       date,
		Type:       domain.TypeGeneral,
		Items:      items,
	}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func findRows(rows []domain.Row, title string) []domain.Row {
	var out []domain.Row
	for _, row := range rows {
		if row.Title == title && !row.IsSection {
			out = append(out, row)
		}
	}
	return out
}

func findSection(rows []domain.Row, key string) domain.Row {
	for _, row := range rows {
		if row.IsSection && row.SectionKey == key {
			return row
		}
	}
	return domain.Row{}
}

func cellValue(row domain.Row, i int) (decimal.Decimal, bool) {
	if i < 0 || i >= len(row.Cells) || !row.Cells[i].Valid {
		return decimal.Zero, false
	}
	return row.Cells[i].Decimal, true
}

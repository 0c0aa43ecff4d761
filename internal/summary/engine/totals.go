package engine

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
)

// Totalize recomputes section rows from their leaves (deductions subtract)
// and every row's total. It must run after reconciliation.
func Totalize(rows []domain.Row) []domain.Row {
	out := make([]domain.Row, len(rows))
	copy(out, rows)

	for i, row := range out {
		if !row.IsSection {
			continue
		}
		cells := domain.NewCells(len(row.Cells))
		count := 0
		for _, leaf := range rows {
			if leaf.IsSection || leaf.SectionKey != row.SectionKey {
				continue
			}
			count += leaf.Count
			for j := range cells {
				if j >= len(leaf.Cells) || !leaf.Cells[j].Valid {
					continue
				}
				v := leaf.Cells[j].Decimal
				if leaf.IsDeduction {
					v = v.Neg()
				}
				cells = cells.AddAt(j, v)
			}
		}
		out[i].Cells = cells
		out[i].Count = count
	}

	for i := range out {
		out[i].Total = out[i].Cells.Sum()
	}
	return out
}

// summarize builds the per-run accumulator from the finalized rows.
func summarize(rows []domain.Row, columns int) domain.Summary {
	summary := domain.Summary{
		Columns: make([]decimal.Decimal, columns),
		Total:   decimal.Zero,
	}
	for i := range summary.Columns {
		summary.Columns[i] = decimal.Zero
	}
	for _, row := range rows {
		if !row.IsSection {
			continue
		}
		for j, cell := range row.Cells {
			if j < columns && cell.Valid {
				summary.Columns[j] = summary.Columns[j].Add(cell.Decimal)
			}
		}
		summary.Total = summary.Total.Add(row.Total)
	}
	return summary
}

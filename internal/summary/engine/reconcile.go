package engine

import (
	"github.com/smallbiznis/backoffice/internal/summary/domain"
)

// Reconcile folds consolidated entries into the template. Each fold builds a
// fresh row slice; rows are never edited in place. The second result counts
// entries with no matching leaf row.
func Reconcile(rows []domain.Row, items []Consolidated) ([]domain.Row, int) {
	dropped := 0
	for _, item := range items {
		next, ok := fold(rows, item)
		if !ok {
			dropped++
			continue
		}
		rows = next
	}
	return rows, dropped
}

func fold(rows []domain.Row, item Consolidated) ([]domain.Row, bool) {
	first, last, target := -1, -1, -1
	for i, row := range rows {
		if !matches(row, item) {
			continue
		}
		if first < 0 {
			first = i
		}
		// Splits stay in the origin row's section.
		if row.SectionKey == rows[first].SectionKey {
			last = i
		}
		if target < 0 && row.Attribution.SameParty(item.Attribution) {
			target = i
		}
	}
	if first < 0 {
		return rows, false
	}

	out := make([]domain.Row, 0, len(rows)+1)
	for i, row := range rows {
		if i == target {
			row = absorb(row, item)
		}
		out = append(out, row)
		if target < 0 && i == last {
			out = append(out, split(rows[first], item))
		}
	}
	return out, true
}

// matches compares titles on leaf rows; entries resolved at item level must
// also hit the same taxonomy item.
func matches(row domain.Row, item Consolidated) bool {
	if row.IsSection || row.Title != item.Title {
		return false
	}
	if item.ItemKey == "" {
		return true
	}
	return row.SectionKey == item.SectionKey && row.ItemKey == item.ItemKey
}

func absorb(row domain.Row, item Consolidated) domain.Row {
	row.Cells = row.Cells.Plus(item.Cells)
	row.Attribution.Type = item.Attribution.Type
	row.Count += item.Count
	return row
}

func split(origin domain.Row, item Consolidated) domain.Row {
	return domain.Row{
		Title:       origin.Title,
		SectionKey:  origin.SectionKey,
		ItemKey:     origin.ItemKey,
		IsDeduction: origin.IsDeduction,
		Attribution: item.Attribution,
		Cells:       item.Cells.Clone(),
		Count:       item.Count,
	}
}

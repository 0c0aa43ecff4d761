package engine

import (
	"strings"

	"github.com/smallbiznis/backoffice/internal/summary/domain"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

// BuildTemplate lays out the skeleton: for each section its item rows in
// declared order followed by the section row. All cells start null.
func BuildTemplate(taxonomy *taxonomydomain.Taxonomy, axis Axis, opts Options) []domain.Row {
	if taxonomy.Empty() {
		return []domain.Row{}
	}

	size := 0
	for _, section := range taxonomy.Sections {
		size += len(section.Items) + 1
	}

	rows := make([]domain.Row, 0, size)
	for _, section := range taxonomy.Sections {
		for _, item := range section.Items {
			rows = append(rows, domain.Row{
				Title:       item.Label,
				SectionKey:  section.Key,
				ItemKey:     item.Key,
				IsDeduction: item.Deduction || hasDeductionPrefix(item.Label, opts.DeductionPrefixes),
				Cells:       domain.NewCells(axis.Len()),
			})
		}
		rows = append(rows, domain.Row{
			Title:      section.Label,
			IsSection:  true,
			SectionKey: section.Key,
			Cells:      domain.NewCells(axis.Len()),
		})
	}
	return rows
}

func hasDeductionPrefix(label string, prefixes []string) bool {
	title := strings.ToLower(strings.TrimSpace(label))
	for _, prefix := range prefixes {
		p := strings.ToLower(strings.TrimSpace(prefix))
		if p != "" && strings.HasPrefix(title, p) {
			return true
		}
	}
	return false
}

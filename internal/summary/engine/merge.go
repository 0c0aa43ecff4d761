package engine

import (
	"github.com/smallbiznis/backoffice/internal/summary/domain"
)

// Consolidated is the sum of all entries sharing identity and attribution.
type Consolidated struct {
	Title       string
	SectionKey  string
	ItemKey     string
	Attribution domain.Attribution
	BranchCode  string
	Cells       domain.Cells
	Count       int
}

type mergeKey struct {
	identity         string
	otherBranchPay   bool
	payToOtherBranch bool
	paymentType      string
}

// Merge groups entries by (identity, otherBranchPay, payToOtherBranch, type)
// and sums their day cells. Groups keep first-appearance order.
func Merge(entries []Entry, axis Axis) []Consolidated {
	out := make([]Consolidated, 0, len(entries))
	positions := make(map[mergeKey]int, len(entries))

	for _, e := range entries {
		key := mergeKey{
			identity:         e.IdentityKey(),
			otherBranchPay:   e.Attribution.OtherBranchPay,
			payToOtherBranch: e.Attribution.PayToOtherBranch,
			paymentType:      e.Attribution.Type,
		}
		pos, ok := positions[key]
		if !ok {
			pos = len(out)
			positions[key] = pos
			out = append(out, Consolidated{
				Title:       e.Title,
				SectionKey:  e.SectionKey,
				ItemKey:     e.ItemKey,
				Attribution: e.Attribution,
				BranchCode:  e.BranchCode,
				Cells:       domain.NewCells(axis.Len()),
			})
		}
		out[pos].Cells = out[pos].Cells.AddAt(e.DateIndex, e.Amount)
		out[pos].Count++
	}
	return out
}

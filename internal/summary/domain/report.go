package domain

import (
	"time"

	"github.com/shopspring/decimal"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

// Attribution tells which branch bears a cost and which one paid for it.
type Attribution struct {
	// OtherBranchPay: another branch paid on the reporting branch's behalf.
	OtherBranchPay bool `json:"other_branch_pay"`
	// PayToOtherBranch: the reporting branch paid for another branch.
	PayToOtherBranch bool   `json:"pay_to_other_branch"`
	Type             string `json:"type"`
}

// SameParty compares the payer/payee flags only; the payment type is adopted
// on merge and does not split rows.
func (a Attribution) SameParty(b Attribution) bool {
	return a.OtherBranchPay == b.OtherBranchPay && a.PayToOtherBranch == b.PayToOtherBranch
}

// Cells holds one nullable value per date key, positionally aligned with the
// report axis.
type Cells []decimal.NullDecimal

func NewCells(n int) Cells {
	if n <= 0 {
		return Cells{}
	}
	return make(Cells, n)
}

func (c Cells) Clone() Cells {
	out := make(Cells, len(c))
	copy(out, c)
	return out
}

// Plus returns a new Cells with other added per position. A null cell stays
// null only when both sides are null.
func (c Cells) Plus(other Cells) Cells {
	out := c.Clone()
	for i := range out {
		if i >= len(other) || !other[i].Valid {
			continue
		}
		out[i] = addCell(out[i], other[i].Decimal)
	}
	return out
}

// Sum adds every non-null cell.
func (c Cells) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, cell := range c {
		if cell.Valid {
			total = total.Add(cell.Decimal)
		}
	}
	return total
}

func addCell(cell decimal.NullDecimal, v decimal.Decimal) decimal.NullDecimal {
	if !cell.Valid {
		return decimal.NewNullDecimal(v)
	}
	return decimal.NewNullDecimal(cell.Decimal.Add(v))
}

// AddAt returns a copy with v added at position i; out of range is a no-op.
func (c Cells) AddAt(i int, v decimal.Decimal) Cells {
	out := c.Clone()
	if i < 0 || i >= len(out) {
		return out
	}
	out[i] = addCell(out[i], v)
	return out
}

// Row is one line of the summary pivot.
type Row struct {
	Title       string          `json:"title"`
	IsSection   bool            `json:"is_section"`
	SectionKey  string          `json:"section_key"`
	ItemKey     string          `json:"item_key,omitempty"`
	IsDeduction bool            `json:"is_deduction,omitempty"`
	Attribution Attribution     `json:"attribution"`
	Cells       Cells           `json:"cells"`
	Total       decimal.Decimal `json:"total"`
	Count       int             `json:"count"`
}

// Summary is the per-run accumulator returned next to the rows.
type Summary struct {
	// Columns are grand totals per date key across all sections.
	Columns []decimal.Decimal `json:"columns"`
	Total   decimal.Decimal   `json:"total"`

	Documents int `json:"documents"`
	Entries   int `json:"entries"`
	Merged    int `json:"merged"`
	// Dropped entries had no matching taxonomy row.
	Dropped int `json:"dropped"`
	// Skipped documents were malformed (missing branch or date).
	Skipped int `json:"skipped"`
}

type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Month string `json:"month,omitempty"`
}

// Report is the finalized pivot for one branch and period.
type Report struct {
	RunID        string              `json:"run_id"`
	Kind         taxonomydomain.Kind `json:"kind"`
	Branch       string              `json:"branch"`
	Period       Period              `json:"period"`
	Columns      []string            `json:"columns"`
	SummableKeys []string            `json:"summable_keys"`
	Rows         []Row               `json:"rows"`
	Summary      Summary             `json:"summary"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

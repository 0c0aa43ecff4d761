package engine

import (
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

// TotalKey is the summable column holding each row's total.
const TotalKey = "total"

// Result is the output of one pipeline run.
type Result struct {
	Rows    []domain.Row
	Summary domain.Summary
}

// Build runs template -> flatten -> merge -> reconcile -> totals for one
// branch. An empty axis or taxonomy produces an empty report.
func Build(docs []domain.Document, axis Axis, taxonomy *taxonomydomain.Taxonomy, branch string, opts Options) Result {
	if axis.Empty() || taxonomy.Empty() {
		return Result{Rows: []domain.Row{}, Summary: summarize(nil, axis.Len())}
	}
	opts = opts.withDefaults()

	rows := BuildTemplate(taxonomy, axis, opts)
	entries, stats := Flatten(docs, axis, taxonomy, branch, opts)
	merged := Merge(entries, axis)
	rows, dropped := Reconcile(rows, merged)
	rows = Totalize(rows)

	summary := summarize(rows, axis.Len())
	summary.Documents = stats.Documents
	summary.Skipped = stats.Skipped
	summary.Entries = len(entries)
	summary.Merged = len(merged)
	summary.Dropped = dropped

	return Result{Rows: rows, Summary: summary}
}

// SummableKeys lists the numeric columns of a period: every day key, then total.
func SummableKeys(axis Axis) []string {
	keys := axis.Keys()
	return append(keys, TotalKey)
}

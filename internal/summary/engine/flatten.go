package engine

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

// Entry is a single flattened, classified amount on one day.
type Entry struct {
	Title       string
	SectionKey  string
	ItemKey     string
	Attribution domain.Attribution
	BranchCode  string
	DocumentID  string
	LineID      string
	DateIndex   int
	Amount      decimal.Decimal
}

// IdentityKey groups entries for merging: the taxonomy item when the entry
// was resolved at item level, the title otherwise.
func (e Entry) IdentityKey() string {
	if e.ItemKey != "" {
		return "item:" + e.SectionKey + "/" + e.ItemKey
	}
	return "title:" + e.Title
}

// FlattenStats counts what Flatten left out.
type FlattenStats struct {
	Documents int
	Skipped   int
}

// Flatten expands documents into entries for the reporting branch. Lines
// that neither belong to nor are paid to the branch are excluded.
func Flatten(docs []domain.Document, axis Axis, taxonomy *taxonomydomain.Taxonomy, branch string, opts Options) ([]Entry, FlattenStats) {
	opts = opts.withDefaults()
	c := &classifier{index: newLabelIndex(taxonomy), opts: opts}
	reporting := strings.TrimSpace(branch)

	var stats FlattenStats
	entries := make([]Entry, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))

	for _, doc := range docs {
		if doc.Deleted {
			continue
		}
		if id := strings.TrimSpace(doc.ID); id != "" {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}

		owner := strings.TrimSpace(doc.BranchCode)
		key, ok := axis.DayKey(doc.Date)
		if owner == "" || !ok {
			stats.Skipped++
			continue
		}
		stats.Documents++

		day, inPeriod := axis.Index(key)
		if !inPeriod {
			continue
		}

		for _, item := range doc.Items {
			if item.Deleted {
				continue
			}
			payTo := strings.TrimSpace(item.PayToBranch)
			if payTo == "" {
				payTo = owner
			}
			attribution, mine := attribute(reporting, owner, payTo)
			if !mine {
				continue
			}
			attribution.Type = strings.TrimSpace(doc.PaymentType)

			for _, cl := range c.classify(doc, item) {
				entries = append(entries, Entry{
					Title:       cl.title,
					SectionKey:  cl.sectionKey,
					ItemKey:     cl.itemKey,
					Attribution: attribution,
					BranchCode:  owner,
					DocumentID:  doc.ID,
					LineID:      item.ID,
					DateIndex:   day,
					Amount:      cl.amount,
				})
			}
		}
	}
	return entries, stats
}

// attribute derives the payer/payee flags of a line for the reporting
// branch. The second result is false when the line is none of its business.
func attribute(reporting, owner, payTo string) (domain.Attribution, bool) {
	ownerIsMe := strings.EqualFold(owner, reporting)
	payToMe := strings.EqualFold(payTo, reporting)

	switch {
	case ownerIsMe && payToMe:
		return domain.Attribution{}, true
	case payToMe:
		return domain.Attribution{OtherBranchPay: true}, true
	case ownerIsMe:
		return domain.Attribution{PayToOtherBranch: true}, true
	default:
		return domain.Attribution{}, false
	}
}

package engine

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

// labelIndex answers the two taxonomy lookups of the title chain.
type labelIndex struct {
	sections map[string]string
	items    map[itemRef]string
}

type itemRef struct {
	section string
	item    string
}

func newLabelIndex(taxonomy *taxonomydomain.Taxonomy) labelIndex {
	idx := labelIndex{
		sections: map[string]string{},
		items:    map[itemRef]string{},
	}
	if taxonomy == nil {
		return idx
	}
	for _, section := range taxonomy.Sections {
		idx.sections[section.Key] = section.Label
		for _, item := range section.Items {
			idx.items[itemRef{section: section.Key, item: item.Key}] = item.Label
		}
	}
	return idx
}

// classified is a titled amount produced by a resolver.
type classified struct {
	title      string
	sectionKey string
	itemKey    string
	amount     decimal.Decimal
}

type classifier struct {
	index labelIndex
	opts  Options
}

// resolver expands one line of a document into titled amounts.
type resolver func(c *classifier, doc domain.Document, item domain.LineItem) []classified

var resolvers = map[domain.DocumentType]resolver{
	domain.TypeGeneral:     resolveLine,
	domain.TypeOther:       resolveLineAndComponents,
	domain.TypeAccessories: resolveComponents,
}

func (c *classifier) classify(doc domain.Document, item domain.LineItem) []classified {
	r, ok := resolvers[domain.NormalizeDocumentType(doc.Type)]
	if !ok {
		r = resolveLine
	}
	return r(c, doc, item)
}

func resolveLine(c *classifier, doc domain.Document, item domain.LineItem) []classified {
	title, sectionKey, itemKey := c.title(doc, item)
	return []classified{{
		title:      title,
		sectionKey: sectionKey,
		itemKey:    itemKey,
		amount:     item.NetAmount(doc.Kind, c.opts.VATRate),
	}}
}

func resolveComponents(c *classifier, _ domain.Document, item domain.LineItem) []classified {
	components := []struct {
		title  string
		amount domain.Amount
	}{
		{c.opts.ComponentTitles.Battery, item.Battery},
		{c.opts.ComponentTitles.Tire, item.Tire},
		{c.opts.ComponentTitles.GPS, item.GPS},
	}

	out := make([]classified, 0, len(components))
	for _, component := range components {
		if component.amount.IsZero() {
			continue
		}
		out = append(out, classified{title: component.title, amount: component.amount.Decimal})
	}
	return out
}

func resolveLineAndComponents(c *classifier, doc domain.Document, item domain.LineItem) []classified {
	return append(resolveLine(c, doc, item), resolveComponents(c, doc, item)...)
}

// title walks item label -> section label -> unclassified. Only an item-level
// hit carries section and item keys.
func (c *classifier) title(doc domain.Document, item domain.LineItem) (string, string, string) {
	category := strings.TrimSpace(item.CategoryID)
	if category == "" {
		category = strings.TrimSpace(doc.Category)
	}
	account := strings.TrimSpace(item.AccountNameID)

	if label, ok := c.index.items[itemRef{section: category, item: account}]; ok && account != "" {
		return label, category, account
	}
	if label, ok := c.index.sections[category]; ok && category != "" {
		return label, "", ""
	}
	if fallback := strings.TrimSpace(doc.Category); fallback != "" && fallback != category {
		if label, ok := c.index.sections[fallback]; ok {
			return label, "", ""
		}
	}
	return c.opts.UnclassifiedTitle, "", ""
}

package domain

import (
	"strings"
)

// Kind separates the expense and income ledgers. Each kind has its own
// taxonomy and its own summary report.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// ParseKind normalizes raw input into a Kind.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindExpense:
		return KindExpense, nil
	case KindIncome:
		return KindIncome, nil
	default:
		return "", ErrInvalidKind
	}
}

// Item is a named line of a section (an account name).
type Item struct {
	Key   string `json:"key" mapstructure:"key"`
	Label string `json:"label" mapstructure:"label"`
	// Deduction marks rows that are subtracted from the section total
	// (deposit deductions).
	Deduction bool `json:"deduction,omitempty" mapstructure:"deduction"`
}

// Section groups items under a category.
type Section struct {
	Key   string `json:"key" mapstructure:"key"`
	Label string `json:"label" mapstructure:"label"`
	Items []Item `json:"items" mapstructure:"items"`
}

// Taxonomy is the static report structure for one kind. Section and item
// order is the report row order.
type Taxonomy struct {
	Kind     Kind      `json:"kind" mapstructure:"kind"`
	Sections []Section `json:"sections" mapstructure:"sections"`
}

// Validate checks the structural rules the report engine relies on.
func (t *Taxonomy) Validate() error {
	if t == nil {
		return ErrNotFound
	}
	if _, err := ParseKind(string(t.Kind)); err != nil {
		return err
	}
	sections := make(map[string]struct{}, len(t.Sections))
	for _, section := range t.Sections {
		key := strings.TrimSpace(section.Key)
		if key == "" || strings.TrimSpace(section.Label) == "" {
			return ErrInvalidSection
		}
		if _, dup := sections[key]; dup {
			return ErrInvalidSection
		}
		sections[key] = struct{}{}

		items := make(map[string]struct{}, len(section.Items))
		for _, item := range section.Items {
			itemKey := strings.TrimSpace(item.Key)
			if itemKey == "" || strings.TrimSpace(item.Label) == "" {
				return ErrInvalidItem
			}
			if _, dup := items[itemKey]; dup {
				return ErrDuplicateItem
			}
			items[itemKey] = struct{}{}
		}
	}
	return nil
}

// Clone returns a deep copy so cached snapshots cannot be mutated by callers.
func (t *Taxonomy) Clone() *Taxonomy {
	if t == nil {
		return nil
	}
	out := &Taxonomy{Kind: t.Kind, Sections: make([]Section, 0, len(t.Sections))}
	for _, section := range t.Sections {
		items := make([]Item, len(section.Items))
		copy(items, section.Items)
		out.Sections = append(out.Sections, Section{Key: section.Key, Label: section.Label, Items: items})
	}
	return out
}

// Empty reports whether the taxonomy declares no sections.
func (t *Taxonomy) Empty() bool {
	return t == nil || len(t.Sections) == 0
}

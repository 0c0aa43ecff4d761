package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"github.com/smallbiznis/backoffice/pkg/db"
	"gorm.io/gorm"
)

type repository struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewRepository(conn *gorm.DB, genID *snowflake.Node) taxonomydomain.Repository {
	return &repository{db: conn, genID: genID}
}

func (r *repository) Load(ctx context.Context, kind taxonomydomain.Kind) (*taxonomydomain.Taxonomy, error) {
	var sections []taxonomydomain.AccountSection
	if err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("position ASC").
		Order("id ASC").
		Find(&sections).Error; err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, taxonomydomain.ErrNotFound
	}

	sectionIDs := make([]snowflake.ID, 0, len(sections))
	for _, section := range sections {
		sectionIDs = append(sectionIDs, section.ID)
	}

	var items []taxonomydomain.AccountItem
	if err := r.db.WithContext(ctx).
		Where("section_id IN ?", sectionIDs).
		Order("position ASC").
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}

	bySection := make(map[snowflake.ID][]taxonomydomain.Item, len(sections))
	for _, item := range items {
		bySection[item.SectionID] = append(bySection[item.SectionID], taxonomydomain.Item{
			Key:       item.Key,
			Label:     item.Label,
			Deduction: item.Deduction,
		})
	}

	out := &taxonomydomain.Taxonomy{Kind: kind, Sections: make([]taxonomydomain.Section, 0, len(sections))}
	for _, section := range sections {
		out.Sections = append(out.Sections, taxonomydomain.Section{
			Key:   section.Key,
			Label: section.Label,
			Items: bySection[section.ID],
		})
	}
	return out, nil
}

// Replace swaps the whole taxonomy of a kind in one transaction.
func (r *repository) Replace(ctx context.Context, taxonomy *taxonomydomain.Taxonomy) error {
	if err := taxonomy.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`DELETE FROM account_items
			 WHERE section_id IN (SELECT id FROM account_sections WHERE kind = ?)`,
			taxonomy.Kind,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM account_sections WHERE kind = ?`, taxonomy.Kind).Error; err != nil {
			return err
		}

		for i, section := range taxonomy.Sections {
			row := taxonomydomain.AccountSection{
				ID:        r.genID.Generate(),
				Kind:      taxonomy.Kind,
				Key:       section.Key,
				Label:     section.Label,
				Position:  i,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}

			if len(section.Items) == 0 {
				continue
			}
			items := make([]taxonomydomain.AccountItem, 0, len(section.Items))
			for j, item := range section.Items {
				items = append(items, taxonomydomain.AccountItem{
					ID:        r.genID.Generate(),
					SectionID: row.ID,
					Key:       item.Key,
					Label:     item.Label,
					Deduction: item.Deduction,
					Position:  j,
					CreatedAt: now,
					UpdatedAt: now,
				})
			}
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	// Two replaces of the same kind racing on ux_account_sections_kind_key.
	if db.IsDuplicateKeyErr(err) {
		return taxonomydomain.ErrConcurrentWrite
	}
	return err
}

func Provide(conn *gorm.DB, genID *snowflake.Node) taxonomydomain.Repository {
	return NewRepository(conn, genID)
}

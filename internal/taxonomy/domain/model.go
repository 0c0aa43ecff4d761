package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// AccountSection is the persisted form of a taxonomy section.
type AccountSection struct {
	ID       snowflake.ID `gorm:"primaryKey"`
	Kind     Kind         `gorm:"type:text;not null;uniqueIndex:ux_account_sections_kind_key,priority:1"`
	Key      string       `gorm:"type:text;not null;uniqueIndex:ux_account_sections_kind_key,priority:2"`
	Label    string       `gorm:"type:text;not null"`
	Position int          `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AccountSection) TableName() string { return "account_sections" }

// AccountItem is the persisted form of a taxonomy item.
type AccountItem struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	SectionID snowflake.ID `gorm:"column:section_id;not null;index"`
	Key       string       `gorm:"type:text;not null"`
	Label     string       `gorm:"type:text;not null"`
	Deduction bool         `gorm:"not null;default:false"`
	Position  int          `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AccountItem) TableName() string { return "account_items" }

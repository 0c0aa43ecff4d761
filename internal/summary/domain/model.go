package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DateLayout = "2006-01-02"

// Order is the persisted expense/income document.
type Order struct {
	ID          snowflake.ID        `gorm:"primaryKey"`
	Kind        taxonomydomain.Kind `gorm:"type:text;not null;index:idx_finance_orders_kind_date,priority:1"`
	BranchCode  string              `gorm:"column:branch_code;type:text;not null;index"`
	DocDate     time.Time           `gorm:"column:doc_date;type:date;not null;index:idx_finance_orders_kind_date,priority:2"`
	Category    string              `gorm:"type:text"`
	SubCategory string              `gorm:"column:sub_category;type:text"`
	Type        DocumentType        `gorm:"type:text;not null;default:general"`
	PaymentType string              `gorm:"column:payment_type;type:text"`
	Metadata    datatypes.JSONMap   `gorm:"column:metadata"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Order) TableName() string { return "finance_orders" }

// OrderItem is one line of an Order.
type OrderItem struct {
	ID             snowflake.ID `gorm:"primaryKey"`
	OrderID        snowflake.ID `gorm:"column:order_id;not null;index"`
	Position       int          `gorm:"not null;default:0"`
	Amount         Amount       `gorm:"type:numeric(20,4);not null;default:0"`
	TaxTreatment   TaxTreatment `gorm:"column:tax_treatment;type:text;not null;default:none"`
	Vat            Amount       `gorm:"type:numeric(20,4);not null;default:0"`
	WithholdingTax Amount       `gorm:"column:withholding_tax;type:numeric(20,4);not null;default:0"`
	PayToBranch    string       `gorm:"column:pay_to_branch;type:text;index"`
	CategoryID     string       `gorm:"column:category_id;type:text"`
	AccountNameID  string       `gorm:"column:account_name_id;type:text"`
	Battery        Amount       `gorm:"type:numeric(20,4);not null;default:0"`
	Tire           Amount       `gorm:"type:numeric(20,4);not null;default:0"`
	GPS            Amount       `gorm:"column:gps;type:numeric(20,4);not null;default:0"`
	Deleted        bool         `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OrderItem) TableName() string { return "finance_order_items" }

// ToDocument converts the persisted order to the engine's input shape.
func (o *Order) ToDocument() Document {
	doc := Document{
		ID:          o.ID.String(),
		Kind:        o.Kind,
		BranchCode:  strings.TrimSpace(o.BranchCode),
		Date:        o.DocDate.Format(DateLayout),
		Category:    o.Category,
		SubCategory: o.SubCategory,
		Type:        o.Type,
		PaymentType: o.PaymentType,
		Deleted:     o.DeletedAt.Valid,
		Items:       make([]LineItem, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		doc.Items = append(doc.Items, LineItem{
			ID:             item.ID.String(),
			Amount:         item.Amount,
			TaxTreatment:   item.TaxTreatment,
			Vat:            item.Vat,
			WithholdingTax: item.WithholdingTax,
			PayToBranch:    item.PayToBranch,
			CategoryID:     item.CategoryID,
			AccountNameID:  item.AccountNameID,
			Deleted:        item.Deleted,
			Battery:        item.Battery,
			Tire:           item.Tire,
			GPS:            item.GPS,
		})
	}
	return doc
}

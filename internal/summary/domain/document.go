package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
)

// DocumentType selects how a document's lines are broken into report entries.
type DocumentType string

const (
	TypeGeneral DocumentType = "general"
	// TypeOther reports the line itself plus its battery/tire/GPS components.
	TypeOther DocumentType = "other"
	// TypeAccessories reports only the components, never the parent line.
	TypeAccessories DocumentType = "accessories"
)

func NormalizeDocumentType(raw DocumentType) DocumentType {
	switch DocumentType(strings.ToLower(strings.TrimSpace(string(raw)))) {
	case TypeOther:
		return TypeOther
	case TypeAccessories:
		return TypeAccessories
	default:
		return TypeGeneral
	}
}

type TaxTreatment string

const (
	TaxInclusive   TaxTreatment = "inclusive"
	TaxSeparateVAT TaxTreatment = "separate_vat"
	TaxNone        TaxTreatment = "none"
)

func NormalizeTaxTreatment(raw TaxTreatment) TaxTreatment {
	switch TaxTreatment(strings.ToLower(strings.TrimSpace(string(raw)))) {
	case TaxSeparateVAT, "separate", "exclusive", "vat":
		return TaxSeparateVAT
	case TaxInclusive:
		return TaxInclusive
	default:
		return TaxNone
	}
}

// Document is one submitted expense or income order of a branch.
type Document struct {
	ID          string              `json:"id"`
	Kind        taxonomydomain.Kind `json:"kind"`
	BranchCode  string              `json:"branch_code"`
	Date        string              `json:"date"`
	Category    string              `json:"category"`
	SubCategory string              `json:"sub_category,omitempty"`
	Type        DocumentType        `json:"type"`
	PaymentType string              `json:"payment_type,omitempty"`
	Deleted     bool                `json:"deleted,omitempty"`
	Items       []LineItem          `json:"items"`
}

// LineItem is a single charge or receipt inside a document.
type LineItem struct {
	ID             string       `json:"id"`
	Amount         Amount       `json:"amount"`
	TaxTreatment   TaxTreatment `json:"tax_treatment"`
	// Vat is the explicit VAT of a separate-VAT line. Zero means "derive
	// from the VAT rate"; a line without VAT uses TaxNone instead.
	Vat            Amount       `json:"vat"`
	WithholdingTax Amount       `json:"withholding_tax"`
	PayToBranch    string       `json:"pay_to_branch,omitempty"`
	CategoryID     string       `json:"category_id"`
	AccountNameID  string       `json:"account_name_id"`
	Deleted        bool         `json:"deleted,omitempty"`

	Battery Amount `json:"battery"`
	Tire    Amount `json:"tire"`
	GPS     Amount `json:"gps"`
}

// NetAmount is amount + VAT (separate VAT only) - withholding tax (expenses only).
// A separate-VAT line without an explicit VAT figure derives it from vatRate.
func (i LineItem) NetAmount(kind taxonomydomain.Kind, vatRate decimal.Decimal) decimal.Decimal {
	net := i.Amount.Decimal
	if NormalizeTaxTreatment(i.TaxTreatment) == TaxSeparateVAT {
		vat := i.Vat.Decimal
		if vat.IsZero() && vatRate.IsPositive() {
			vat = i.Amount.Mul(vatRate).Round(2)
		}
		net = net.Add(vat)
	}
	if kind == taxonomydomain.KindExpense {
		net = net.Sub(i.WithholdingTax.Decimal)
	}
	return net
}

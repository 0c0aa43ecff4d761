package domain

import (
	"context"

	"github.com/smallbiznis/backoffice/pkg/db/pagination"
)

// Service runs summary reports.
type Service interface {
	Daily(ctx context.Context, req DailyRequest) (*Report, error)
	Monthly(ctx context.Context, req MonthlyRequest) (*Report, error)
}

// OrderService records the documents the reports aggregate.
type OrderService interface {
	Create(ctx context.Context, req CreateOrderRequest) (*Document, error)
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error)
	Delete(ctx context.Context, id string) error
}

type DailyRequest struct {
	Kind   string
	Branch string
	Start  string
	End    string
}

type MonthlyRequest struct {
	Kind   string
	Branch string
	// Month is YYYY-MM.
	Month string
}

type CreateOrderRequest struct {
	Kind        string                   `json:"kind"`
	BranchCode  string                   `json:"branch_code"`
	Date        string                   `json:"date"`
	Category    string                   `json:"category"`
	SubCategory string                   `json:"sub_category"`
	Type        string                   `json:"type"`
	PaymentType string                   `json:"payment_type"`
	Metadata    map[string]any           `json:"metadata"`
	Items       []CreateOrderItemRequest `json:"items"`
}

type CreateOrderItemRequest struct {
	Amount         Amount `json:"amount"`
	TaxTreatment   string `json:"tax_treatment"`
	Vat            Amount `json:"vat"`
	WithholdingTax Amount `json:"withholding_tax"`
	PayToBranch    string `json:"pay_to_branch"`
	CategoryID     string `json:"category_id"`
	AccountNameID  string `json:"account_name_id"`
	Battery        Amount `json:"battery"`
	Tire           Amount `json:"tire"`
	GPS            Amount `json:"gps"`
}

type ListOrdersRequest struct {
	Kind   string
	Branch string
	pagination.Pagination
}

type ListOrdersResponse struct {
	Orders   []Document          `json:"orders"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

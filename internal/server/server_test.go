package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/backoffice/internal/config"
	"github.com/smallbiznis/backoffice/internal/observability"
	"github.com/smallbiznis/backoffice/internal/ratelimit"
	"github.com/smallbiznis/backoffice/internal/summary/domain"
	"github.com/smallbiznis/backoffice/internal/summary/export"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"github.com/smallbiznis/backoffice/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeSummaryService struct {
	daily   domain.DailyRequest
	monthly domain.MonthlyRequest
	err     error
}

func (f *fakeSummaryService) report(kind, branch string) (*domain.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Report{
		RunID:   "run-1",
		Kind:    taxonomydomain.Kind(kind),
		Branch:  branch,
		Period:  domain.Period{Start: "2024-03-01", End: "2024-03-01"},
		Columns: []string{"2024-03-01"},
		Rows: []domain.Row{{
			Title:      "Rent",
			SectionKey: "office",
			Cells:      domain.Cells{decimal.NewNullDecimal(decimal.NewFromInt(100))},
			Total:      decimal.NewFromInt(100),
		}},
		Summary: domain.Summary{Columns: []decimal.Decimal{decimal.NewFromInt(100)}, Total: decimal.NewFromInt(100)},
	}, nil
}

func (f *fakeSummaryService) Daily(_ context.Context, req domain.DailyRequest) (*domain.Report, error) {
	f.daily = req
	return f.report(req.Kind, req.Branch)
}

func (f *fakeSummaryService) Monthly(_ context.Context, req domain.MonthlyRequest) (*domain.Report, error) {
	f.monthly = req
	return f.report(req.Kind, req.Branch)
}

type fakeOrderService struct {
	created domain.CreateOrderRequest
	listed  domain.ListOrdersRequest
	err     error
}

func (f *fakeOrderService) Create(_ context.Context, req domain.CreateOrderRequest) (*domain.Document, error) {
	f.created = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: "42", BranchCode: req.BranchCode}, nil
}

func (f *fakeOrderService) Get(_ context.Context, id string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id}, nil
}

func (f *fakeOrderService) List(_ context.Context, req domain.ListOrdersRequest) (*domain.ListOrdersResponse, error) {
	f.listed = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ListOrdersResponse{Orders: []domain.Document{{ID: "1"}}}, nil
}

func (f *fakeOrderService) Delete(_ context.Context, _ string) error {
	return f.err
}

type fakeTaxonomyService struct {
	replaced taxonomydomain.ReplaceRequest
	err      error
}

func (f *fakeTaxonomyService) Get(_ context.Context, kind string) (*taxonomydomain.Taxonomy, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &taxonomydomain.Taxonomy{Kind: taxonomydomain.Kind(kind)}, nil
}

func (f *fakeTaxonomyService) Replace(_ context.Context, req taxonomydomain.ReplaceRequest) (*taxonomydomain.Taxonomy, error) {
	f.replaced = req
	if f.err != nil {
		return nil, f.err
	}
	return &taxonomydomain.Taxonomy{Kind: taxonomydomain.Kind(req.Kind), Sections: req.Sections}, nil
}

type fakeLimiter struct {
	reportAllowed bool
	exportAllowed bool
	locked        bool
	err           error
	released      []string
}

func (f *fakeLimiter) AllowReport(context.Context, string) (*ratelimit.RateLimitResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ratelimit.RateLimitResult{Allowed: f.reportAllowed, Limit: 10, RetryAfter: 2500 * time.Millisecond}, nil
}

func (f *fakeLimiter) AllowExport(context.Context, string) (*ratelimit.RateLimitResult, error) {
	return &ratelimit.RateLimitResult{Allowed: f.exportAllowed}, nil
}

func (f *fakeLimiter) TryLockExport(context.Context, string) (string, bool, error) {
	return "token", f.locked, nil
}

func (f *fakeLimiter) ReleaseExport(_ context.Context, branch, token string) error {
	f.released = append(f.released, branch+":"+token)
	return nil
}

type testServer struct {
	*Server
	summary  *fakeSummaryService
	orders   *fakeOrderService
	taxonomy *fakeTaxonomyService
}

func newTestServer(t *testing.T, limiter reportLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		summary:  &fakeSummaryService{},
		orders:   &fakeOrderService{},
		taxonomy: &fakeTaxonomyService{},
	}
	ts.Server = NewServer(ServerParams{
		Gin:         NewEngine(observability.Config{}, nil),
		Cfg:         config.Config{},
		SummarySvc:  ts.summary,
		OrderSvc:    ts.orders,
		TaxonomySvc: ts.taxonomy,
	})
	ts.limiter = limiter
	return ts
}

func (ts *testServer) do(method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestGetDailySummary(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/finance/summary/expense/daily?branch=B1&start=2024-03-01&end=2024-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DailyRequest{Kind: "expense", Branch: "B1", Start: "2024-03-01", End: "2024-03-01"}, ts.summary.daily)

	var resp struct {
		Data domain.Report `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.Data.RunID)
	require.Len(t, resp.Data.Rows, 1)
	assert.Equal(t, "Rent", resp.Data.Rows[0].Title)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestGetMonthlySummary(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/finance/summary/income/monthly?branch=B2&month=2024-02", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.MonthlyRequest{Kind: "income", Branch: "B2", Month: "2024-02"}, ts.summary.monthly)
}

func TestSummaryErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errType string
		code    string
		field   string
	}{
		{"branch", domain.ErrInvalidBranch, http.StatusBadRequest, "validation_error", "invalid_branch", "branch"},
		{"kind", taxonomydomain.ErrInvalidKind, http.StatusBadRequest, "validation_error", "invalid_kind", "kind"},
		{"too long", domain.ErrPeriodTooLong, http.StatusBadRequest, "validation_error", "period_too_long", "period"},
		{"source", errors.Join(domain.ErrSourceFailure, errors.New("dial tcp")), http.StatusBadGateway, "upstream_unavailable", "", ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			ts.summary.err = tt.err

			rec := ts.do(http.MethodGet, "/api/finance/summary/expense/daily?branch=B1", nil)
			require.Equal(t, tt.status, rec.Code)
			payload := decodeError(t, rec)
			assert.Equal(t, tt.errType, payload.Type)
			if tt.code != "" {
				require.Len(t, payload.Errors, 1)
				assert.Equal(t, tt.code, payload.Errors[0].Code)
				assert.Equal(t, tt.field, payload.Errors[0].Field)
			}
		})
	}
}

func TestExportDailySummary(t *testing.T) {
	limiter := &fakeLimiter{reportAllowed: true, exportAllowed: true, locked: true}
	ts := newTestServer(t, limiter)

	rec := ts.do(http.MethodGet, "/api/finance/summary/expense/daily/export?branch=B1&start=2024-03-01&end=2024-03-01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "expense-summary-b1-2024-03-01_2024-03-01.xlsx")
	assert.Equal(t, []string{"B1:token"}, limiter.released)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Rent", rows[1][0])
}

func TestReportRateLimit(t *testing.T) {
	t.Run("denied", func(t *testing.T) {
		ts := newTestServer(t, &fakeLimiter{reportAllowed: false})

		rec := ts.do(http.MethodGet, "/api/finance/summary/expense/daily?branch=B1", nil)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("Retry-After"))
		assert.Equal(t, rateLimitReasonReportRate, rec.Header().Get("X-Rate-Limited-Reason"))
		assert.Equal(t, "rate_limited", decodeError(t, rec).Type)
		assert.Empty(t, ts.summary.daily.Branch)
	})

	t.Run("limiter failure", func(t *testing.T) {
		ts := newTestServer(t, &fakeLimiter{err: errors.New("redis down")})

		rec := ts.do(http.MethodGet, "/api/finance/summary/expense/monthly?branch=B1&month=2024-03", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("export in progress", func(t *testing.T) {
		limiter := &fakeLimiter{exportAllowed: true, locked: false}
		ts := newTestServer(t, limiter)

		rec := ts.do(http.MethodGet, "/api/finance/summary/expense/monthly/export?branch=B1&month=2024-03", nil)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, rateLimitReasonExportBusy, rec.Header().Get("X-Rate-Limited-Reason"))
		assert.Empty(t, limiter.released)
	})
}

func TestOrderRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	body := []byte(`{"kind":"expense","branch_code":"B1","date":"2024-03-01","items":[{"amount":"100.50","category_id":"office","account_name_id":"rent"}]}`)
	rec := ts.do(http.MethodPost, "/api/finance/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "B1", ts.orders.created.BranchCode)
	require.Len(t, ts.orders.created.Items, 1)
	assert.True(t, decimal.RequireFromString("100.5").Equal(ts.orders.created.Items[0].Amount.Decimal))

	rec = ts.do(http.MethodPost, "/api/finance/orders", []byte(`{not json`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Errors[0].Code)

	rec = ts.do(http.MethodGet, "/api/finance/orders?branch=B1&kind=expense&page_size=5&page_token=abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ListOrdersRequest{
		Kind:       "expense",
		Branch:     "B1",
		Pagination: pagination.Pagination{PageToken: "abc", PageSize: 5},
	}, ts.orders.listed)

	rec = ts.do(http.MethodGet, "/api/finance/orders/42", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/finance/orders/42", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	ts.orders.err = domain.ErrNotFound
	rec = ts.do(http.MethodGet, "/api/finance/orders/42", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ts.orders.err = domain.ErrInvalidPageToken
	rec = ts.do(http.MethodGet, "/api/finance/orders?branch=B1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "page_token", decodeError(t, rec).Errors[0].Field)
}

func TestTaxonomyRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/finance/taxonomy/expense", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := []byte(`{"sections":[{"key":"office","label":"Office","items":[{"key":"rent","label":"Rent"}]}]}`)
	rec = ts.do(http.MethodPut, "/api/finance/taxonomy/income", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "income", ts.taxonomy.replaced.Kind)
	require.Len(t, ts.taxonomy.replaced.Sections, 1)
	assert.Equal(t, "rent", ts.taxonomy.replaced.Sections[0].Items[0].Key)

	ts.taxonomy.err = taxonomydomain.ErrDuplicateItem
	rec = ts.do(http.MethodPut, "/api/finance/taxonomy/income", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "duplicate_item", decodeError(t, rec).Errors[0].Code)

	ts.taxonomy.err = taxonomydomain.ErrNotFound
	rec = ts.do(http.MethodGet, "/api/finance/taxonomy/expense", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

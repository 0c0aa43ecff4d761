package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	summarydomain "github.com/smallbiznis/backoffice/internal/summary/domain"
	taxonomydomain "github.com/smallbiznis/backoffice/internal/taxonomy/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// validationErrors are the domain sentinels reported as 400s. The sentinel
// text is the error code.
var validationErrors = []error{
	ErrInvalidRequest,
	summarydomain.ErrInvalidBranch,
	summarydomain.ErrPeriodTooLong,
	summarydomain.ErrInvalidDate,
	summarydomain.ErrInvalidItems,
	summarydomain.ErrInvalidID,
	summarydomain.ErrInvalidPageToken,
	taxonomydomain.ErrInvalidKind,
	taxonomydomain.ErrInvalidSection,
	taxonomydomain.ErrInvalidItem,
	taxonomydomain.ErrDuplicateItem,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	for _, rule := range statusRules {
		for _, target := range rule.targets {
			if errors.Is(err, target) {
				return rule.status, errorPayload{Type: rule.kind, Message: rule.message}
			}
		}
	}
	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// statusRules are checked in order after validation errors; the first rule
// with a matching target decides the response.
var statusRules = []struct {
	status  int
	kind    string
	message string
	targets []error
}{
	{http.StatusNotFound, "not_found", "not found", []error{
		ErrNotFound, summarydomain.ErrNotFound, taxonomydomain.ErrNotFound, gorm.ErrRecordNotFound,
	}},
	{http.StatusConflict, "conflict", "conflict", []error{
		ErrConflict, taxonomydomain.ErrConcurrentWrite,
	}},
	{http.StatusTooManyRequests, "rate_limited", "too many requests", []error{
		ErrRateLimited, summarydomain.ErrRateLimited,
	}},
	{http.StatusBadGateway, "upstream_unavailable", "report source unavailable", []error{
		summarydomain.ErrSourceFailure,
	}},
	{http.StatusServiceUnavailable, "service_unavailable", "service unavailable", []error{
		ErrServiceUnavailable, taxonomydomain.ErrSourceNotConfig,
	}},
}

// classifyErrorForLog returns the error type and code logged per request.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationErrorCode(err error) (string, bool) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_request":
		return "request"
	case "period_too_long":
		return "period"
	case "invalid_items", "invalid_item", "duplicate_item":
		return "items"
	case "invalid_section":
		return "sections"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "period_too_long":
		return "period exceeds the maximum report length"
	default:
		return "invalid value"
	}
}

package domain

import "errors"

var (
	ErrInvalidBranch    = errors.New("invalid_branch")
	ErrPeriodTooLong    = errors.New("period_too_long")
	ErrInvalidDate      = errors.New("invalid_date")
	ErrInvalidItems     = errors.New("invalid_items")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrNotFound         = errors.New("not_found")
	ErrSourceFailure    = errors.New("source_failure")
	ErrRateLimited      = errors.New("rate_limited")
)

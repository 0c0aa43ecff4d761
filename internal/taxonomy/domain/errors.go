package domain

import "errors"

var (
	ErrInvalidKind     = errors.New("invalid_kind")
	ErrNotFound        = errors.New("not_found")
	ErrInvalidSection  = errors.New("invalid_section")
	ErrInvalidItem     = errors.New("invalid_item")
	ErrDuplicateItem   = errors.New("duplicate_item")
	ErrSourceNotConfig = errors.New("taxonomy_source_not_configured")
	ErrConcurrentWrite = errors.New("taxonomy_concurrent_write")
)

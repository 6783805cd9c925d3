package kbase

import "github.com/kailas-cloud/kbase/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrAlreadyExists    = domain.ErrAlreadyExists
	ErrInvalidSchema    = domain.ErrInvalidSchema
	ErrRecordNotFound   = domain.ErrRecordNotFound
	ErrRevisionConflict = domain.ErrRevisionConflict
)

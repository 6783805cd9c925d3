// Package domain holds the sentinel errors and storage namespace shared by
// every domain package.
package domain

import (
	"errors"
	"strconv"
)

// Sentinels. Match with errors.Is; messages are safe to show to clients.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidSchema    = errors.New("invalid schema")
	ErrRecordNotFound   = errors.New("record not found")
	ErrRevisionConflict = errors.New("revision conflict")
)

// KeyPrefix namespaces every storage key. Set once at startup from config.
var KeyPrefix = "kbase:"

// RevisionConflictError reports a stale write and the revision the caller
// should retry against. It matches ErrRevisionConflict.
type RevisionConflictError struct {
	CurrentRevision int
}

func (e *RevisionConflictError) Error() string {
	return "revision conflict: current revision is " + strconv.Itoa(e.CurrentRevision)
}

func (e *RevisionConflictError) Unwrap() error { return ErrRevisionConflict }

// NewRevisionConflict returns a *RevisionConflictError for current.
func NewRevisionConflict(current int) error {
	return &RevisionConflictError{CurrentRevision: current}
}

// PublicMessage returns the text of err that may be shown to an API client.
// Lookup errors collapse to their sentinel; schema errors keep their detail
// since it names the offending field or value. Anything else reports false.
func PublicMessage(err error) (string, bool) {
	switch {
	case err == nil:
		return "", false
	case errors.Is(err, ErrInvalidSchema):
		return err.Error(), true
	}
	for _, s := range []error{ErrNotFound, ErrRecordNotFound, ErrAlreadyExists, ErrRevisionConflict} {
		if errors.Is(err, s) {
			return s.Error(), true
		}
	}
	return "", false
}

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRevisionConflictError(t *testing.T) {
	err := fmt.Errorf("patch a: %w", NewRevisionConflict(4))

	assert.ErrorIs(t, err, ErrRevisionConflict)
	var rce *RevisionConflictError
	if assert.ErrorAs(t, err, &rce) {
		assert.Equal(t, 4, rce.CurrentRevision)
	}
	assert.Equal(t, "patch a: revision conflict: current revision is 4", err.Error())
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		public bool
	}{
		{"nil", nil, "", false},
		{"not found wrapped", fmt.Errorf("get snippets: %w", ErrNotFound), "not found", true},
		{"record not found", fmt.Errorf("hgetall kbase:rec:x:1: %w", ErrRecordNotFound), "record not found", true},
		{"exists", ErrAlreadyExists, "already exists", true},
		{"conflict", NewRevisionConflict(2), "revision conflict", true},
		{"schema keeps detail", fmt.Errorf("%w: unknown field \"colour\"", ErrInvalidSchema), "invalid schema: unknown field \"colour\"", true},
		{"internal", errors.New("dial tcp 10.0.0.1:6379: refused"), "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PublicMessage(tc.err)
			assert.Equal(t, tc.public, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

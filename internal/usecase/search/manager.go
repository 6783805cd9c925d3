package search

import (
	"context"

	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/search/filter"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
)

// StatusField and StatusPublished back the Published scope.
const (
	StatusField     = "status"
	StatusPublished = "Published"
)

// Manager is the per-collection entry point. It exposes the QuerySet
// operations directly, each starting from a fresh Query.
type Manager struct {
	svc      *Service
	col      domcol.Collection
	defaults []string
}

// NewManager creates a manager for col. defaultFields seed the search
// fields of every query it starts.
func NewManager(svc *Service, col domcol.Collection, defaultFields ...string) *Manager {
	return &Manager{svc: svc, col: col, defaults: append([]string(nil), defaultFields...)}
}

// Collection returns the managed collection.
func (m *Manager) Collection() domcol.Collection { return m.col }

// DefaultFields returns the manager's default search fields.
func (m *Manager) DefaultFields() []string { return append([]string(nil), m.defaults...) }

// Query starts a new QuerySet over the whole collection.
func (m *Manager) Query() QuerySet {
	return QuerySet{svc: m.svc, col: m.col, req: request.New().WithFields(m.defaults...)}
}

// Published restricts the collection to published records.
func (m *Manager) Published() QuerySet {
	return m.Query().Where(StatusField, StatusPublished)
}

// Search starts a query narrowed by raw. See QuerySet.Search.
func (m *Manager) Search(raw string, fields ...string) QuerySet {
	return m.Query().Search(raw, fields...)
}

// Filter starts a query narrowed by p.
func (m *Manager) Filter(p filter.Predicate) QuerySet { return m.Query().Filter(p) }

// Where starts a query narrowed by an exact field match.
func (m *Manager) Where(field, value string) QuerySet { return m.Query().Where(field, value) }

// OrderBy starts an explicitly ordered query.
func (m *Manager) OrderBy(keys ...request.SortKey) QuerySet { return m.Query().OrderBy(keys...) }

// Slice starts a query limited to a window.
func (m *Manager) Slice(offset, limit int) QuerySet { return m.Query().Slice(offset, limit) }

// None starts an empty query.
func (m *Manager) None() QuerySet { return m.Query().None() }

// All returns every record in the collection's default ordering.
func (m *Manager) All(ctx context.Context) (Results, error) { return m.Query().All(ctx) }

// Count returns the number of records in the collection.
func (m *Manager) Count(ctx context.Context) (int, error) { return m.Query().Count(ctx) }

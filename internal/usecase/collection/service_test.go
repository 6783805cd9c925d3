package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/kbase/internal/domain"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
)

// --- Mocks ---

type mockRepo struct {
	created    domcol.Collection
	replaced   domcol.Collection
	getResult  domcol.Collection
	listResult []domcol.Collection
	createErr  error
	replaceErr error
	getErr     error
	listErr    error
	deleteErr  error

	createCalls  int
	replaceCalls int
}

func (m *mockRepo) Create(_ context.Context, col domcol.Collection) error {
	m.createCalls++
	m.created = col
	return m.createErr
}

func (m *mockRepo) Replace(_ context.Context, col domcol.Collection) error {
	m.replaceCalls++
	m.replaced = col
	return m.replaceErr
}

func (m *mockRepo) Get(_ context.Context, _ string) (domcol.Collection, error) {
	return m.getResult, m.getErr
}

func (m *mockRepo) List(_ context.Context) ([]domcol.Collection, error) {
	return m.listResult, m.listErr
}

func (m *mockRepo) Delete(_ context.Context, _ string) error {
	return m.deleteErr
}

type mockPurger struct {
	purged []string
	err    error
}

func (m *mockPurger) Purge(_ context.Context, name string) error {
	m.purged = append(m.purged, name)
	return m.err
}

func makeField(t *testing.T, name string, ft field.Type) field.Field {
	t.Helper()
	f, err := field.New(name, ft)
	if err != nil {
		t.Fatalf("field.New: %v", err)
	}
	return f
}

func makeCollection(t *testing.T, name string, searchFields ...string) domcol.Collection {
	t.Helper()
	col, err := domcol.New(name, []field.Field{
		makeField(t, "title", field.Char),
		makeField(t, "code", field.Text),
	}, searchFields, nil)
	if err != nil {
		t.Fatalf("domcol.New: %v", err)
	}
	return col
}

// --- Tests ---

func TestCreate_Success(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil)

	fields := []field.Field{makeField(t, "title", field.Char), makeField(t, "status", field.Tag)}
	col, err := svc.Create(context.Background(), "snippets", fields, []string{"title"}, []string{"-title"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col.Name() != "snippets" {
		t.Errorf("expected name 'snippets', got %q", col.Name())
	}
	if repo.created.Name() != "snippets" {
		t.Errorf("expected repo to receive collection, got %q", repo.created.Name())
	}
}

func TestCreate_InvalidSchema(t *testing.T) {
	tests := []struct {
		name         string
		colName      string
		searchFields []string
		ordering     []string
	}{
		{"empty name", "", nil, nil},
		{"search field not text", "snippets", []string{"status"}, nil},
		{"unknown ordering field", "snippets", nil, []string{"-missing"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockRepo{}, nil)
			fields := []field.Field{makeField(t, "status", field.Tag)}
			_, err := svc.Create(context.Background(), tc.colName, fields, tc.searchFields, tc.ordering)
			if !errors.Is(err, domain.ErrInvalidSchema) {
				t.Errorf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestCreate_RepoError(t *testing.T) {
	repo := &mockRepo{createErr: domain.ErrAlreadyExists}
	svc := New(repo, nil)

	_, err := svc.Create(context.Background(), "snippets", nil, nil, nil)
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestEnsure_CreatesMissing(t *testing.T) {
	repo := &mockRepo{getErr: domain.ErrNotFound}
	svc := New(repo, nil)

	col := makeCollection(t, "snippets")
	got, err := svc.Ensure(context.Background(), col)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.createCalls != 1 || repo.replaceCalls != 0 {
		t.Errorf("expected one create, got create=%d replace=%d", repo.createCalls, repo.replaceCalls)
	}
	if got.Revision() != col.Revision() {
		t.Errorf("expected revision %d, got %d", col.Revision(), got.Revision())
	}
}

func TestEnsure_SameSchemaIsNoop(t *testing.T) {
	stored := makeCollection(t, "snippets", "title")
	repo := &mockRepo{getResult: stored}
	svc := New(repo, nil)

	got, err := svc.Ensure(context.Background(), makeCollection(t, "snippets", "title"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.createCalls+repo.replaceCalls != 0 {
		t.Errorf("expected no writes, got create=%d replace=%d", repo.createCalls, repo.replaceCalls)
	}
	if got.Revision() != stored.Revision() {
		t.Errorf("expected stored revision, got %d", got.Revision())
	}
}

func TestEnsure_ReplacesChangedSchema(t *testing.T) {
	stored := makeCollection(t, "snippets", "title")
	repo := &mockRepo{getResult: stored}
	svc := New(repo, nil)

	got, err := svc.Ensure(context.Background(), makeCollection(t, "snippets", "code"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.replaceCalls != 1 {
		t.Fatalf("expected one replace, got %d", repo.replaceCalls)
	}
	if got.Revision() != stored.Revision()+1 {
		t.Errorf("expected revision %d, got %d", stored.Revision()+1, got.Revision())
	}
	if got.CreatedAt() != stored.CreatedAt() {
		t.Errorf("expected createdAt to be preserved")
	}
}

func TestEnsure_GetError(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&mockRepo{getErr: boom}, nil)

	if _, err := svc.Ensure(context.Background(), makeCollection(t, "snippets")); !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := New(&mockRepo{getErr: domain.ErrNotFound}, nil)

	_, err := svc.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestList_Success(t *testing.T) {
	repo := &mockRepo{listResult: []domcol.Collection{makeCollection(t, "a"), makeCollection(t, "b")}}
	svc := New(repo, nil)

	cols, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 {
		t.Errorf("expected 2 collections, got %d", len(cols))
	}
}

func TestList_Error(t *testing.T) {
	svc := New(&mockRepo{listErr: errors.New("db down")}, nil)

	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDelete_PurgesRecords(t *testing.T) {
	purger := &mockPurger{}
	svc := New(&mockRepo{}, purger)

	if err := svc.Delete(context.Background(), "snippets"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(purger.purged) != 1 || purger.purged[0] != "snippets" {
		t.Errorf("expected snippets purged, got %v", purger.purged)
	}
}

func TestDelete_NotFoundSkipsPurge(t *testing.T) {
	purger := &mockPurger{}
	svc := New(&mockRepo{deleteErr: domain.ErrNotFound}, purger)

	err := svc.Delete(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(purger.purged) != 0 {
		t.Errorf("expected no purge, got %v", purger.purged)
	}
}

func TestDelete_PurgeError(t *testing.T) {
	boom := errors.New("boom")
	svc := New(&mockRepo{}, &mockPurger{err: boom})

	if err := svc.Delete(context.Background(), "snippets"); !errors.Is(err, boom) {
		t.Errorf("expected purge error, got %v", err)
	}
}

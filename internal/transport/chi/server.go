package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbase/internal/domain"
	dombatch "github.com/kailas-cloud/kbase/internal/domain/batch"
	domcol "github.com/kailas-cloud/kbase/internal/domain/collection"
	"github.com/kailas-cloud/kbase/internal/domain/collection/field"
	domrec "github.com/kailas-cloud/kbase/internal/domain/record"
	"github.com/kailas-cloud/kbase/internal/domain/record/patch"
	"github.com/kailas-cloud/kbase/internal/domain/search/request"
	"github.com/kailas-cloud/kbase/internal/logger"
	collectionuc "github.com/kailas-cloud/kbase/internal/usecase/collection"
	healthuc "github.com/kailas-cloud/kbase/internal/usecase/health"
	recorduc "github.com/kailas-cloud/kbase/internal/usecase/record"
	searchuc "github.com/kailas-cloud/kbase/internal/usecase/search"
	"github.com/kailas-cloud/kbase/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface over the use case services.
type Server struct {
	collections   *collectionuc.Service
	records       *recorduc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	defaultLimit  int
	maxLimit      int
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	collections *collectionuc.Service,
	records *recorduc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		collections:  collections,
		records:      records,
		search:       search,
		health:       health,
		logger:       logger,
		defaultLimit: request.DefaultLimit,
		maxLimit:     request.MaxLimit,
	}
	s.errorHandlers = []errorHandler{
		revisionConflictHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeCollectionNotFound),
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, ErrorCodeRecordNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorCodeCollectionExists),
		sentinelHandler(domain.ErrInvalidSchema, http.StatusBadRequest, ErrorCodeValidationFailed),
	}
	return s
}

// WithPagination configures page size limits.
func (s *Server) WithPagination(defaultLimit, maxLimit int) *Server {
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.String(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// CreateCollection handles POST /collections.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CreateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "Collection name is required")
		return
	}

	fields, err := fieldsFromAPI(req.Fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	col, err := s.collections.Create(r.Context(), req.Name, fields, req.SearchFields, req.Ordering)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, collectionToAPI(col))
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.collections.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]Collection, len(cols))
	for i, c := range cols {
		items[i] = collectionToAPI(c)
	}
	writeJSON(w, http.StatusOK, CollectionListResponse{Items: items})
}

// GetCollection handles GET /collections/{collection}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request, collection string) {
	m, err := s.search.Manager(r.Context(), collection)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := collectionToAPI(m.Collection())
	if count, err := m.Count(r.Context()); err == nil {
		resp.RecordCount = &count
	}

	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(m.Collection().Revision())))
	writeJSON(w, http.StatusOK, resp)
}

// DeleteCollection handles DELETE /collections/{collection}.
func (s *Server) DeleteCollection(w http.ResponseWriter, r *http.Request, collection string) {
	if err := s.collections.Delete(r.Context(), collection); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SearchRecords handles GET /collections/{collection}/records.
// Without q it lists records in the collection's default ordering.
func (s *Server) SearchRecords(
	w http.ResponseWriter, r *http.Request, collection string, params SearchRecordsParams,
) {
	ctx := logger.With(r.Context(), zap.String("collection", collection))

	m, err := s.search.Manager(ctx, collection)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	q, offset, limit, err := s.buildQuery(m, params)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	res, err := q.All(ctx)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	total, err := q.Count(ctx)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]SearchHit, len(res.Hits))
	for i, h := range res.Hits {
		items[i] = SearchHit{ID: h.ID(), Score: h.Score(), Fields: nonNil(h.Fields())}
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Items:    items,
		Ordering: res.Ordering.String(),
		Total:    total,
		Offset:   offset,
		Limit:    limit,
	})
}

// buildQuery turns query parameters into a chained QuerySet: scope, where
// clauses, one Search per q value, ordering, then the page window.
func (s *Server) buildQuery(
	m *searchuc.Manager, params SearchRecordsParams,
) (searchuc.QuerySet, int, int, error) {
	q := m.Query()
	if params.Published != nil && *params.Published {
		q = m.Published()
	}

	if params.Where != nil {
		for _, clause := range *params.Where {
			k, v, ok := strings.Cut(clause, ":")
			if !ok || k == "" {
				return q, 0, 0, fmt.Errorf("where must be field:value, got %q", clause)
			}
			q = q.Where(k, v)
		}
	}

	var fields []string
	if params.Fields != nil {
		fields = *params.Fields
	}
	if params.Q != nil {
		for _, raw := range *params.Q {
			if len(raw) > request.MaxQueryLength {
				return q, 0, 0, fmt.Errorf("q exceeds %d bytes", request.MaxQueryLength)
			}
			q = q.Search(raw, fields...)
		}
	}

	if params.Order != nil {
		keys, err := request.ParseSortKeys(*params.Order...)
		if err != nil {
			return q, 0, 0, fmt.Errorf("order: %w", err)
		}
		q = q.OrderBy(keys...)
	}

	offset, limit := 0, s.defaultLimit
	if params.Offset != nil {
		if *params.Offset < 0 {
			return q, 0, 0, errors.New("offset must not be negative")
		}
		offset = *params.Offset
	}
	if params.Limit != nil {
		if *params.Limit <= 0 || *params.Limit > s.maxLimit {
			return q, 0, 0, fmt.Errorf("limit must be between 1 and %d", s.maxLimit)
		}
		limit = *params.Limit
	}
	return q.Slice(offset, limit), offset, limit, nil
}

// CreateRecord handles POST /collections/{collection}/records.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request, collection string) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, err := s.records.Create(r.Context(), collection, req.Fields)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/collections/%s/records/%s", collection, rec.ID()))
	writeJSON(w, http.StatusCreated, recordToAPI(rec))
}

// PutRecord handles PUT /collections/{collection}/records/{id}.
func (s *Server) PutRecord(w http.ResponseWriter, r *http.Request, collection, id string) {
	var req RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rec, created, err := s.records.Put(r.Context(), collection, id, req.Fields)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", fmt.Sprintf("/collections/%s/records/%s", collection, id))
	}
	writeJSON(w, status, recordToAPI(rec))
}

// GetRecord handles GET /collections/{collection}/records/{id}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request, collection, id string) {
	rec, err := s.records.Get(r.Context(), collection, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(rec.Revision())))
	writeJSON(w, http.StatusOK, recordToAPI(rec))
}

// PatchRecord handles PATCH /collections/{collection}/records/{id}.
// The expected revision comes from the body or an If-Match header.
func (s *Server) PatchRecord(w http.ResponseWriter, r *http.Request, collection, id string) {
	var req PatchRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := patch.New(req.Fields)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	expected := 0
	if req.Revision != nil {
		expected = *req.Revision
	} else if m := r.Header.Get("If-Match"); m != "" {
		n, err := strconv.Atoi(strings.Trim(m, `"`))
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "If-Match must be a revision number")
			return
		}
		expected = n
	}

	rec, err := s.records.Patch(r.Context(), collection, id, p, expected)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(rec.Revision())))
	writeJSON(w, http.StatusOK, recordToAPI(rec))
}

// DeleteRecord handles DELETE /collections/{collection}/records/{id}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request, collection, id string) {
	if err := s.records.Delete(r.Context(), collection, id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BatchUpsert handles POST /collections/{collection}/records/batch.
func (s *Server) BatchUpsert(w http.ResponseWriter, r *http.Request, collection string) {
	var req BatchUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "records must not be empty")
		return
	}

	items := make([]recorduc.Item, len(req.Records))
	for i, rec := range req.Records {
		items[i] = recorduc.Item{ID: rec.ID, Fields: rec.Fields}
	}

	writeJSON(w, http.StatusOK, batchToAPI(s.records.BatchUpsert(r.Context(), collection, items)))
}

// BatchDelete handles POST /collections/{collection}/records/batch-delete.
func (s *Server) BatchDelete(w http.ResponseWriter, r *http.Request, collection string) {
	var req BatchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "ids must not be empty")
		return
	}

	writeJSON(w, http.StatusOK, batchToAPI(s.records.BatchDelete(r.Context(), collection, req.IDs)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
func safeDomainMessage(err error) string {
	if msg, ok := domain.PublicMessage(err); ok {
		return msg
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// revisionConflictHandler handles ErrRevisionConflict with ETag header and extra fields.
func revisionConflictHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRevisionConflict) {
		return false
	}
	var rce *domain.RevisionConflictError
	if errors.As(err, &rce) {
		w.Header().Set("ETag", strconv.Quote(strconv.Itoa(rce.CurrentRevision)))
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":             ErrorCodeRevisionConflict,
			"message":          msg,
			"current_revision": rce.CurrentRevision,
		})
		return true
	}
	writeError(w, http.StatusConflict, ErrorCodeRevisionConflict, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func collectionToAPI(c domcol.Collection) Collection {
	fields := make([]FieldDefinition, len(c.Fields()))
	for i, f := range c.Fields() {
		fields[i] = FieldDefinition{Name: f.Name(), Type: string(f.FieldType())}
	}
	return Collection{
		Name:         c.Name(),
		Fields:       fields,
		SearchFields: nonNilSlice(c.SearchFields()),
		Ordering:     nonNilSlice(c.OrderingSpecs()),
		CreatedAt:    time.UnixMilli(c.CreatedAt()).UTC(),
		Revision:     c.Revision(),
	}
}

func fieldsFromAPI(ff []FieldDefinition) ([]field.Field, error) {
	fields := make([]field.Field, len(ff))
	for i, f := range ff {
		fld, err := field.New(f.Name, field.Type(f.Type))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		fields[i] = fld
	}
	return fields, nil
}

func recordToAPI(rec domrec.Record) Record {
	return Record{ID: rec.ID(), Revision: rec.Revision(), Fields: nonNil(rec.Fields())}
}

func batchToAPI(results []dombatch.Result) BatchResponse {
	items := make([]BatchResultItem, len(results))
	for i, r := range results {
		items[i] = BatchResultItem{Index: r.Index(), ID: r.ID(), Status: string(r.Status())}
		if r.Err() != nil {
			items[i].Error = &ErrorResponse{Code: batchErrorCode(r.Err()), Message: safeDomainMessage(r.Err())}
		}
	}
	sum := dombatch.Summarize(results)
	return BatchResponse{Items: items, Succeeded: sum.Succeeded, Failed: sum.Failed}
}

func batchErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrorCodeCollectionNotFound
	case errors.Is(err, domain.ErrRecordNotFound):
		return ErrorCodeRecordNotFound
	case errors.Is(err, domain.ErrInvalidSchema):
		return ErrorCodeValidationFailed
	default:
		return ErrorCodeInternalError
	}
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

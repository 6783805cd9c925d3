package chi

import "time"

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned by the API.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeValidationFailed   ErrorCode = "validation_failed"
	ErrorCodeCollectionNotFound ErrorCode = "collection_not_found"
	ErrorCodeCollectionExists   ErrorCode = "collection_already_exists"
	ErrorCodeRecordNotFound     ErrorCode = "record_not_found"
	ErrorCodeRevisionConflict   ErrorCode = "revision_conflict"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// FieldDefinition describes one collection field.
type FieldDefinition struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CreateCollectionRequest is the body of POST /collections.
type CreateCollectionRequest struct {
	Name         string            `json:"name"`
	Fields       []FieldDefinition `json:"fields"`
	SearchFields []string          `json:"search_fields,omitempty"`
	Ordering     []string          `json:"ordering,omitempty"`
}

// Collection is a collection schema.
type Collection struct {
	Name         string            `json:"name"`
	Fields       []FieldDefinition `json:"fields"`
	SearchFields []string          `json:"search_fields"`
	Ordering     []string          `json:"ordering"`
	CreatedAt    time.Time         `json:"created_at"`
	Revision     int               `json:"revision"`
	RecordCount  *int              `json:"record_count,omitempty"`
}

// CollectionListResponse lists collections.
type CollectionListResponse struct {
	Items []Collection `json:"items"`
}

// RecordRequest is the body of POST and PUT record requests.
type RecordRequest struct {
	Fields map[string]string `json:"fields"`
}

// PatchRecordRequest is the body of PATCH /records/{id}. A null value
// removes the field. Revision, when set, must match the stored one.
type PatchRecordRequest struct {
	Fields   map[string]*string `json:"fields"`
	Revision *int               `json:"revision,omitempty"`
}

// Record is a stored record.
type Record struct {
	ID       string            `json:"id"`
	Revision int               `json:"revision"`
	Fields   map[string]string `json:"fields"`
}

// SearchHit is one search result.
type SearchHit struct {
	ID     string            `json:"id"`
	Score  float64           `json:"score"`
	Fields map[string]string `json:"fields"`
}

// SearchResponse is the body of GET /records.
type SearchResponse struct {
	Items    []SearchHit `json:"items"`
	Ordering string      `json:"ordering"`
	Total    int         `json:"total"`
	Offset   int         `json:"offset"`
	Limit    int         `json:"limit"`
}

// SearchRecordsParams are the query parameters of GET /records.
type SearchRecordsParams struct {
	// Q may repeat; each value narrows the previous ones.
	Q         *[]string
	Fields    *[]string
	Order     *[]string
	Where     *[]string
	Published *bool
	Offset    *int
	Limit     *int
}

// BatchUpsertRequest is the body of POST /records/batch.
type BatchUpsertRequest struct {
	Records []BatchRecord `json:"records"`
}

// BatchRecord is one record of a batch upsert. ID is optional.
type BatchRecord struct {
	ID     string            `json:"id,omitempty"`
	Fields map[string]string `json:"fields"`
}

// BatchDeleteRequest is the body of POST /records/batch-delete.
type BatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BatchResultItem reports the outcome of one batch item.
type BatchResultItem struct {
	Index  int            `json:"index"`
	ID     string         `json:"id"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// BatchResponse reports a whole batch.
type BatchResponse struct {
	Items     []BatchResultItem `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

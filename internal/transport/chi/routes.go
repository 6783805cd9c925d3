package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is the set of API operations.
type ServerInterface interface {
	// (GET /health)
	Health(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
	// (GET /collections)
	ListCollections(w http.ResponseWriter, r *http.Request)
	// (POST /collections)
	CreateCollection(w http.ResponseWriter, r *http.Request)
	// (GET /collections/{collection})
	GetCollection(w http.ResponseWriter, r *http.Request, collection string)
	// (DELETE /collections/{collection})
	DeleteCollection(w http.ResponseWriter, r *http.Request, collection string)
	// (GET /collections/{collection}/records)
	SearchRecords(w http.ResponseWriter, r *http.Request, collection string, params SearchRecordsParams)
	// (POST /collections/{collection}/records)
	CreateRecord(w http.ResponseWriter, r *http.Request, collection string)
	// (POST /collections/{collection}/records/batch)
	BatchUpsert(w http.ResponseWriter, r *http.Request, collection string)
	// (POST /collections/{collection}/records/batch-delete)
	BatchDelete(w http.ResponseWriter, r *http.Request, collection string)
	// (GET /collections/{collection}/records/{id})
	GetRecord(w http.ResponseWriter, r *http.Request, collection, id string)
	// (PUT /collections/{collection}/records/{id})
	PutRecord(w http.ResponseWriter, r *http.Request, collection, id string)
	// (PATCH /collections/{collection}/records/{id})
	PatchRecord(w http.ResponseWriter, r *http.Request, collection, id string)
	// (DELETE /collections/{collection}/records/{id})
	DeleteRecord(w http.ResponseWriter, r *http.Request, collection, id string)
}

// InvalidParamFormatError reports a path or query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// Options configures Handler.
type Options struct {
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

type wrapper struct {
	handler     ServerInterface
	middlewares []func(http.Handler) http.Handler
	onError     func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler mounts every operation of si on a chi router.
func Handler(si ServerInterface, opts Options) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		}
	}
	wr := &wrapper{handler: si, middlewares: opts.Middlewares, onError: opts.ErrorHandlerFunc}

	r.Get("/health", wr.wrap(si.Health))
	r.Get("/metrics", wr.wrap(si.Metrics))
	r.Get("/collections", wr.wrap(si.ListCollections))
	r.Post("/collections", wr.wrap(si.CreateCollection))
	r.Get("/collections/{collection}", wr.collection(si.GetCollection))
	r.Delete("/collections/{collection}", wr.collection(si.DeleteCollection))
	r.Get("/collections/{collection}/records", wr.searchRecords)
	r.Post("/collections/{collection}/records", wr.collection(si.CreateRecord))
	r.Post("/collections/{collection}/records/batch", wr.collection(si.BatchUpsert))
	r.Post("/collections/{collection}/records/batch-delete", wr.collection(si.BatchDelete))
	r.Get("/collections/{collection}/records/{id}", wr.record(si.GetRecord))
	r.Put("/collections/{collection}/records/{id}", wr.record(si.PutRecord))
	r.Patch("/collections/{collection}/records/{id}", wr.record(si.PatchRecord))
	r.Delete("/collections/{collection}/records/{id}", wr.record(si.DeleteRecord))
	return r
}

func (wr *wrapper) serve(w http.ResponseWriter, r *http.Request, h http.Handler) {
	for _, mw := range wr.middlewares {
		h = mw(h)
	}
	h.ServeHTTP(w, r)
}

func (wr *wrapper) wrap(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wr.serve(w, r, fn)
	}
}

func (wr *wrapper) pathParam(w http.ResponseWriter, r *http.Request, name string, dest *string) bool {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		wr.onError(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return false
	}
	return true
}

func (wr *wrapper) collection(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var collection string
		if !wr.pathParam(w, r, "collection", &collection) {
			return
		}
		wr.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, collection)
		}))
	}
}

func (wr *wrapper) record(fn func(http.ResponseWriter, *http.Request, string, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var collection, id string
		if !wr.pathParam(w, r, "collection", &collection) || !wr.pathParam(w, r, "id", &id) {
			return
		}
		wr.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r, collection, id)
		}))
	}
}

func (wr *wrapper) searchRecords(w http.ResponseWriter, r *http.Request) {
	var collection string
	if !wr.pathParam(w, r, "collection", &collection) {
		return
	}

	var params SearchRecordsParams
	query := r.URL.Query()
	binds := []struct {
		name    string
		explode bool
		dest    any
	}{
		{"q", true, &params.Q},
		{"fields", false, &params.Fields},
		{"order", false, &params.Order},
		{"where", true, &params.Where},
		{"published", true, &params.Published},
		{"offset", true, &params.Offset},
		{"limit", true, &params.Limit},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", b.explode, false, b.name, query, b.dest); err != nil {
			wr.onError(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	wr.serve(w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wr.handler.SearchRecords(w, r, collection, params)
	}))
}

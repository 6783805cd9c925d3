package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func authRequest(t *testing.T, mw func(http.Handler) http.Handler, path, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rr := httptest.NewRecorder()
	mw(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		exempt  []string
		path    string
		header  string
		status  int
		message string
	}{
		{name: "no keys disables auth", path: "/collections", status: http.StatusNoContent},
		{name: "blank keys disable auth", keys: []string{"", ""}, path: "/collections", status: http.StatusNoContent},
		{
			name: "missing header", keys: []string{"k1"}, path: "/collections",
			status: http.StatusUnauthorized, message: "missing authorization header",
		},
		{
			name: "basic scheme", keys: []string{"k1"}, path: "/collections", header: "Basic azE6",
			status: http.StatusUnauthorized, message: "authorization header must use Bearer scheme",
		},
		{
			name: "wrong token", keys: []string{"k1"}, path: "/collections", header: "Bearer nope",
			status: http.StatusUnauthorized, message: "invalid api key",
		},
		{
			name: "token is prefix of key", keys: []string{"secret-key"}, path: "/collections", header: "Bearer secret",
			status: http.StatusUnauthorized, message: "invalid api key",
		},
		{name: "valid token", keys: []string{"k1"}, path: "/collections", header: "Bearer k1", status: http.StatusNoContent},
		{name: "second of several keys", keys: []string{"k1", "k2"}, path: "/collections", header: "Bearer k2", status: http.StatusNoContent},
		{name: "health exempt by default", keys: []string{"k1"}, path: "/health", status: http.StatusNoContent},
		{name: "metrics exempt by default", keys: []string{"k1"}, path: "/metrics", status: http.StatusNoContent},
		{name: "custom exempt path", keys: []string{"k1"}, exempt: []string{"/ready"}, path: "/ready", status: http.StatusNoContent},
		{
			name: "custom list replaces defaults", keys: []string{"k1"}, exempt: []string{"/ready"}, path: "/health",
			status: http.StatusUnauthorized, message: "missing authorization header",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := authRequest(t, BearerAuthMiddleware(tc.keys, tc.exempt...), tc.path, tc.header)
			require.Equal(t, tc.status, rr.Code)
			if tc.message == "" {
				return
			}
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, ErrorCodeUnauthorized, body.Code)
			assert.Equal(t, tc.message, body.Message)
		})
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeaders_MarksResponsesUncacheable(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/context/assemble", nil))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestCORS_WildcardDisablesCredentials(t *testing.T) {
	opts := CORS([]string{"*"})
	assert.False(t, opts.AllowCredentials)

	opts = CORS([]string{"https://app.fathom.chat"})
	assert.True(t, opts.AllowCredentials)
	assert.NotContains(t, opts.AllowedHeaders, "Authorization")
}

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shriram-30/SpotifyClone/core/auth"
)

func TestCORSHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	cases := []struct {
		name        string
		allowed     string
		wantOrigin  string
		credentials string
	}{
		{"configured origin", "http://localhost:5173", "http://localhost:5173", "true"},
		{"any origin", "", "*", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/music/albums", nil)
			req.Header.Set("Origin", "https://evil.example.com")
			rec := httptest.NewRecorder()
			corsMiddleware(tc.allowed)(ok).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, tc.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tc.credentials, rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestAuthMiddlewareStoresUser(t *testing.T) {
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	h := &APIHandler{tokens: tokens}
	tok, err := tokens.GenerateToken(9, "shriram")
	require.NoError(t, err)

	var (
		gotID   int64
		gotName string
		hasName bool
	)
	handler := h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		gotID, err = GetUserIDFromContext(r.Context())
		gotName, hasName = GetUsernameFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/player", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	handler(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), gotID)
	assert.True(t, hasName)
	assert.Equal(t, "shriram", gotName)

	_, hasName = GetUsernameFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, hasName)
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"blogspace.com/blogspace-server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireAuthMissingHeader(t *testing.T) {
	tokens := services.NewTokenService("test-secret")
	handler := RequireAuth(tokens, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest("DELETE", "/posts/1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "No token, authorization denied", body["message"])
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	tokens := services.NewTokenService("test-secret")
	handler := RequireAuth(tokens, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	for _, header := range []string{"Basic abc123", "bearer lowercase", "Token xyz"} {
		req := httptest.NewRequest("DELETE", "/posts/1", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header=%q", header)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	tokens := services.NewTokenService("test-secret")
	forged, err := services.NewTokenService("other-secret").GenerateToken(42)
	require.NoError(t, err)

	handler := RequireAuth(tokens, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest("DELETE", "/posts/1", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Invalid token", body["message"])
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens := services.NewTokenService("test-secret")
	token, err := tokens.GenerateToken(42)
	require.NoError(t, err)

	var gotID int
	handler := RequireAuth(tokens, func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserID(r)
		require.True(t, ok)
		gotID = id
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("DELETE", "/posts/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42, gotID)
}

func TestUserIDAbsent(t *testing.T) {
	req := httptest.NewRequest("GET", "/posts", nil)
	_, ok := UserID(req)
	assert.False(t, ok)
}

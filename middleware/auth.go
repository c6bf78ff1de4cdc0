package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"blogspace.com/blogspace-server/services"
)

type contextKey string

const userIDKey contextKey = "user_id"

// RequireAuth rejects the request before the handler runs unless it carries a
// valid bearer token. The verified subject id ends up in the request context.
func RequireAuth(tokens *services.TokenService, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			writeAuthError(w, "No token, authorization denied")
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		userID, err := tokens.VerifyToken(tokenString)
		if err != nil {
			writeAuthError(w, "Invalid token")
			return
		}

		next(w, r.WithContext(WithUserID(r.Context(), userID)))
	}
}

// WithUserID returns a context carrying the acting user id.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the acting user id placed in the context by RequireAuth.
func UserID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(userIDKey).(int)
	return id, ok
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

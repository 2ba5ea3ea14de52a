// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
)

type contextKey string

const (
	// UserIDKey holds the authenticated Firebase UID.
	UserIDKey contextKey = "userID"
)

// TokenVerifier validates a Firebase ID token. *auth.Client satisfies
// this; tests supply a fake.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthMiddleware validates Firebase Auth tokens. The ledger is
// single-owner: a valid token whose UID is not the configured owner is
// rejected with 403.
type AuthMiddleware struct {
	verifier TokenVerifier
	ownerID  string
}

// NewAuthMiddleware creates a new auth middleware bound to one owner.
func NewAuthMiddleware(verifier TokenVerifier, ownerID string) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, ownerID: ownerID}
}

// RequireAuth middleware that requires a Bearer token for the owner.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		decodedToken, err := m.verifier.VerifyIDToken(r.Context(), parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if decodedToken.UID != m.ownerID {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, decodedToken.UID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID extracts the authenticated UID from context.
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

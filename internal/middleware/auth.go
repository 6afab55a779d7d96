// Package middleware provides the HTTP middleware shared by the API routes:
// JWT authentication and request logging/instrumentation.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tallyup/tallyup/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// OwnerIDKey is the context key for storing the authenticated owner ID.
	OwnerIDKey contextKey = "owner_id"
	// EmailKey is the context key for storing the authenticated owner's email.
	EmailKey contextKey = "email"
)

// GetOwnerID extracts the owner ID from the context. Returns uuid.Nil if the
// request is unauthenticated.
func GetOwnerID(ctx context.Context) uuid.UUID {
	ownerID, _ := ctx.Value(OwnerIDKey).(uuid.UUID)
	return ownerID
}

// GetEmail extracts the owner email from the context.
// Returns empty string if not found.
func GetEmail(ctx context.Context) string {
	email, _ := ctx.Value(EmailKey).(string)
	return email
}

// RequireAuth validates the Bearer token on every request and adds the owner
// ID and email to the request context. Requests without a valid token get
// 401 and never reach the handler.
func RequireAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := claimsFromRequest(jwtManager, r)
			if err != nil {
				unauthorized(w, err)
				return
			}
			ownerID, err := uuid.Parse(claims.OwnerID)
			if err != nil {
				unauthorized(w, auth.ErrInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), OwnerIDKey, ownerID)
			ctx = context.WithValue(ctx, EmailKey, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth adds owner info to the context when a valid token is present
// but lets unauthenticated requests through.
func OptionalAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if claims, err := claimsFromRequest(jwtManager, r); err == nil {
				if ownerID, err := uuid.Parse(claims.OwnerID); err == nil {
					ctx := context.WithValue(r.Context(), OwnerIDKey, ownerID)
					ctx = context.WithValue(ctx, EmailKey, claims.Email)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromRequest(jwtManager *auth.JWTManager, r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, auth.ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, auth.ErrInvalidToken
	}
	return jwtManager.Validate(parts[1])
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Middleware verifies bearer tokens and injects the principal into the
// request context.
type Middleware struct {
	secret []byte
	logger *zap.Logger
}

// NewMiddleware creates an auth middleware verifying HS256 tokens signed
// with the shared secret.
func NewMiddleware(secret string, logger *zap.Logger) *Middleware {
	return &Middleware{
		secret: []byte(secret),
		logger: logger.Named("auth"),
	}
}

// RequireAuth wraps a handler, rejecting requests without a valid bearer token.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, err := m.principalFromRequest(r)
		if err != nil {
			m.logger.Debug("Rejected request", zap.String("path", r.URL.Path), zap.Error(err))
			writeUnauthorized(w)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}
}

// OptionalAuth attaches a principal when a valid bearer token is present but
// lets unauthenticated requests through. Used for anonymous SOS intake.
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next(w, r)
			return
		}
		principal, err := m.principalFromRequest(r)
		if err != nil {
			// A token was presented but does not verify; treating it as
			// anonymous would mask credential problems.
			m.logger.Debug("Rejected request", zap.String("path", r.URL.Path), zap.Error(err))
			writeUnauthorized(w)
			return
		}
		next(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	}
}

// RequireRole wraps a handler, additionally requiring the given role.
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := GetPrincipal(r.Context())
		if principal.Role != role {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"forbidden","message":"Insufficient role"}`))
			return
		}
		next(w, r)
	})
}

// principalFromRequest parses and verifies the Authorization header.
func (m *Middleware) principalFromRequest(r *http.Request) (*Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, fmt.Errorf("missing authorization header")
	}

	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("authorization header is not a bearer token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	principal := &Principal{ID: subject, Role: claims.Role}
	if claims.TeamID != "" {
		teamID, err := uuid.Parse(claims.TeamID)
		if err != nil {
			return nil, fmt.Errorf("invalid team_id claim: %w", err)
		}
		principal.TeamID = &teamID
	}

	return principal, nil
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"Missing or invalid credentials"}`))
}

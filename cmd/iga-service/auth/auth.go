// Package auth verifies the service JWTs the platform gateway attaches to
// trigger requests. Tokens are HS256-signed with a shared secret; the
// subject claim carries the platform user the trigger fired for.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Context keys for storing user information
type contextKey string

const UserContextKey contextKey = "user"

// UserContext represents the authenticated trigger context.
type UserContext struct {
	UserID string
}

// ServiceClaims are the JWT claims issued by the gateway.
type ServiceClaims struct {
	jwt.RegisteredClaims
}

// ServiceAuth validates gateway-issued service tokens.
type ServiceAuth struct {
	secret   []byte
	issuer   string
	audience string
}

// NewServiceAuthFromEnv builds the verifier from BRIDGE_JWT_SECRET. Returns
// nil when unset so local development can run without authentication.
func NewServiceAuthFromEnv() *ServiceAuth {
	secret := os.Getenv("BRIDGE_JWT_SECRET")
	if secret == "" {
		return nil
	}

	issuer := os.Getenv("BRIDGE_JWT_ISSUER")
	if issuer == "" {
		issuer = "slack-gateway"
	}
	audience := os.Getenv("BRIDGE_JWT_AUDIENCE")
	if audience == "" {
		audience = "iga-bridge"
	}

	return &ServiceAuth{secret: []byte(secret), issuer: issuer, audience: audience}
}

// VerifyToken verifies a gateway service token.
func (a *ServiceAuth) VerifyToken(tokenString string) (*UserContext, error) {
	if a == nil {
		return nil, fmt.Errorf("service authentication not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}
	if claims.Issuer != a.issuer {
		return nil, fmt.Errorf("issuer mismatch")
	}
	if !audienceContains(claims.Audience, a.audience) {
		return nil, fmt.Errorf("audience mismatch")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject")
	}

	return &UserContext{UserID: claims.Subject}, nil
}

// Middleware wraps an HTTP handler with service authentication. When auth is
// nil every request passes through without a user context.
func (a *ServiceAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a == nil {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearer(r)
		if token == "" {
			http.Error(w, "Unauthorized: missing service token", http.StatusUnauthorized)
			return
		}

		userCtx, err := a.VerifyToken(token)
		if err != nil {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the verified trigger context, if any.
func FromContext(ctx context.Context) *UserContext {
	userCtx, _ := ctx.Value(UserContextKey).(*UserContext)
	return userCtx
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func audienceContains(values jwt.ClaimStrings, target string) bool {
	for _, val := range values {
		if val == target {
			return true
		}
	}
	return false
}

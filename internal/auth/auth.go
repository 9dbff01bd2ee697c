// Package auth issues and validates session tokens and turns the
// Authorization header into an explicit Identity. Caller identity is parsed
// exactly once, in the middleware; services never look at headers.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

// Identity is the authenticated caller passed into every service call.
type Identity struct {
	UserID primitive.ObjectID
	Role   models.Role
}

func (id Identity) IsAdmin() bool { return id.Role == models.RoleAdmin }

type contextKey struct{}

// FromContext returns the Identity stored by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// WithIdentity is used by the middleware and by handler tests.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// IssueToken signs a session token for the user.
func (m *Manager) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.Hex(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", apperr.Internal(err, "failed to sign token")
	}
	return signed, nil
}

// ParseToken validates a token and extracts the caller identity.
func (m *Manager) ParseToken(tokenString string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Identity{}, apperr.Unauthenticated("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, apperr.Unauthenticated("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)

	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil {
		return Identity{}, apperr.Unauthenticated("invalid subject in token")
	}
	switch models.Role(role) {
	case models.RoleClient, models.RoleFreelancer, models.RoleAdmin:
	default:
		return Identity{}, apperr.Unauthenticated("invalid role in token")
	}

	return Identity{UserID: userID, Role: models.Role(role)}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// parsed Identity in the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, `{"error":"Authorization header required"}`, http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		identity, err := m.ParseToken(tokenString)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

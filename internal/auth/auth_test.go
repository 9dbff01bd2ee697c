package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskbridge/taskbridge-gobackend/internal/apperr"
	"github.com/taskbridge/taskbridge-gobackend/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleFreelancer}

	t.Run("Given an issued token When parsed Then the identity matches", func(t *testing.T) {
		token, err := manager.IssueToken(user)
		if err != nil {
			t.Fatalf("IssueToken failed: %v", err)
		}

		identity, err := manager.ParseToken(token)
		if err != nil {
			t.Fatalf("ParseToken failed: %v", err)
		}
		if identity.UserID != user.ID {
			t.Errorf("expected user %s, got %s", user.ID.Hex(), identity.UserID.Hex())
		}
		if identity.Role != models.RoleFreelancer {
			t.Errorf("expected role freelancer, got %s", identity.Role)
		}
	})

	t.Run("Given a token signed with a different secret When parsed Then unauthenticated", func(t *testing.T) {
		other := NewManager("other-secret", time.Hour)
		token, err := other.IssueToken(user)
		if err != nil {
			t.Fatalf("IssueToken failed: %v", err)
		}

		_, err = manager.ParseToken(token)
		if !apperr.IsCode(err, apperr.CodeUnauthenticated) {
			t.Errorf("expected unauthenticated, got %v", err)
		}
	})

	t.Run("Given an expired token When parsed Then unauthenticated", func(t *testing.T) {
		expired := NewManager("test-secret", -time.Minute)
		token, err := expired.IssueToken(user)
		if err != nil {
			t.Fatalf("IssueToken failed: %v", err)
		}

		_, err = manager.ParseToken(token)
		if !apperr.IsCode(err, apperr.CodeUnauthenticated) {
			t.Errorf("expected unauthenticated, got %v", err)
		}
	})

	t.Run("Given an unknown role When parsed Then unauthenticated", func(t *testing.T) {
		bad := &models.User{ID: primitive.NewObjectID(), Role: models.Role("superuser")}
		token, err := manager.IssueToken(bad)
		if err != nil {
			t.Fatalf("IssueToken failed: %v", err)
		}

		_, err = manager.ParseToken(token)
		if !apperr.IsCode(err, apperr.CodeUnauthenticated) {
			t.Errorf("expected unauthenticated, got %v", err)
		}
	})

	t.Run("Given garbage When parsed Then unauthenticated", func(t *testing.T) {
		_, err := manager.ParseToken("not.a.token")
		if !apperr.IsCode(err, apperr.CodeUnauthenticated) {
			t.Errorf("expected unauthenticated, got %v", err)
		}
	})
}

func TestMiddleware(t *testing.T) {
	manager := NewManager("test-secret", time.Hour)
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleClient}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := FromContext(r.Context())
		if !ok {
			t.Error("identity missing from request context")
		}
		if identity.UserID != user.ID {
			t.Errorf("wrong identity in context: %s", identity.UserID.Hex())
		}
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("Given a valid bearer token When a request passes Then the handler runs", func(t *testing.T) {
		token, _ := manager.IssueToken(user)
		req := httptest.NewRequest("GET", "/api/projects", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		manager.Middleware(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("Given no Authorization header When a request passes Then 401", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/projects", nil)
		rec := httptest.NewRecorder()

		manager.Middleware(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("Given an invalid token When a request passes Then 401", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/projects", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()

		manager.Middleware(next).ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"comanda-backend/internal/domain"
	"comanda-backend/internal/server/authctx"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func accessClaims(role string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":        "7",
		"email":      "garcom@example.com",
		"role":       role,
		"token_type": "access",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthMiddleware(t *testing.T) {
	var seen *authctx.CurrentUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := authctx.FromContext(r.Context()); ok {
			seen = &u
		}
	})
	mw := AuthMiddleware(testSecret)(next)

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"refresh token rejected", signToken(t, jwt.MapClaims{
			"sub": "7", "token_type": "refresh", "exp": time.Now().Add(time.Hour).Unix(),
		}), http.StatusUnauthorized},
		{"unrecognized role", signToken(t, accessClaims("gerente")), http.StatusUnauthorized},
		{"empty role", signToken(t, accessClaims("")), http.StatusUnauthorized},
		{"waiter access", signToken(t, accessClaims("waiter")), http.StatusOK},
	}
	for _, tt := range cases {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/tables", nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("%s: status=%d, want %d", tt.name, rec.Code, tt.want)
		}
		if tt.want == http.StatusOK {
			if seen == nil || seen.ID != 7 || seen.Role != domain.RoleWaiter {
				t.Fatalf("%s: context user %+v", tt.name, seen)
			}
		} else if seen != nil {
			t.Fatalf("%s: handler reached with user %+v", tt.name, seen)
		}
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	adminOnly := RequireRole(domain.RoleAdmin)(next)

	// no user in context
	rec := httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings/commission", nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("anonymous: status=%d, want 403", rec.Code)
	}

	// waiter against an admin route
	req := httptest.NewRequest(http.MethodGet, "/settings/commission", nil)
	req = req.WithContext(authctx.WithCurrentUser(req.Context(), authctx.CurrentUser{ID: 7, Role: domain.RoleWaiter}))
	rec = httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("waiter: status=%d, want 403", rec.Code)
	}

	// admin passes
	req = httptest.NewRequest(http.MethodGet, "/settings/commission", nil)
	req = req.WithContext(authctx.WithCurrentUser(req.Context(), authctx.CurrentUser{ID: 1, Role: domain.RoleAdmin}))
	rec = httptest.NewRecorder()
	adminOnly.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: status=%d, want 200", rec.Code)
	}
}

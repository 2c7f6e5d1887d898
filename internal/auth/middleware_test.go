package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func devAuth() *Authenticator {
	return NewAuthenticator(Config{Env: "development"}, zerolog.Nop())
}

func TestClaimsFromMap(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		role   string
	}{
		{"realm role priority", jwt.MapClaims{"realm_access": map[string]interface{}{"roles": []interface{}{"viewer", "dispatcher"}}}, RoleDispatcher},
		{"cognito group", jwt.MapClaims{"cognito:groups": []interface{}{"workforce-technicians"}}, RoleTechnician},
		{"no role", jwt.MapClaims{}, RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClaimsFromMap(tt.claims).Role; got != tt.role {
				t.Errorf("expected role %s, got %s", tt.role, got)
			}
		})
	}

	c := ClaimsFromMap(jwt.MapClaims{"preferred_username": "jdoe", "email": "j@x.io", "sub": "u1"})
	if c.Name != "jdoe" || c.Email != "j@x.io" || c.Subject != "u1" {
		t.Errorf("unexpected claims %+v", c)
	}
}

func TestMiddleware(t *testing.T) {
	var seen *Claims
	handler := devAuth().Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	valid := signed(t, jwt.MapClaims{"email": "d@x.io", "exp": float64(time.Now().Add(time.Hour).Unix())})
	expired := signed(t, jwt.MapClaims{"email": "d@x.io", "exp": float64(time.Now().Add(-time.Hour).Unix())})

	tests := []struct {
		name   string
		target string
		header string
		status int
	}{
		{"missing token", "/api/calls", "", http.StatusUnauthorized},
		{"bearer header", "/api/calls", "Bearer " + valid, http.StatusOK},
		{"query token", "/ws?token=" + valid, "", http.StatusOK},
		{"expired", "/api/calls", "Bearer " + expired, http.StatusUnauthorized},
		{"garbage", "/api/calls", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}

	if seen == nil || seen.Email != "d@x.io" {
		t.Errorf("expected claims in context, got %+v", seen)
	}
}

func TestMiddlewareSkipAuth(t *testing.T) {
	a := NewAuthenticator(Config{SkipAuth: true}, zerolog.Nop())
	handler := a.Middleware(RequireWriter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calls", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected dev user to pass, got %d", rec.Code)
	}
}

func TestVerificationRequiresIssuer(t *testing.T) {
	for _, env := range []string{"production", "staging", ""} {
		a := NewAuthenticator(Config{Env: env}, zerolog.Nop())
		if _, err := a.ValidateToken(signed(t, jwt.MapClaims{"role": RoleAdmin})); err == nil {
			t.Errorf("env %q: expected verification without issuer to fail", env)
		}
	}
}

func TestRequireWriter(t *testing.T) {
	handler := RequireWriter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		claims *Claims
		status int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"viewer", &Claims{Role: RoleViewer}, http.StatusForbidden},
		{"dispatcher", &Claims{Role: RoleDispatcher}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/calls", nil)
			if tt.claims != nil {
				req = req.WithContext(WithUser(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

// tokenAuth authenticates fixed tokens and rejects everything else.
type tokenAuth struct {
	tokens map[string]domain.Principal
}

func (a tokenAuth) Register(context.Context, string, string, domain.RoleID) (*domain.Principal, error) {
	return nil, domain.ErrValidation
}

func (a tokenAuth) Login(context.Context, string, string) (*ports.LoginResult, error) {
	return nil, domain.ErrInvalidCredentials
}

func (a tokenAuth) AuthenticateRequest(_ context.Context, token string) (*domain.Principal, error) {
	p, ok := a.tokens[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return &p, nil
}

func (a tokenAuth) Authorize(p domain.Principal, ownerID string) bool {
	return domain.CanAccess(p, ownerID)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(Dependencies{
		Auth: tokenAuth{tokens: map[string]domain.Principal{
			"user-token": {ID: "u1", Email: "alice@example.com", Role: domain.Role{ID: domain.RoleUser, Name: "User"}, IsActive: true},
		}},
		ReadinessChecks: map[string]func(context.Context) error{
			"mongodb": func(context.Context) error { return nil },
		},
		Log:      zerolog.Nop(),
		Registry: prometheus.NewRegistry(),
	})
}

func serve(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{"/tasks", "/tasks/t1", "/me", "/admin/users"} {
		rec := serve(router, http.MethodGet, target, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", target, rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") != "Bearer" {
			t.Fatalf("%s: missing bearer challenge", target)
		}
	}

	rec := serve(router, http.MethodGet, "/me", "forged-token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", rec.Code)
	}
}

func TestRouter_AuthenticatedPrincipal(t *testing.T) {
	rec := serve(newTestRouter(t), http.MethodGet, "/me", "user-token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"email":"alice@example.com"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestRouter_AdminRoutesForbidNonAdmins(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{"/admin/users", "/admin/roles"} {
		rec := serve(router, http.MethodGet, target, "user-token")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d", target, rec.Code)
		}
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter(t)

	if rec := serve(router, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health: expected 200, got %d", rec.Code)
	}
	if rec := serve(router, http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health/ready: expected 200, got %d", rec.Code)
	}

	serve(router, http.MethodGet, "/health", "")
	rec := serve(router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics: expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "taskhub_http_requests_total") {
		t.Fatalf("expected HTTP request metrics to be exported")
	}
}

func TestRouter_UnknownRouteIsNotFound(t *testing.T) {
	if rec := serve(newTestRouter(t), http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/forgo/accord/pkg/jwt"
)

// ============================================================================
// Mock TokenValidator
// ============================================================================

type mockValidator struct {
	validateFunc func(token string) (*jwt.Claims, error)
	lastToken    string
}

func (m *mockValidator) Validate(token string) (*jwt.Claims, error) {
	m.lastToken = token
	return m.validateFunc(token)
}

// claimsValidator returns the given claims for any token
func claimsValidator(claims *jwt.Claims) *mockValidator {
	return &mockValidator{
		validateFunc: func(string) (*jwt.Claims, error) { return claims, nil },
	}
}

// errorValidator returns the specified error
func errorValidator(err error) *mockValidator {
	return &mockValidator{
		validateFunc: func(string) (*jwt.Claims, error) { return nil, err },
	}
}

// ============================================================================
// Test Helpers
// ============================================================================

func newTestRequest(authHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	return req
}

// captureHandler captures the request context for inspection
type captureHandler struct {
	called bool
	ctx    context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.ctx = r.Context()
	w.WriteHeader(http.StatusOK)
}

// ============================================================================
// Auth() Middleware Tests
// ============================================================================

func TestAuth_BadHeaders_ReturnUnauthorized(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"", "token-only", "Bearer", "Bearer ", "Basic abc"} {
		capture := &captureHandler{}
		rr := httptest.NewRecorder()
		Auth(claimsValidator(&jwt.Claims{}))(capture).ServeHTTP(rr, newTestRequest(header))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("header %q: expected 401, got %d", header, rr.Code)
		}
		if capture.called {
			t.Errorf("header %q: next handler should not be called", header)
		}
	}
}

func TestAuth_ValidToken_SetsContext(t *testing.T) {
	t.Parallel()

	claims := &jwt.Claims{UserID: "user:1", PartnershipID: "partnership:alpha", Role: jwt.RolePartnership}
	validator := claimsValidator(claims)
	capture := &captureHandler{}
	rr := httptest.NewRecorder()

	Auth(validator)(capture).ServeHTTP(rr, newTestRequest("bearer the-token"))

	if !capture.called {
		t.Fatal("expected next handler to be called")
	}
	if validator.lastToken != "the-token" {
		t.Errorf("expected token 'the-token', got %q", validator.lastToken)
	}
	if got := GetPartnershipID(capture.ctx); got != "partnership:alpha" {
		t.Errorf("expected partnership:alpha, got %q", got)
	}
	if got := GetUserID(capture.ctx); got != "user:1" {
		t.Errorf("expected user:1, got %q", got)
	}
	if GetClaims(capture.ctx) != claims {
		t.Error("expected claims in context")
	}
}

func TestAuth_ValidatorErrors_ReturnUnauthorized(t *testing.T) {
	t.Parallel()

	for _, err := range []error{jwt.ErrTokenExpired, jwt.ErrInvalidSignature, jwt.ErrInvalidToken, errors.New("boom")} {
		capture := &captureHandler{}
		rr := httptest.NewRecorder()
		Auth(errorValidator(err))(capture).ServeHTTP(rr, newTestRequest("Bearer x"))

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%v: expected 401, got %d", err, rr.Code)
		}
		if capture.called {
			t.Errorf("%v: next handler should not be called", err)
		}
	}
}

// ============================================================================
// RequirePartnership / AdminOnly Tests
// ============================================================================

func TestRequirePartnership(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims *jwt.Claims
		want   int
	}{
		{"partnership token", &jwt.Claims{PartnershipID: "partnership:alpha"}, http.StatusOK},
		{"admin without partnership", &jwt.Claims{Role: jwt.RoleAdmin}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Chain(&captureHandler{}, Auth(claimsValidator(tt.claims)), RequirePartnership).
				ServeHTTP(rr, newTestRequest("Bearer x"))

			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		claims *jwt.Claims
		want   int
	}{
		{"admin", &jwt.Claims{Role: jwt.RoleAdmin}, http.StatusOK},
		{"partnership", &jwt.Claims{PartnershipID: "partnership:alpha", Role: jwt.RolePartnership}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Chain(&captureHandler{}, Auth(claimsValidator(tt.claims)), AdminOnly).
				ServeHTTP(rr, newTestRequest("Bearer x"))

			if rr.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rr.Code)
			}
		})
	}
}

func TestAdminOnly_WithoutAuth_ReturnsUnauthorized(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	AdminOnly(&captureHandler{}).ServeHTTP(rr, newTestRequest(""))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

// ============================================================================
// Context Getter Tests
// ============================================================================

func TestContextGetters_Missing_ReturnZero(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	if GetUserID(ctx) != "" || GetPartnershipID(ctx) != "" || GetClaims(ctx) != nil {
		t.Error("expected zero values on empty context")
	}

	ctx = context.WithValue(ctx, ClaimsKey, "not claims")
	if GetClaims(ctx) != nil {
		t.Error("expected nil claims for wrong type")
	}
}

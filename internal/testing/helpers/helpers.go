// Package helpers provides common test utilities for HTTP-level tests.
//
// This package includes token minting, HTTP request builders and
// assertion helpers for testing API endpoints.
package helpers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/forgo/accord/internal/model"
	"github.com/forgo/accord/pkg/jwt"
)

// ============================================================================
// JWT Helpers
// ============================================================================

// JWTHelper mints tokens signed with an in-memory key
type JWTHelper struct {
	service *jwt.Service
}

// NewJWTHelper creates a new JWT helper with an in-memory key
func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("helpers: failed to generate RSA key: %v", err)
	}

	return &JWTHelper{
		service: jwt.NewTestService(privateKey, "accord-test", time.Hour),
	}
}

// Service returns the JWT service, usable as the auth middleware validator
func (h *JWTHelper) Service() *jwt.Service {
	return h.service
}

// PartnershipToken creates a valid token acting for partnershipID
func (h *JWTHelper) PartnershipToken(t *testing.T, userID, partnershipID string) string {
	t.Helper()
	return h.sign(t, jwt.Claims{
		UserID:           userID,
		PartnershipID:    partnershipID,
		Role:             jwt.RolePartnership,
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: userID},
	})
}

// AdminToken creates a valid admin token
func (h *JWTHelper) AdminToken(t *testing.T, userID string) string {
	t.Helper()
	return h.sign(t, jwt.Claims{
		UserID:           userID,
		Role:             jwt.RoleAdmin,
		RegisteredClaims: jwtlib.RegisteredClaims{Subject: userID},
	})
}

// ExpiredToken creates a partnership token that expired an hour ago
func (h *JWTHelper) ExpiredToken(t *testing.T, userID, partnershipID string) string {
	t.Helper()
	return h.sign(t, jwt.Claims{
		UserID:        userID,
		PartnershipID: partnershipID,
		Role:          jwt.RolePartnership,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
}

func (h *JWTHelper) sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := h.service.Sign(claims)
	if err != nil {
		t.Fatalf("helpers: failed to sign token: %v", err)
	}
	return token
}

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    any
	headers map[string]string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets a body that is JSON encoded on Build
func (rb *RequestBuilder) WithBody(body any) *RequestBuilder {
	rb.body = body
	return rb
}

// WithHeader sets a request header
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithBearer sets the Authorization header
func (rb *RequestBuilder) WithBearer(token string) *RequestBuilder {
	return rb.WithHeader("Authorization", "Bearer "+token)
}

// Build creates the http.Request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var body io.Reader
	if rb.body != nil {
		b, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req := httptest.NewRequest(rb.method, rb.path, body)
	if rb.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	return req
}

// Do builds the request and serves it through h
func (rb *RequestBuilder) Do(h http.Handler) *httptest.ResponseRecorder {
	rb.t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, rb.Build())
	return rec
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertProblemDetails validates an RFC 9457 Problem Details error response
func AssertProblemDetails(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)

	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json content type, got %q", ct)
	}

	var problem model.ProblemDetails
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v. Body: %s", err, string(bodyBytes))
	}

	if problem.Status != expectedStatus {
		t.Errorf("expected problem.status %d, got %d", expectedStatus, problem.Status)
	}

	if expectedCode != 0 && problem.Code != expectedCode {
		t.Errorf("expected problem.code %d, got %d", expectedCode, problem.Code)
	}
}

// AssertValidationError checks for a validation error on a specific field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	AssertStatus(t, resp, http.StatusUnprocessableEntity)

	var problem model.ProblemDetails
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v", err)
	}

	for _, fe := range problem.Errors {
		if fe.Field == field {
			return
		}
	}

	t.Errorf("expected validation error on field %q, but not found. Errors: %+v", field, problem.Errors)
}

// DecodeResponse decodes the response body into the given struct
func DecodeResponse(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()

	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, string(bodyBytes))
	}
}

// GetDataFromResponse extracts the "data" field from a standard response
func GetDataFromResponse(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var response struct {
		Data map[string]any `json:"data"`
	}
	DecodeResponse(t, resp, &response)
	return response.Data
}

// ============================================================================
// Pointer Helpers
// ============================================================================

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dafibh/gastify/gastify-backend/internal/config"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func testSupabaseConfig() config.SupabaseConfig {
	return config.SupabaseConfig{
		URL:         "https://project.supabase.co",
		JWTSecret:   testSecret,
		JWTAudience: "authenticated",
	}
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func validClaims(sub string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":           sub,
		"iss":           "https://project.supabase.co/auth/v1",
		"aud":           "authenticated",
		"iat":           now.Unix(),
		"exp":           now.Add(time.Hour).Unix(),
		"email":         "ana@example.com",
		"role":          "authenticated",
		"user_metadata": map[string]interface{}{"username": "ana"},
	}
}

func newAuthMiddleware(t *testing.T) *AuthMiddleware {
	t.Helper()
	m, err := NewAuthMiddleware(testSupabaseConfig())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return m
}

func runAuthenticate(t *testing.T, m *AuthMiddleware, header string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	var seen echo.Context
	err := m.Authenticate()(func(c echo.Context) error {
		called = true
		seen = c
		return c.NoContent(http.StatusOK)
	})(c)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return rec, seen, called
}

func TestAuthenticate_ValidToken(t *testing.T) {
	m := newAuthMiddleware(t)
	userID := uuid.New()

	rec, c, called := runAuthenticate(t, m, "Bearer "+signToken(t, validClaims(userID.String())))

	if !called {
		t.Fatalf("Expected handler to be called, got status %d: %s", rec.Code, rec.Body.String())
	}
	if got := GetUserID(c); got != userID {
		t.Errorf("Expected user id %s, got %s", userID, got)
	}
	if GetAccessToken(c) == "" {
		t.Error("Expected access token in context")
	}
	user := GetUser(c)
	if user == nil || user.Email != "ana@example.com" || user.Username != "ana" {
		t.Errorf("Unexpected user %+v", user)
	}
	if user.DisplayName() != "ana" {
		t.Errorf("Expected display name ana, got %s", user.DisplayName())
	}
	id, ok := IdentityFrom(c.Request().Context())
	if !ok || id.ExpiresAt.Before(time.Now()) {
		t.Errorf("Expected identity with future expiry, got %+v", id)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	m := newAuthMiddleware(t)
	userID := uuid.New().String()

	expired := validClaims(userID)
	expired["exp"] = time.Now().Add(-2 * time.Hour).Unix()

	wrongAudience := validClaims(userID)
	wrongAudience["aud"] = "anon"

	wrongIssuer := validClaims(userID)
	wrongIssuer["iss"] = "https://other.supabase.co/auth/v1"

	anonRole := validClaims(userID)
	anonRole["role"] = "anon"

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
		{"expired", "Bearer " + signToken(t, expired)},
		{"wrong audience", "Bearer " + signToken(t, wrongAudience)},
		{"wrong issuer", "Bearer " + signToken(t, wrongIssuer)},
		{"anon role", "Bearer " + signToken(t, anonRole)},
		{"subject not uuid", "Bearer " + signToken(t, validClaims("service"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, called := runAuthenticate(t, m, tt.header)

			if called {
				t.Fatal("Expected handler not to be called")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}

			var problem problemDetails
			if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if problem.Type != errorTypeUnauthorized {
				t.Errorf("Expected type %s, got %s", errorTypeUnauthorized, problem.Type)
			}
		})
	}
}

func TestVerifyToken(t *testing.T) {
	m := newAuthMiddleware(t)
	userID := uuid.New()

	got, err := m.VerifyToken(context.Background(), signToken(t, validClaims(userID.String())))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != userID {
		t.Errorf("Expected %s, got %s", userID, got)
	}

	if _, err := m.VerifyToken(context.Background(), "bad"); err == nil {
		t.Error("Expected error for invalid token")
	}
}

func TestGetUserID_NotPresent(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	if GetUserID(c) != uuid.Nil {
		t.Error("Expected nil user id")
	}
	if GetUser(c) != nil {
		t.Error("Expected nil user")
	}
	if GetAccessToken(c) != "" {
		t.Error("Expected no access token")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc ", "abc", true},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		if token != tt.token || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, token, ok, tt.token, tt.ok)
		}
	}
}

func TestCustomClaims_Validate(t *testing.T) {
	if err := (CustomClaims{Role: "authenticated"}).Validate(context.Background()); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := (CustomClaims{Role: "service_role"}).Validate(context.Background()); err == nil {
		t.Error("Expected error for service_role")
	}
}

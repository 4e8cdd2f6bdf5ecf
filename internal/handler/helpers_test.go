package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	reqvalidator "github.com/dafibh/gastify/gastify-backend/internal/validator"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = reqvalidator.New()
	return e
}

// newRequestContext builds an echo context with an optional JSON body and path params
func newRequestContext(e *echo.Echo, method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

// setupAuthContext puts an authenticated user in the request context the way
// the auth middleware does
func setupAuthContext(c echo.Context, userID uuid.UUID, email, username string) {
	ctx := middleware.WithIdentity(c.Request().Context(), middleware.Identity{
		UserID:   userID,
		Email:    email,
		Username: username,
		Token:    userID.String(),
	})
	c.SetRequest(c.Request().WithContext(ctx))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to unmarshal response: %v (body: %s)", err, rec.Body.String())
	}
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var problem ProblemDetails
	decodeJSON(t, rec, &problem)
	return problem
}

func hasFieldError(problem ProblemDetails, field string) bool {
	for _, e := range problem.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

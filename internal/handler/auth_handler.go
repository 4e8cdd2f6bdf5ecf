package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/gastify/gastify-backend/internal/domain"
	"github.com/dafibh/gastify/gastify-backend/internal/middleware"
	"github.com/dafibh/gastify/gastify-backend/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SignUpRequest represents the sign-up request body
type SignUpRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Username string `json:"username" validate:"max=50"`
}

// SignInRequest represents the sign-in request body
type SignInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// PasswordResetRequest asks for a reset email
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required"`
}

// UpdatePasswordRequest sets a new password
type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username,omitempty"`
	DisplayName string `json:"displayName"`
}

// SessionResponse represents the tokens issued on sign-in
type SessionResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresAt    string       `json:"expiresAt"`
	User         UserResponse `json:"user"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName(),
	}
}

// SignUp godoc
// @Summary Sign up
// @Description Registers an account. The username is stored with the user and shown as the display name.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Credentials"
// @Success 201 {object} UserResponse
// @Failure 400 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.SignUp(c.Request().Context(), req.Email, req.Password, req.Username)
	if err != nil {
		return handleServiceError(c, err, "sign up")
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// SignIn godoc
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignInRequest true "Credentials"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return handleServiceError(c, err, "sign in")
	}

	return c.JSON(http.StatusOK, SessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		ExpiresAt:    session.ExpiresAt.Format(time.RFC3339),
		User:         toUserResponse(&session.User),
	})
}

// RequestPasswordReset godoc
// @Summary Request a password reset email
// @Tags auth
// @Accept json
// @Param request body PasswordResetRequest true "Email"
// @Success 202
// @Failure 400 {object} ProblemDetails
// @Router /auth/password/reset [post]
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req PasswordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return handleServiceError(c, err, "request password reset")
	}

	return c.NoContent(http.StatusAccepted)
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} ProblemDetails
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user := middleware.GetUser(c)
	if user == nil {
		log.Error().Msg("No user in context - middleware may not be configured")
		return NewUnauthorizedError(c, "Authentication required")
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdatePassword godoc
// @Summary Update password
// @Tags auth
// @Accept json
// @Security BearerAuth
// @Param request body UpdatePasswordRequest true "New password"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /auth/password [put]
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req UpdatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err := h.authService.UpdatePassword(c.Request().Context(), middleware.GetUserID(c), middleware.GetAccessToken(c), req.Password)
	if err != nil {
		return handleServiceError(c, err, "update password")
	}

	return c.NoContent(http.StatusNoContent)
}

// SignOut godoc
// @Summary Sign out
// @Description Revokes the session and clears the user's stored categories.
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} ProblemDetails
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	err := h.authService.SignOut(c.Request().Context(), middleware.GetUserID(c), middleware.GetAccessToken(c))
	if err != nil {
		return handleServiceError(c, err, "sign out")
	}

	return c.NoContent(http.StatusNoContent)
}

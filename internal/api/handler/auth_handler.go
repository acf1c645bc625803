package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskhub/taskhub-api/internal/api/metrics"
	"github.com/taskhub/taskhub-api/internal/core/domain"
	"github.com/taskhub/taskhub-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	// allowAdmin lets public registration request the administrator role.
	allowAdmin bool
}

func NewAuthHandler(authService ports.AuthService, allowAdminRegistration bool) *AuthHandler {
	return &AuthHandler{authService: authService, allowAdmin: allowAdminRegistration}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Description  role_id defaults to "user". Any existing role may be requested, including
// @Description  "administrator" unless ALLOW_ADMIN_REGISTRATION=false, in which case that
// @Description  request is refused with 403.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return err
	}

	roleID := domain.RoleID(req.RoleID)
	if roleID == "" {
		roleID = domain.RoleUser
	}
	if roleID == domain.RoleAdministrator && !h.allowAdmin {
		metrics.RegistrationsTotal.WithLabelValues("forbidden").Inc()
		return domain.ErrForbidden
	}

	p, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, roleID)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registrationResult(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, toUserResponse(p))
}

func registrationResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownRole):
		return "invalid"
	default:
		return "error"
	}
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_payload").Inc()
		return err
	}
	email := req.Email
	if email == "" {
		email = req.Username
	}

	res, err := h.authService.Login(c.Request().Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(res.ExpiresIn.Seconds()),
	})
}

// Me returns the authenticated principal.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := actor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(&p))
}

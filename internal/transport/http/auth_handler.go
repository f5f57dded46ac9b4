package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/njprem/authcore-api/internal/service"
	"github.com/njprem/authcore-api/internal/util"
)

const defaultIPResetMax = 20

type AuthHandler struct {
	auth *service.AuthService
}

// AuthRouteOptions configures the per-IP throttle in front of the password
// reset endpoints. A nil Limiter disables it.
type AuthRouteOptions struct {
	Limiter  RateLimiter
	IPMax    int
	IPWindow time.Duration
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, opts AuthRouteOptions) {
	handler := &AuthHandler{auth: auth}

	if opts.IPMax <= 0 {
		opts.IPMax = defaultIPResetMax
	}
	if opts.IPWindow <= 0 {
		opts.IPWindow = time.Minute
	}

	var resetGuards []echo.MiddlewareFunc
	if opts.Limiter != nil {
		resetGuards = append(resetGuards,
			RateLimitByIP(opts.Limiter, "password-reset", opts.IPMax, opts.IPWindow))
	}

	group := e.Group("/api/v1/auth")
	group.POST("/signup", handler.signup)
	group.POST("/signin", handler.signin)
	group.POST("/google", handler.google)
	group.POST("/forgot-password", handler.forgotPassword, resetGuards...)
	group.POST("/reset-password", handler.resetPassword, resetGuards...)

	protected := group.Group("", RequireAuth(auth))
	protected.POST("/change-password", handler.changePassword)
	protected.GET("/me", handler.me)
	protected.PUT("/me", handler.updateMe)
}

// bindAndValidate decodes the JSON body into req and runs its validate tags.
// The returned error text is safe to show to clients.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.New("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return errors.New(validationMessage(err))
	}
	return nil
}

// signup godoc
// @Summary Register with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup payload"
// @Success 201 {object} AuthTokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) signup(c echo.Context) error {
	var req SignupRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	result, err := h.auth.Signup(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toTokenResponse(result))
}

// signin godoc
// @Summary Sign in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body SigninRequest true "Signin payload"
// @Success 200 {object} AuthTokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/signin [post]
func (h *AuthHandler) signin(c echo.Context) error {
	var req SigninRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	result, err := h.auth.Signin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toTokenResponse(result))
}

// google godoc
// @Summary Sign in with a Google ID token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body GoogleLoginRequest true "Google ID token"
// @Success 200 {object} AuthTokenResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/auth/google [post]
func (h *AuthHandler) google(c echo.Context) error {
	var req GoogleLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	result, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toTokenResponse(result))
}

// forgotPassword godoc
// @Summary Request a password reset link
// @Description Always answers with the same message whether or not the email is registered.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ForgotPasswordRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) forgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	message, err := h.auth.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success(message))
}

// resetPassword godoc
// @Summary Set a new password with a reset token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	if err := h.auth.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success("Password has been reset."))
}

// changePassword godoc
// @Summary Change the password of the signed-in user
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/change-password [post]
func (h *AuthHandler) changePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	token, _ := c.Get(contextTokenKey).(string)
	if err := h.auth.ChangePassword(c.Request().Context(), token, req.CurrentPassword, req.NewPassword); err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, util.Success("Password has been changed."))
}

// me godoc
// @Summary Current user profile
// @Tags Auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} AuthUserResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) me(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	user, err := h.auth.Me(c.Request().Context(), claims.UserID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(user)})
}

// updateMe godoc
// @Summary Update the display name of the signed-in user
// @Tags Auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} AuthUserResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/auth/me [put]
func (h *AuthHandler) updateMe(c echo.Context) error {
	claims, ok := CurrentClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
	}
	var req UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}
	user, err := h.auth.UpdateProfile(c.Request().Context(), claims.UserID, req.Name)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(user)})
}

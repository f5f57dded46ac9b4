package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/njprem/authcore-api/internal/service"
	"github.com/njprem/authcore-api/internal/util"
)

// statusFor maps service errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrPasswordTooWeak),
		errors.Is(err, service.ErrResetTokenInvalid),
		errors.Is(err, service.ErrIncorrectPassword):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrProjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		return http.StatusConflict
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrFederatedUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(c echo.Context, err error) error {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		log.Printf("http: %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(status, util.Error("internal server error"))
	case http.StatusUnauthorized:
		// Never say which part of the credential check failed.
		if errors.Is(err, service.ErrInvalidCredentials) {
			return c.JSON(status, util.Error(service.ErrInvalidCredentials.Error()))
		}
		return c.JSON(status, util.Error(service.ErrUnauthorized.Error()))
	default:
		return c.JSON(status, util.Error(err.Error()))
	}
}

package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/njprem/authcore-api/internal/service"
	"github.com/njprem/authcore-api/internal/util"
)

const (
	contextClaimsKey = "auth.claims"
	contextTokenKey  = "auth.token"
)

// RequireAuth rejects requests without a valid bearer session token before
// the handler runs. Verified claims are stored on the context.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if strings.TrimSpace(authHeader) == "" {
				return c.JSON(http.StatusUnauthorized, util.Error("missing authorization header"))
			}
			token, ok := service.ParseBearer(authHeader)
			if !ok {
				return c.JSON(http.StatusUnauthorized, util.Error("invalid authorization header"))
			}
			claims, err := auth.Authorize(token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.Error(service.ErrUnauthorized.Error()))
			}
			c.Set(contextClaimsKey, claims)
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

func CurrentClaims(c echo.Context) (*util.Claims, bool) {
	claims, ok := c.Get(contextClaimsKey).(*util.Claims)
	return claims, ok && claims != nil
}

// RateLimiter is the subset of ratelimit.Limiter the HTTP layer needs.
type RateLimiter interface {
	Allow(key string, max int, period time.Duration) bool
}

// limiterStore adapts a fixed-window limiter to echo's RateLimiterStore.
type limiterStore struct {
	limiter RateLimiter
	prefix  string
	max     int
	window  time.Duration
}

func (s *limiterStore) Allow(identifier string) (bool, error) {
	return s.limiter.Allow(s.prefix+identifier, s.max, s.window), nil
}

// RateLimitByIP throttles a route per client IP. Keys are namespaced by name
// so different routes keep separate counters.
func RateLimitByIP(limiter RateLimiter, name string, max int, window time.Duration) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: &limiterStore{
			limiter: limiter,
			prefix:  "ip:" + name + ":",
			max:     max,
			window:  window,
		},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, util.Error("unable to identify client"))
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, util.Error(service.ErrRateLimited.Error()))
		},
	})
}

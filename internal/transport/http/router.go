package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const defaultMaxRequestBody = "1M"

// RouterConfig holds the cross-cutting HTTP settings shared by every route.
type RouterConfig struct {
	AllowOrigins []string
	// MaxRequestBody uses echo's size notation, e.g. "512K" or "1M".
	MaxRequestBody string
}

func NewRouter(cfg RouterConfig) *echo.Echo {
	if cfg.MaxRequestBody == "" {
		cfg.MaxRequestBody = defaultMaxRequestBody
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()

	e.Use(middleware.RequestID())
	registerLogging(e)
	e.Use(middleware.Recover())
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "no-referrer",
	}))
	e.Use(middleware.BodyLimit(cfg.MaxRequestBody))
	e.Use(middleware.CORSWithConfig(corsConfig(cfg.AllowOrigins)))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	return e
}

// corsConfig lets browsers send bearer tokens cross-origin. Credentials are
// only allowed with an explicit origin list; a wildcard disables them.
func corsConfig(origins []string) middleware.CORSConfig {
	wildcard := false
	for _, origin := range origins {
		if origin == "*" {
			wildcard = true
		}
	}
	return middleware.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
		ExposeHeaders:    []string{echo.HeaderXRequestID, "Retry-After"},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	}
}

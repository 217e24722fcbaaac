package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// APIKeyMiddleware provides API key authentication for the report server.
// Health endpoints stay open so probes keep working when auth is enabled.
func APIKeyMiddleware(expectedAPIKey string, appLogger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if path == "/health" || path == "/health/detailed" || path == "/openapi.json" {
				return next(c)
			}

			apiKey := c.Request().Header.Get("X-API-Key")
			if apiKey == "" {
				apiKey = c.QueryParam("api_key")
			}

			if apiKey != expectedAPIKey {
				appLogger.Warn("Unauthorized API access attempt",
					zap.String("ip", c.RealIP()),
					zap.String("path", path),
					zap.String("method", c.Request().Method))
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
			}

			return next(c)
		}
	}
}

package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"k6-harness/pkg/config"
)

// SetupMiddleware configures the report server's middleware stack.
//
// Ordering matters: request IDs first so every later log line can carry one,
// then the cheap rejections (rate limit, IP allowlist) before recovery,
// headers, CORS, and finally authentication.
func SetupMiddleware(e *echo.Echo, cfg *config.Config, appLogger *zap.Logger) {
	e.Use(middleware.RequestID())

	if cfg.RateLimit > 0 {
		e.Use(SetupRateLimiter(cfg))
	}

	if len(cfg.AllowedIPs) > 0 {
		allowlist := NewIPAllowlist(cfg.AllowedIPs, appLogger)
		e.Use(allowlist.Middleware())
	}

	e.Use(middleware.Recover())

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{echo.GET, echo.HEAD, echo.OPTIONS},
	}))

	if cfg.EnableServerLogging {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogURI:    true,
			LogStatus: true,
			LogMethod: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				appLogger.Info("request",
					zap.String("method", v.Method),
					zap.String("uri", v.URI),
					zap.Int("status", v.Status))
				return nil
			},
		}))
	}

	if cfg.EnableAuth && cfg.APIKey != "" {
		e.Use(APIKeyMiddleware(cfg.APIKey, appLogger))
	}
}

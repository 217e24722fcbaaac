// Package tls provides HTTPS support for the report server using automatic
// Let's Encrypt certificate management through Echo's AutoTLS integration.
package tls

import (
	"fmt"
	"os"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"k6-harness/pkg/config"
)

// SetupAutoTLS configures automatic certificate management on the Echo
// instance. With no TLS hosts configured any hostname is accepted, which is
// only safe for development.
func SetupAutoTLS(e *echo.Echo, cfg *config.Config, appLogger *zap.Logger) error {
	if err := os.MkdirAll(cfg.TLSCacheDir, 0o700); err != nil {
		return fmt.Errorf("failed to create TLS cache directory: %w", err)
	}

	e.AutoTLSManager.Cache = autocert.DirCache(cfg.TLSCacheDir)
	e.AutoTLSManager.Prompt = autocert.AcceptTOS

	if len(cfg.TLSHosts) > 0 {
		e.AutoTLSManager.HostPolicy = autocert.HostWhitelist(cfg.TLSHosts...)
		appLogger.Info("AutoTLS host policy configured",
			zap.Strings("hosts", cfg.TLSHosts))
	} else {
		appLogger.Warn("AutoTLS running without a host policy; any hostname will be accepted (development only)")
	}

	return nil
}

// StartAutoTLS starts the HTTPS listener. Blocks until the server stops.
func StartAutoTLS(e *echo.Echo, cfg *config.Config, appLogger *zap.Logger) error {
	addr := ":" + cfg.TLSPort
	appLogger.Info("Starting report server with AutoTLS",
		zap.String("addr", addr),
		zap.String("cache_dir", cfg.TLSCacheDir))
	return e.StartAutoTLS(addr)
}

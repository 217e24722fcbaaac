package middleware

import (
	"net"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// IPAllowlist provides network-level access control for the report server.
// Allowed entries are exact IPs or CIDR blocks; decisions are memoized in an
// LRU cache so repeated clients skip the parse-and-match work.
type IPAllowlist struct {
	exactIPs        map[string]bool
	allowedNetworks []*net.IPNet
	cache           *lru.Cache[string, bool]
	logger          *zap.Logger
	openPaths       map[string]bool
}

// NewIPAllowlist builds the allowlist from IP and CIDR strings. Entries that
// fail to parse are logged and skipped rather than failing startup.
func NewIPAllowlist(allowed []string, appLogger *zap.Logger) *IPAllowlist {
	cache, err := lru.New[string, bool](1000)
	if err != nil {
		cache, _ = lru.New[string, bool](100)
	}

	a := &IPAllowlist{
		exactIPs: make(map[string]bool),
		cache:    cache,
		logger:   appLogger,
		openPaths: map[string]bool{
			"/health":          true,
			"/health/detailed": true,
		},
	}

	for _, entry := range allowed {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			_, network, err := net.ParseCIDR(entry)
			if err != nil {
				appLogger.Warn("Ignoring invalid CIDR in allowlist", zap.String("entry", entry), zap.Error(err))
				continue
			}
			a.allowedNetworks = append(a.allowedNetworks, network)
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			a.exactIPs[ip.String()] = true
			continue
		}
		appLogger.Warn("Ignoring invalid IP in allowlist", zap.String("entry", entry))
	}

	return a
}

// Middleware returns the Echo middleware enforcing the allowlist.
// Health endpoints stay reachable for load balancers regardless of client IP.
func (a *IPAllowlist) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if a.openPaths[c.Request().URL.Path] {
				return next(c)
			}

			clientIP := c.RealIP()
			if a.isAllowed(clientIP) {
				return next(c)
			}

			a.logger.Warn("Rejected request from non-allowlisted IP",
				zap.String("ip", clientIP),
				zap.String("path", c.Request().URL.Path))
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		}
	}
}

func (a *IPAllowlist) isAllowed(clientIP string) bool {
	if allowed, ok := a.cache.Get(clientIP); ok {
		return allowed
	}

	allowed := a.check(clientIP)
	a.cache.Add(clientIP, allowed)
	return allowed
}

func (a *IPAllowlist) check(clientIP string) bool {
	ip := net.ParseIP(clientIP)
	if ip == nil {
		return false
	}
	if a.exactIPs[ip.String()] {
		return true
	}
	for _, network := range a.allowedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

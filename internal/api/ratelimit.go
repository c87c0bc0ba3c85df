package api

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/boxofficeapp/boxoffice-server/internal/config"
	"github.com/boxofficeapp/boxoffice-server/internal/http/response"
	"github.com/boxofficeapp/boxoffice-server/internal/ratelimit"
)

// loginRateLimit throttles login page submissions per client IP.
// Only POSTs to a login path consume tokens; catalog reads and the
// login page GET are never limited.
func loginRateLimit(cfg config.PresaleConfig, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	rps := float64(cfg.LoginRatePerMinute) / time.Minute.Seconds()
	limiter := ratelimit.New(rps, cfg.LoginBurst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/login") {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				logger.Warn("Login rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				response.TooManyRequests(w, "Too many login attempts. Please try again later.", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP picks the rate limit key for a request. Proxy headers
// win over RemoteAddr; in X-Forwarded-For the first hop is the client.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

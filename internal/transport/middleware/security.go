package middleware

import (
	"log/slog"
	"net/http"

	"github.com/unrolled/secure"

	"github.com/frahmantamala/datascope/internal"
)

// SecureHeaders applies the standard response hardening headers. Swagger UI needs
// inline scripts, so the CSP stays permissive outside production.
func SecureHeaders(production bool, logger *slog.Logger) func(http.Handler) http.Handler {
	opts := secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !production,
	}
	if production {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.ContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	}
	sec := secure.New(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", "error", err, "host", r.Host)
				writeAppError(w, internal.NewValidationError("Request blocked", internal.ErrCodeValidationFailed))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/frahmantamala/datascope/internal"
)

// PublicRateLimit throttles the unauthenticated capture endpoints per client IP.
func PublicRateLimit(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(publicKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeAppError(w, internal.ErrTooManyRequests)
		}),
	)
}

func publicKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "public:" + key, nil
}

package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/transport"
	"github.com/frahmantamala/datascope/pkg/logger"
)

// Authenticator turns a bearer token into an internal.Identity on the request context.
type Authenticator struct {
	*transport.BaseHandler
	validator TokenValidator
}

func NewAuthenticator(validator TokenValidator, lg *slog.Logger) *Authenticator {
	return &Authenticator{
		BaseHandler: transport.NewBaseHandler(lg),
		validator:   validator,
	}
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.ExtractTokenFromHeader(r)
		if token == "" {
			a.Logger.Debug("auth middleware: missing authorization token", "path", r.URL.Path)
			a.WriteAppError(w, internal.ErrMissingToken)
			return
		}

		claims, err := a.validator.ValidateToken(token)
		if err != nil {
			a.Logger.Warn("auth middleware: token validation failed", "error", err)
			a.HandleServiceError(w, err)
			return
		}

		identity := claims.Identity()
		ctx := internal.ContextWithIdentity(r.Context(), identity)
		ctx = logger.With(ctx, "user_id", identity.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

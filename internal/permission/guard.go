package permission

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/transport"
	"github.com/frahmantamala/datascope/pkg/logger"
)

type Checker interface {
	Check(ctx context.Context, scope internal.Scope, module, perm string) (Decision, error)
}

// DecisionRecorder receives every guard outcome, e.g. for metrics.
type DecisionRecorder interface {
	ObserveDecision(module, permission, state string)
}

// Guard protects routes behind a (module, permission) check on the caller's snapshot.
type Guard struct {
	*transport.BaseHandler
	checker  Checker
	recorder DecisionRecorder
}

func NewGuard(checker Checker, lg *slog.Logger) *Guard {
	return &Guard{
		BaseHandler: transport.NewBaseHandler(lg),
		checker:     checker,
	}
}

func (g *Guard) WithRecorder(r DecisionRecorder) *Guard {
	g.recorder = r
	return g
}

func (g *Guard) observe(module, perm string, state State) {
	if g.recorder != nil {
		g.recorder.ObserveDecision(module, perm, string(state))
	}
}

// Require must run after the company scope middleware.
func (g *Guard) Require(module, perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := g.ScopeOrFail(w, r)
			if !ok {
				return
			}

			decision, err := g.checker.Check(r.Context(), scope, module, perm)
			if err != nil {
				logger.From(r.Context()).Error("permission check failed",
					"module", module,
					"permission", perm,
					"error", err)
				g.observe(module, perm, StateError)
				g.WriteAppError(w, internal.NewInternalError("failed to load permissions", err))
				return
			}

			g.observe(module, perm, decision.State)
			switch decision.State {
			case StateGranted:
				next.ServeHTTP(w, r)
			case StateLoading:
				w.Header().Set("Retry-After", "1")
				g.WriteAppError(w, internal.ErrPermissionsLoading)
			default:
				logger.From(r.Context()).Warn("access denied",
					"user_id", scope.UserID,
					"role", scope.Role,
					"module", module,
					"permission", perm)
				g.WriteAppError(w, internal.ErrPermissionDenied)
			}
		})
	}
}

package internal

import (
	"context"
	"strconv"
	"time"
)

type ctxKey string

const (
	ContextIdentityKey ctxKey = "identity"
	ContextScopeKey    ctxKey = "companyScope"
)

// Identity is the authenticated caller as asserted by a validated access token.
type Identity struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	SessionID string `json:"session_id"`
}

// Scope is the single company a request operates on, resolved from the caller's memberships.
type Scope struct {
	CompanyID int64  `json:"company_id"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

// SessionKey identifies the permission snapshot cached for this scope.
func (s Scope) SessionKey() string {
	if s.SessionID != "" {
		return s.SessionID + ":" + strconv.FormatInt(s.CompanyID, 10)
	}
	return s.UserID + ":" + strconv.FormatInt(s.CompanyID, 10)
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(ContextIdentityKey).(Identity)
	return id, ok && id.UserID != ""
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

func ContextWithScope(ctx context.Context, scope Scope) context.Context {
	return context.WithValue(ctx, ContextScopeKey, scope)
}

func ScopeFromContext(ctx context.Context) (Scope, bool) {
	if ctx == nil {
		return Scope{}, false
	}
	scope, ok := ctx.Value(ContextScopeKey).(Scope)
	return scope, ok && scope.CompanyID != 0
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

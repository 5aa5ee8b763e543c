package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/frahmantamala/datascope/internal"
	permissionDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/permission"
)

// ErrSnapshotPending means the snapshot is still loading; callers treat it as the loading state.
var ErrSnapshotPending = errors.New("permission snapshot still loading")

// DefaultsCompanyID marks the role table rows every company inherits.
const DefaultsCompanyID int64 = 0

type RepositoryAPI interface {
	ListByRole(ctx context.Context, companyID int64, role string) ([]*permissionDatamodel.RolePermission, error)
	Upsert(ctx context.Context, rp *permissionDatamodel.RolePermission) error
}

type Options struct {
	TTL         time.Duration
	LoadTimeout time.Duration
}

type Service struct {
	repo   RepositoryAPI
	cache  Cache
	group  singleflight.Group
	opts   Options
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, cache Cache, opts Options, logger *slog.Logger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 2 * time.Second
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		opts:   opts,
		logger: logger,
	}
}

// Snapshot returns the permission set of the scope's session, loading it once per
// key no matter how many requests ask concurrently. If the load outlives LoadTimeout
// ErrSnapshotPending is returned while the load keeps running and fills the cache.
func (s *Service) Snapshot(ctx context.Context, scope internal.Scope) (*Set, error) {
	key := scope.SessionKey()

	if set, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("permission cache read failed", "key", key, "error", err)
	} else if ok && set.Loaded() {
		return set, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.load(loadCtx, scope)
	})

	timer := time.NewTimer(s.opts.LoadTimeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		s.logger.Debug("permission snapshot still loading", "key", key)
		return nil, ErrSnapshotPending
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Set), nil
	}
}

func (s *Service) load(ctx context.Context, scope internal.Scope) (*Set, error) {
	rows, err := s.repo.ListByRole(ctx, scope.CompanyID, scope.Role)
	if err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}
	grants := effectiveGrants(rows)
	set := NewSet(scope.CompanyID, scope.UserID, scope.Role, grants)
	if err := s.cache.Put(ctx, scope.SessionKey(), set, s.opts.TTL); err != nil {
		s.logger.Warn("permission cache write failed", "key", scope.SessionKey(), "error", err)
	}
	s.logger.Debug("permission snapshot loaded",
		"company_id", scope.CompanyID,
		"role", scope.Role,
		"grants", len(grants))
	return set, nil
}

// Check evaluates one permission for the scope. Load failures are reported in the
// decision's state rather than as an error when the snapshot is merely pending.
func (s *Service) Check(ctx context.Context, scope internal.Scope, module, perm string) (Decision, error) {
	set, err := s.Snapshot(ctx, scope)
	if err != nil {
		if errors.Is(err, ErrSnapshotPending) {
			return Evaluate(nil, module, perm), nil
		}
		d := Evaluate(nil, module, perm)
		d.State = StateError
		return d, err
	}
	return Evaluate(set, module, perm), nil
}

// Forget drops the cached snapshot so the next request reloads it.
func (s *Service) Forget(ctx context.Context, scope internal.Scope) error {
	s.group.Forget(scope.SessionKey())
	return s.cache.Delete(ctx, scope.SessionKey())
}

// ListRolePermissions returns the grants the role has inside one company.
func (s *Service) ListRolePermissions(ctx context.Context, companyID int64, role string) ([]RoleGrant, error) {
	rows, err := s.repo.ListByRole(ctx, companyID, role)
	if err != nil {
		return nil, internal.NewInternalError("failed to list role permissions", err)
	}
	return effectiveGrants(rows), nil
}

// SetRolePermission stores a grant for the role inside one company only.
// DefaultsCompanyID edits the defaults shared by every company.
func (s *Service) SetRolePermission(ctx context.Context, companyID int64, role string, grant RoleGrant) error {
	if !IsKnown(grant.Module, grant.Permission) {
		return internal.NewValidationFieldError("permission",
			fmt.Sprintf("unknown permission %s", Key(grant.Module, grant.Permission)),
			internal.ErrCodeUnknownPermission)
	}
	row := &permissionDatamodel.RolePermission{
		CompanyID:  companyID,
		Role:       role,
		Module:     normalize(grant.Module),
		Permission: normalize(grant.Permission),
		Allowed:    grant.Allowed,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return internal.NewInternalError("failed to save role permission", err)
	}
	s.logger.Info("role permission updated",
		"company_id", companyID,
		"role", role,
		"module", row.Module,
		"permission", row.Permission,
		"allowed", row.Allowed)
	return nil
}

// SeedDefaults writes DefaultGrants for every role as the shared defaults.
func (s *Service) SeedDefaults(ctx context.Context) error {
	for role, grants := range DefaultGrants() {
		for _, g := range grants {
			if err := s.SetRolePermission(ctx, DefaultsCompanyID, role, g); err != nil {
				return fmt.Errorf("seed %s %s: %w", role, Key(g.Module, g.Permission), err)
			}
		}
	}
	return nil
}

// effectiveGrants folds company rows over the defaults, keeping the order of rows.
func effectiveGrants(rows []*permissionDatamodel.RolePermission) []RoleGrant {
	out := make([]RoleGrant, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		grant := RoleGrant{Module: row.Module, Permission: row.Permission, Allowed: row.Allowed}
		key := Key(row.Module, row.Permission)
		if i, seen := index[key]; seen {
			if row.CompanyID != DefaultsCompanyID {
				out[i] = grant
			}
			continue
		}
		index[key] = len(out)
		out = append(out, grant)
	}
	return out
}

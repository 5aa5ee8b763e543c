package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/company"
	"github.com/frahmantamala/datascope/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/user"
	"github.com/frahmantamala/datascope/internal/permission"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*userDatamodel.User, error)
	Save(ctx context.Context, u *userDatamodel.User) error
}

type CompanyDirectory interface {
	ResolveScope(ctx context.Context, identity internal.Identity, requestedCompanyID int64) (internal.Scope, error)
	ListMemberships(ctx context.Context, userID string) ([]company.Membership, error)
}

type PermissionSnapshotter interface {
	Snapshot(ctx context.Context, scope internal.Scope) (*permission.Set, error)
}

type Service struct {
	repo        Repository
	companies   CompanyDirectory
	permissions PermissionSnapshotter
	logger      *slog.Logger
}

func NewService(repo Repository, companies CompanyDirectory, permissions PermissionSnapshotter, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		companies:   companies,
		permissions: permissions,
		logger:      logger,
	}
}

// Sync makes sure a profile row exists for the token's subject and keeps its email current.
func (s *Service) Sync(ctx context.Context, identity internal.Identity) (*User, error) {
	row, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}

	now := time.Now().UTC()
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	switch {
	case row == nil:
		row = &userDatamodel.User{ID: identity.UserID, Email: email, CreatedAt: now, UpdatedAt: now}
	case email != "" && row.Email != email:
		row.Email = email
		row.UpdatedAt = now
	default:
		return FromDataModel(row), nil
	}

	if err := s.repo.Save(ctx, row); err != nil {
		s.logger.Error("failed to sync user profile", "user_id", identity.UserID, "error", err)
		return nil, internal.NewInternalError("failed to save user", err)
	}
	s.logger.Debug("user profile synced", "user_id", identity.UserID)
	return FromDataModel(row), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// Me returns the caller's profile, memberships and, when one company resolves,
// the permission snapshot for it.
func (s *Service) Me(ctx context.Context, identity internal.Identity, requestedCompanyID int64) (*Profile, error) {
	u, err := s.Sync(ctx, identity)
	if err != nil {
		return nil, err
	}

	memberships, err := s.companies.ListMemberships(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	profile := &Profile{User: u, Companies: memberships}

	scope, err := s.companies.ResolveScope(ctx, identity, requestedCompanyID)
	switch {
	case err == nil:
	case errors.Is(err, internal.ErrCompanyScopeRequired), errors.Is(err, internal.ErrNoCompany):
		return profile, nil
	default:
		return nil, err
	}

	snapshot := &permission.SnapshotResponse{
		CompanyID: scope.CompanyID,
		Role:      scope.Role,
		Allowed:   map[string][]string{},
	}
	set, err := s.permissions.Snapshot(ctx, scope)
	switch {
	case err == nil:
		snapshot.State = permission.StateGranted
		snapshot.Allowed = set.Allowed()
	case errors.Is(err, permission.ErrSnapshotPending):
		snapshot.State = permission.StateLoading
	default:
		s.logger.Warn("permission snapshot unavailable for profile", "user_id", identity.UserID, "error", err)
		snapshot.State = permission.StateError
	}
	profile.Permissions = snapshot
	return profile, nil
}

func (s *Service) UpdateProfile(ctx context.Context, identity internal.Identity, dto UpdateProfileDTO) (*User, error) {
	dto.FullName = strings.TrimSpace(dto.FullName)
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	u, err := s.Sync(ctx, identity)
	if err != nil {
		return nil, err
	}
	if u.FullName == dto.FullName {
		return u, nil
	}

	u.FullName = dto.FullName
	u.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, ToDataModel(u)); err != nil {
		return nil, internal.NewInternalError("failed to save user", err)
	}
	return u, nil
}

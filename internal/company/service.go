package company

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/datascope/internal"
	companyDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/company"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error)
	GetMember(ctx context.Context, companyID int64, userID string) (*companyDatamodel.Member, error)
	ListMemberships(ctx context.Context, userID string) ([]*companyDatamodel.Membership, error)
	Create(ctx context.Context, c *companyDatamodel.Company) error
	AddMember(ctx context.Context, m *companyDatamodel.Member) error
	ListMemberIDs(ctx context.Context, companyID int64) ([]string, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ResolveScope picks exactly one company for the caller. An explicit request must be
// one of the caller's memberships; without one the caller must belong to a single company.
func (s *Service) ResolveScope(ctx context.Context, identity internal.Identity, requestedCompanyID int64) (internal.Scope, error) {
	scope := internal.Scope{UserID: identity.UserID, SessionID: identity.SessionID}

	if requestedCompanyID > 0 {
		member, err := s.repo.GetMember(ctx, requestedCompanyID, identity.UserID)
		if err != nil {
			return internal.Scope{}, internal.NewInternalError("failed to resolve company membership", err)
		}
		if member == nil {
			s.logger.Warn("company scope rejected: not a member",
				"user_id", identity.UserID,
				"company_id", requestedCompanyID)
			return internal.Scope{}, internal.ErrNotCompanyMember
		}
		scope.CompanyID = member.CompanyID
		scope.Role = member.Role
		return scope, nil
	}

	memberships, err := s.repo.ListMemberships(ctx, identity.UserID)
	if err != nil {
		return internal.Scope{}, internal.NewInternalError("failed to list company memberships", err)
	}
	switch len(memberships) {
	case 0:
		return internal.Scope{}, internal.ErrNoCompany
	case 1:
		scope.CompanyID = memberships[0].CompanyID
		scope.Role = memberships[0].Role
		return scope, nil
	default:
		return internal.Scope{}, internal.ErrCompanyScopeRequired
	}
}

func (s *Service) ListMemberships(ctx context.Context, userID string) ([]Membership, error) {
	rows, err := s.repo.ListMemberships(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list memberships", "user_id", userID, "error", err)
		return nil, internal.NewInternalError("failed to list memberships", err)
	}
	return MembershipsFromDataModel(rows), nil
}

// Exists reports whether a company accepts public submissions.
func (s *Service) Exists(ctx context.Context, companyID int64) (bool, error) {
	c, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return false, internal.NewInternalError("failed to load company", err)
	}
	return c != nil, nil
}

// CreateWithOwner creates a company and makes ownerID its admin. Used by the seed command.
func (s *Service) CreateWithOwner(ctx context.Context, name, slug, ownerID string) (*Company, error) {
	row := &companyDatamodel.Company{Name: name, Slug: slug}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	if err := s.repo.AddMember(ctx, &companyDatamodel.Member{CompanyID: row.ID, UserID: ownerID, Role: RoleAdmin}); err != nil {
		return nil, fmt.Errorf("add company owner: %w", err)
	}
	s.logger.Info("company created", "company_id", row.ID, "slug", slug, "owner_id", ownerID)
	return FromDataModel(row), nil
}

func (s *Service) AddMember(ctx context.Context, companyID int64, userID, role string) error {
	if !IsValidRole(role) {
		return internal.NewValidationFieldError("role", fmt.Sprintf("unknown role %q", role), internal.ErrCodeValidationFailed)
	}
	return s.repo.AddMember(ctx, &companyDatamodel.Member{CompanyID: companyID, UserID: userID, Role: role})
}

// MemberIDs lists the user ids of every member of a company.
func (s *Service) MemberIDs(ctx context.Context, companyID int64) ([]string, error) {
	ids, err := s.repo.ListMemberIDs(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company members: %w", err)
	}
	return ids, nil
}

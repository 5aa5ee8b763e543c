package lead

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/core/common/validation"
	leadDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/lead"
	"github.com/frahmantamala/datascope/internal/core/events"
	"github.com/frahmantamala/datascope/internal/transport"
)

type RepositoryAPI interface {
	Create(ctx context.Context, l *leadDatamodel.Lead) error
	GetByID(ctx context.Context, companyID, id int64) (*leadDatamodel.Lead, error)
	GetByEmail(ctx context.Context, companyID int64, email string) (*leadDatamodel.Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*leadDatamodel.Lead, int64, error)
	ListAll(ctx context.Context, companyID int64) ([]*leadDatamodel.Lead, error)
	Update(ctx context.Context, l *leadDatamodel.Lead) error
	Delete(ctx context.Context, companyID, id int64) (bool, error)
	CountByStatus(ctx context.Context, companyID int64) ([]leadDatamodel.StatusCount, error)
}

// CompanyChecker confirms a company exists before accepting anonymous submissions.
type CompanyChecker interface {
	Exists(ctx context.Context, companyID int64) (bool, error)
}

type Service struct {
	repo      RepositoryAPI
	companies CompanyChecker
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, companies CompanyChecker, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		companies: companies,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, scope internal.Scope, dto CreateLeadDTO) (*Lead, error) {
	if dto.Source == "" {
		dto.Source = SourceManual
	}
	l, err := s.create(ctx, scope.CompanyID, dto, scope.UserID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTypeLeadCreated, l, scope.UserID, "", l.Status)
	return l, nil
}

// Capture stores a lead submitted through a public web form.
func (s *Service) Capture(ctx context.Context, companyID int64, dto CreateLeadDTO) (*Lead, error) {
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	if dto.Source == "" {
		dto.Source = SourceWebForm
	}
	l, err := s.create(ctx, companyID, dto, "")
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.EventTypeLeadCreated, l, "", "", l.Status)
	return l, nil
}

// FindOrCreate returns the company's lead with the dto's email, creating it with the
// given source when there is none. Used by survey responses and raffle entries.
func (s *Service) FindOrCreate(ctx context.Context, companyID int64, dto CreateLeadDTO, source string) (*Lead, bool, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, false, appErr
	}

	existing, err := s.repo.GetByEmail(ctx, companyID, dto.Email)
	if err != nil {
		return nil, false, internal.NewInternalError("failed to look up lead", err)
	}
	if existing != nil {
		return FromDataModel(existing), false, nil
	}

	dto.Source = source
	l, err := s.create(ctx, companyID, dto, "")
	if err != nil {
		return nil, false, err
	}
	s.publish(ctx, events.EventTypeLeadCreated, l, "", "", l.Status)
	return l, true, nil
}

func (s *Service) create(ctx context.Context, companyID int64, dto CreateLeadDTO, createdBy string) (*Lead, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	existing, err := s.repo.GetByEmail(ctx, companyID, dto.Email)
	if err != nil {
		return nil, internal.NewInternalError("failed to check lead email", err)
	}
	if existing != nil {
		return nil, internal.ErrLeadAlreadyExists
	}

	now := time.Now().UTC()
	row := &leadDatamodel.Lead{
		CompanyID: companyID,
		Name:      dto.Name,
		Email:     dto.Email,
		Phone:     dto.Phone,
		Company:   dto.Company,
		Status:    StatusNew,
		Source:    dto.Source,
		Interests: dto.Interests,
		Notes:     dto.Notes,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to create lead", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to create lead", err)
	}

	s.logger.Info("lead created",
		"lead_id", row.ID,
		"company_id", companyID,
		"source", row.Source)
	return FromDataModel(row), nil
}

func (s *Service) Get(ctx context.Context, scope internal.Scope, id int64) (*Lead, error) {
	row, err := s.load(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, scope internal.Scope, filter ListFilter) (*ListResult, error) {
	filter.CompanyID = scope.CompanyID
	if filter.Limit <= 0 || filter.Limit > transport.MaxPageLimit {
		filter.Limit = transport.DefaultPageLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != "" && !contains(Statuses, filter.Status) {
		return nil, internal.NewValidationFieldError("status", "unknown status "+filter.Status, internal.ErrCodeInvalidStatus)
	}
	if filter.Source != "" && !contains(Sources, filter.Source) {
		return nil, internal.NewValidationFieldError("source", "unknown source "+filter.Source, internal.ErrCodeInvalidSource)
	}

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list leads", "company_id", scope.CompanyID, "error", err)
		return nil, internal.NewInternalError("failed to list leads", err)
	}

	leads := make([]*Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, FromDataModel(row))
	}
	return &ListResult{Leads: leads, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// Update applies a partial update. Nothing is written or published when no field changes.
func (s *Service) Update(ctx context.Context, scope internal.Scope, id int64, dto UpdateLeadDTO) (*Lead, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	row, err := s.load(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, err
	}

	changed := false
	set := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	if dto.Email != nil && *dto.Email != row.Email {
		other, err := s.repo.GetByEmail(ctx, scope.CompanyID, *dto.Email)
		if err != nil {
			return nil, internal.NewInternalError("failed to check lead email", err)
		}
		if other != nil {
			return nil, internal.ErrLeadAlreadyExists
		}
	}
	set(&row.Name, dto.Name)
	set(&row.Email, dto.Email)
	set(&row.Phone, dto.Phone)
	set(&row.Company, dto.Company)
	set(&row.Source, dto.Source)
	set(&row.Notes, dto.Notes)
	if dto.Interests != nil && !equalStrings(row.Interests, *dto.Interests) {
		row.Interests = *dto.Interests
		changed = true
	}

	if !changed {
		return FromDataModel(row), nil
	}

	row.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, row); err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		return nil, internal.NewInternalError("failed to update lead", err)
	}

	l := FromDataModel(row)
	s.publish(ctx, events.EventTypeLeadUpdated, l, scope.UserID, "", l.Status)
	return l, nil
}

func (s *Service) ChangeStatus(ctx context.Context, scope internal.Scope, id int64, dto ChangeStatusDTO) (*Lead, error) {
	if appErr := validation.Struct(dto); appErr != nil {
		return nil, appErr
	}

	row, err := s.load(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, err
	}

	from := row.Status
	if !CanTransition(from, dto.Status) {
		s.logger.Warn("rejected lead status transition",
			"lead_id", id,
			"from", from,
			"to", dto.Status)
		return nil, internal.NewConflictError(
			fmt.Sprintf("Cannot change lead status from %s to %s", from, dto.Status),
			internal.ErrCodeInvalidTransition)
	}

	row.Status = dto.Status
	row.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, internal.NewInternalError("failed to update lead status", err)
	}

	eventType := events.EventTypeLeadStatusChanged
	switch dto.Status {
	case StatusConverted:
		eventType = events.EventTypeLeadConverted
	case StatusLost:
		eventType = events.EventTypeLeadLost
	}

	l := FromDataModel(row)
	s.logger.Info("lead status changed", "lead_id", id, "from", from, "to", l.Status)
	s.publish(ctx, eventType, l, scope.UserID, from, l.Status)
	return l, nil
}

func (s *Service) Delete(ctx context.Context, scope internal.Scope, id int64) error {
	deleted, err := s.repo.Delete(ctx, scope.CompanyID, id)
	if err != nil {
		return internal.NewInternalError("failed to delete lead", err)
	}
	if !deleted {
		return internal.ErrLeadNotFound
	}
	s.logger.Info("lead deleted", "lead_id", id, "company_id", scope.CompanyID, "user_id", scope.UserID)
	return nil
}

// Stats counts the company's leads per status; every status is present.
func (s *Service) Stats(ctx context.Context, scope internal.Scope) (*Stats, error) {
	counts, err := s.repo.CountByStatus(ctx, scope.CompanyID)
	if err != nil {
		return nil, internal.NewInternalError("failed to count leads", err)
	}
	stats := &Stats{ByStatus: make(map[string]int64, len(Statuses))}
	for _, status := range Statuses {
		stats.ByStatus[status] = 0
	}
	for _, c := range counts {
		stats.ByStatus[c.Status] += c.Count
		stats.Total += c.Count
	}
	return stats, nil
}

func (s *Service) load(ctx context.Context, companyID, id int64) (*leadDatamodel.Lead, error) {
	row, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load lead", err)
	}
	if row == nil {
		return nil, internal.ErrLeadNotFound
	}
	return row, nil
}

func (s *Service) requireCompany(ctx context.Context, companyID int64) error {
	if s.companies == nil {
		return nil
	}
	ok, err := s.companies.Exists(ctx, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.ErrCompanyNotFound
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, l *Lead, actorID, from, to string) {
	if s.publisher == nil {
		return
	}
	event := events.NewLeadEvent(eventType, l.CompanyID, l.ID, l.Name, actorID, from, to)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish lead event",
			"event_type", eventType,
			"lead_id", l.ID,
			"error", err)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

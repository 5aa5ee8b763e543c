package survey

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/datascope/internal"
	surveyDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/survey"
	"github.com/frahmantamala/datascope/internal/lead"
	"github.com/frahmantamala/datascope/internal/transport"
)

type RepositoryAPI interface {
	Create(ctx context.Context, s *surveyDatamodel.Survey) error
	GetByID(ctx context.Context, companyID, id int64) (*surveyDatamodel.Survey, error)
	// GetPublic loads a survey without a company scope, for anonymous respondents.
	GetPublic(ctx context.Context, id int64) (*surveyDatamodel.Survey, error)
	List(ctx context.Context, companyID int64, limit, offset int) ([]*surveyDatamodel.Survey, int64, error)
	SetActive(ctx context.Context, companyID, id int64, active bool, at time.Time) (bool, error)
	CreateResponse(ctx context.Context, r *surveyDatamodel.Response) error
	ListResponses(ctx context.Context, companyID, surveyID int64, limit, offset int) ([]*surveyDatamodel.Response, int64, error)
}

// LeadFinder attaches submissions to the company's lead for the respondent's email.
type LeadFinder interface {
	FindOrCreate(ctx context.Context, companyID int64, dto lead.CreateLeadDTO, source string) (*lead.Lead, bool, error)
}

type ListResult struct {
	Surveys []*Survey `json:"surveys"`
	Total   int64     `json:"total"`
	Limit   int       `json:"limit"`
	Offset  int       `json:"offset"`
}

type ResponseList struct {
	Responses []*Response `json:"responses"`
	Total     int64       `json:"total"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}

type SubmitResult struct {
	ResponseID  int64 `json:"response_id"`
	LeadID      int64 `json:"lead_id"`
	LeadCreated bool  `json:"lead_created"`
}

type Service struct {
	repo   RepositoryAPI
	leads  LeadFinder
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, leads LeadFinder, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		leads:  leads,
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, scope internal.Scope, dto CreateSurveyDTO) (*Survey, error) {
	dto.Normalize()
	if appErr := dto.Validate(); appErr != nil {
		return nil, appErr
	}

	now := time.Now().UTC()
	row := &surveyDatamodel.Survey{
		CompanyID:   scope.CompanyID,
		Title:       dto.Title,
		Description: dto.Description,
		Questions:   toDataQuestions(dto.Questions),
		IsActive:    true,
		CreatedBy:   scope.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create survey", "company_id", scope.CompanyID, "error", err)
		return nil, internal.NewInternalError("failed to create survey", err)
	}

	s.logger.Info("survey created",
		"survey_id", row.ID,
		"company_id", scope.CompanyID,
		"questions", len(row.Questions))
	return FromDataModel(row), nil
}

func (s *Service) List(ctx context.Context, scope internal.Scope, limit, offset int) (*ListResult, error) {
	limit, offset = clampPage(limit, offset)
	rows, total, err := s.repo.List(ctx, scope.CompanyID, limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list surveys", err)
	}
	surveys := make([]*Survey, 0, len(rows))
	for _, row := range rows {
		surveys = append(surveys, FromDataModel(row))
	}
	return &ListResult{Surveys: surveys, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) Get(ctx context.Context, scope internal.Scope, id int64) (*Survey, error) {
	row, err := s.repo.GetByID(ctx, scope.CompanyID, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load survey", err)
	}
	if row == nil {
		return nil, internal.ErrSurveyNotFound
	}
	return FromDataModel(row), nil
}

// GetPublic returns the respondent view of an active survey.
func (s *Service) GetPublic(ctx context.Context, id int64) (*PublicSurvey, error) {
	sv, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	return sv.Public(), nil
}

// Deactivate stops a survey from accepting responses. Deactivating twice is a no-op.
func (s *Service) Deactivate(ctx context.Context, scope internal.Scope, id int64) (*Survey, error) {
	found, err := s.repo.SetActive(ctx, scope.CompanyID, id, false, time.Now().UTC())
	if err != nil {
		return nil, internal.NewInternalError("failed to deactivate survey", err)
	}
	if !found {
		return nil, internal.ErrSurveyNotFound
	}
	s.logger.Info("survey deactivated", "survey_id", id, "company_id", scope.CompanyID, "user_id", scope.UserID)
	return s.Get(ctx, scope, id)
}

func (s *Service) Responses(ctx context.Context, scope internal.Scope, surveyID int64, limit, offset int) (*ResponseList, error) {
	if _, err := s.Get(ctx, scope, surveyID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	rows, total, err := s.repo.ListResponses(ctx, scope.CompanyID, surveyID, limit, offset)
	if err != nil {
		return nil, internal.NewInternalError("failed to list survey responses", err)
	}
	responses := make([]*Response, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, ResponseFromDataModel(row))
	}
	return &ResponseList{Responses: responses, Total: total, Limit: limit, Offset: offset}, nil
}

// Submit records an anonymous response. The respondent becomes (or is matched to) a lead
// of the survey's company with source survey.
func (s *Service) Submit(ctx context.Context, surveyID int64, dto SubmitDTO) (*SubmitResult, error) {
	sv, err := s.loadActive(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	answers := NormalizeAnswers(dto.Answers)
	if appErr := ValidateAnswers(sv.Questions, answers); appErr != nil {
		return nil, appErr
	}

	l, created, err := s.leads.FindOrCreate(ctx, sv.CompanyID, dto.Lead(), lead.SourceSurvey)
	if err != nil {
		return nil, err
	}

	row := &surveyDatamodel.Response{
		SurveyID:  sv.ID,
		CompanyID: sv.CompanyID,
		LeadID:    l.ID,
		Answers:   answers,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateResponse(ctx, row); err != nil {
		s.logger.Error("failed to store survey response", "survey_id", sv.ID, "lead_id", l.ID, "error", err)
		return nil, internal.NewInternalError("failed to store survey response", err)
	}

	s.logger.Info("survey response stored",
		"survey_id", sv.ID,
		"company_id", sv.CompanyID,
		"lead_id", l.ID,
		"lead_created", created)
	return &SubmitResult{ResponseID: row.ID, LeadID: l.ID, LeadCreated: created}, nil
}

func (s *Service) loadActive(ctx context.Context, id int64) (*Survey, error) {
	row, err := s.repo.GetPublic(ctx, id)
	if err != nil {
		return nil, internal.NewInternalError("failed to load survey", err)
	}
	if row == nil {
		return nil, internal.ErrSurveyNotFound
	}
	if !row.IsActive {
		return nil, internal.ErrSurveyInactive
	}
	return FromDataModel(row), nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > transport.MaxPageLimit {
		limit = transport.DefaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

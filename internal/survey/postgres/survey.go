package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	surveyDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/survey"
	"github.com/frahmantamala/datascope/internal/survey"
)

type SurveyRepository struct {
	db *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) survey.RepositoryAPI {
	return &SurveyRepository{db: db}
}

func (r *SurveyRepository) Create(ctx context.Context, s *surveyDatamodel.Survey) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SurveyRepository) GetByID(ctx context.Context, companyID, id int64) (*surveyDatamodel.Survey, error) {
	return r.first(r.db.WithContext(ctx).Where("company_id = ? AND id = ?", companyID, id))
}

func (r *SurveyRepository) GetPublic(ctx context.Context, id int64) (*surveyDatamodel.Survey, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *SurveyRepository) first(query *gorm.DB) (*surveyDatamodel.Survey, error) {
	var s surveyDatamodel.Survey
	if err := query.First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SurveyRepository) List(ctx context.Context, companyID int64, limit, offset int) ([]*surveyDatamodel.Survey, int64, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&surveyDatamodel.Survey{}).Where("company_id = ?", companyID)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*surveyDatamodel.Survey
	err := scoped().Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

func (r *SurveyRepository) SetActive(ctx context.Context, companyID, id int64, active bool, at time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&surveyDatamodel.Survey{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Count(&count).Error
	if err != nil || count == 0 {
		return false, err
	}

	err = r.db.WithContext(ctx).Model(&surveyDatamodel.Survey{}).
		Where("company_id = ? AND id = ?", companyID, id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": at}).Error
	return err == nil, err
}

func (r *SurveyRepository) CreateResponse(ctx context.Context, resp *surveyDatamodel.Response) error {
	return r.db.WithContext(ctx).Create(resp).Error
}

func (r *SurveyRepository) ListResponses(ctx context.Context, companyID, surveyID int64, limit, offset int) ([]*surveyDatamodel.Response, int64, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&surveyDatamodel.Response{}).
			Where("company_id = ? AND survey_id = ?", companyID, surveyID)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*surveyDatamodel.Response
	err := scoped().Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

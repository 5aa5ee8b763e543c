package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/datascope/internal"
	leadDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/lead"
	"github.com/frahmantamala/datascope/internal/lead"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) lead.RepositoryAPI {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, l *leadDatamodel.Lead) error {
	err := r.db.WithContext(ctx).Create(l).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrLeadAlreadyExists
	}
	return err
}

func (r *LeadRepository) GetByID(ctx context.Context, companyID, id int64) (*leadDatamodel.Lead, error) {
	var l leadDatamodel.Lead
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) GetByEmail(ctx context.Context, companyID int64, email string) (*leadDatamodel.Lead, error) {
	var l leadDatamodel.Lead
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND LOWER(email) = ?", companyID, strings.ToLower(email)).
		First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *LeadRepository) filtered(ctx context.Context, filter lead.ListFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&leadDatamodel.Lead{}).
		Where("company_id = ?", filter.CompanyID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(company) LIKE ?)", pattern, pattern, pattern)
	}
	return query
}

func (r *LeadRepository) List(ctx context.Context, filter lead.ListFilter) ([]*leadDatamodel.Lead, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*leadDatamodel.Lead
	err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Order("id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error
	return rows, total, err
}

func (r *LeadRepository) ListAll(ctx context.Context, companyID int64) ([]*leadDatamodel.Lead, error) {
	var rows []*leadDatamodel.Lead
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *LeadRepository) Update(ctx context.Context, l *leadDatamodel.Lead) error {
	err := r.db.WithContext(ctx).Save(l).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrLeadAlreadyExists
	}
	return err
}

func (r *LeadRepository) Delete(ctx context.Context, companyID, id int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		Delete(&leadDatamodel.Lead{})
	return result.RowsAffected > 0, result.Error
}

func (r *LeadRepository) CountByStatus(ctx context.Context, companyID int64) ([]leadDatamodel.StatusCount, error) {
	var counts []leadDatamodel.StatusCount
	err := r.db.WithContext(ctx).
		Model(&leadDatamodel.Lead{}).
		Select("status, COUNT(*) AS count").
		Where("company_id = ?", companyID).
		Group("status").
		Scan(&counts).Error
	return counts, err
}

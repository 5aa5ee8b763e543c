package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/datascope/internal/company"
	companyDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/company"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) company.RepositoryAPI {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error) {
	var c companyDatamodel.Company
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) GetMember(ctx context.Context, companyID int64, userID string) (*companyDatamodel.Member, error) {
	var m companyDatamodel.Member
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *CompanyRepository) ListMemberships(ctx context.Context, userID string) ([]*companyDatamodel.Membership, error) {
	var rows []*companyDatamodel.Membership
	err := r.db.WithContext(ctx).
		Table("company_members AS m").
		Select("m.company_id, c.name AS company_name, c.slug AS company_slug, m.role").
		Joins("JOIN companies c ON c.id = m.company_id").
		Where("m.user_id = ?", userID).
		Order("c.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *CompanyRepository) Create(ctx context.Context, c *companyDatamodel.Company) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// AddMember upserts the role for an existing membership.
func (r *CompanyRepository) AddMember(ctx context.Context, m *companyDatamodel.Member) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "company_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(m).Error
}

func (r *CompanyRepository) ListMemberIDs(ctx context.Context, companyID int64) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&companyDatamodel.Member{}).
		Where("company_id = ?", companyID).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

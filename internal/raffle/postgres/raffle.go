package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/datascope/internal"
	raffleDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/raffle"
	"github.com/frahmantamala/datascope/internal/raffle"
)

type RaffleRepository struct {
	db *gorm.DB
}

func NewRaffleRepository(db *gorm.DB) raffle.RepositoryAPI {
	return &RaffleRepository{db: db}
}

func (r *RaffleRepository) Create(ctx context.Context, rf *raffleDatamodel.Raffle) error {
	return r.db.WithContext(ctx).Create(rf).Error
}

func (r *RaffleRepository) GetByID(ctx context.Context, companyID, id int64) (*raffleDatamodel.Raffle, error) {
	return r.first(r.db.WithContext(ctx).Where("company_id = ? AND id = ?", companyID, id))
}

func (r *RaffleRepository) GetPublic(ctx context.Context, id int64) (*raffleDatamodel.Raffle, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *RaffleRepository) first(query *gorm.DB) (*raffleDatamodel.Raffle, error) {
	var rf raffleDatamodel.Raffle
	if err := query.First(&rf).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rf, nil
}

func (r *RaffleRepository) List(ctx context.Context, filter raffle.ListFilter) ([]*raffleDatamodel.Raffle, int64, error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&raffleDatamodel.Raffle{}).Where("company_id = ?", filter.CompanyID)
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*raffleDatamodel.Raffle
	err := scoped().Order("created_at DESC, id DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&rows).Error
	return rows, total, err
}

func (r *RaffleRepository) Close(ctx context.Context, companyID, id int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&raffleDatamodel.Raffle{}).
		Where("company_id = ? AND id = ? AND status = ?", companyID, id, raffle.StatusOpen).
		Updates(map[string]interface{}{"status": raffle.StatusClosed, "updated_at": at})
	return res.RowsAffected > 0, res.Error
}

func (r *RaffleRepository) MarkDrawn(ctx context.Context, companyID, id, winnerLeadID int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&raffleDatamodel.Raffle{}).
		Where("company_id = ? AND id = ? AND status IN ?", companyID, id, []string{raffle.StatusOpen, raffle.StatusClosed}).
		Updates(map[string]interface{}{
			"status":         raffle.StatusDrawn,
			"winner_lead_id": winnerLeadID,
			"drawn_at":       at,
			"updated_at":     at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *RaffleRepository) CreateEntry(ctx context.Context, e *raffleDatamodel.Entry) error {
	err := r.db.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return internal.ErrAlreadyEntered
	}
	return err
}

func (r *RaffleRepository) ListEntries(ctx context.Context, raffleID int64) ([]*raffleDatamodel.EntryDetail, error) {
	var rows []*raffleDatamodel.EntryDetail
	err := r.db.WithContext(ctx).
		Table("raffle_entries AS e").
		Select("e.id, e.raffle_id, e.lead_id, l.name AS lead_name, l.email AS lead_email, e.created_at").
		Joins("JOIN leads l ON l.id = e.lead_id").
		Where("e.raffle_id = ?", raffleID).
		Order("e.created_at ASC, e.id ASC").
		Scan(&rows).Error
	return rows, err
}

// EntrantLeadIDs skips entries whose lead has since been deleted.
func (r *RaffleRepository) EntrantLeadIDs(ctx context.Context, raffleID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Table("raffle_entries AS e").
		Joins("JOIN leads l ON l.id = e.lead_id").
		Where("e.raffle_id = ?", raffleID).
		Order("e.id ASC").
		Pluck("e.lead_id", &ids).Error
	return ids, err
}

package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/datascope/internal"
	notificationDatamodel "github.com/frahmantamala/datascope/internal/core/datamodel/notification"
	"github.com/frahmantamala/datascope/internal/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.Store {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Push(ctx context.Context, n *notification.Notification) error {
	return r.db.WithContext(ctx).Create(notification.ToDataModel(n)).Error
}

func (r *NotificationRepository) recipient(ctx context.Context, companyID int64, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&notificationDatamodel.Notification{}).
		Where("company_id = ? AND user_id = ?", companyID, userID)
}

func (r *NotificationRepository) List(ctx context.Context, filter notification.ListFilter) ([]*notification.Notification, error) {
	query := r.recipient(ctx, filter.CompanyID, filter.UserID)
	if filter.UnreadOnly {
		query = query.Where("read = ?", false)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []*notificationDatamodel.Notification
	if err := query.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]*notification.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, notification.FromDataModel(row))
	}
	return out, nil
}

func (r *NotificationRepository) UnreadCount(ctx context.Context, companyID int64, userID string) (int64, error) {
	var count int64
	err := r.recipient(ctx, companyID, userID).Where("read = ?", false).Count(&count).Error
	return count, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, companyID int64, userID, id string) error {
	result := r.recipient(ctx, companyID, userID).Where("id = ?", id).Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// already-read rows still count as found
		var count int64
		if err := r.recipient(ctx, companyID, userID).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return internal.ErrNotificationNotFound
		}
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, companyID int64, userID string) (int64, error) {
	result := r.recipient(ctx, companyID, userID).Where("read = ?", false).Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *NotificationRepository) Delete(ctx context.Context, companyID int64, userID, id string) error {
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ? AND id = ?", companyID, userID, id).
		Delete(&notificationDatamodel.Notification{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("read = ? AND created_at < ?", true, before).
		Delete(&notificationDatamodel.Notification{})
	return result.RowsAffected, result.Error
}

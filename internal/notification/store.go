package notification

import (
	"context"
	"time"
)

// ListFilter selects one recipient's notifications, newest first.
type ListFilter struct {
	CompanyID  int64
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// Store is the shared notification list.
type Store interface {
	Push(ctx context.Context, n *Notification) error
	List(ctx context.Context, filter ListFilter) ([]*Notification, error)
	UnreadCount(ctx context.Context, companyID int64, userID string) (int64, error)
	// MarkRead and Delete return internal.ErrNotificationNotFound when the id does not
	// belong to the recipient.
	MarkRead(ctx context.Context, companyID int64, userID, id string) error
	MarkAllRead(ctx context.Context, companyID int64, userID string) (int64, error)
	Delete(ctx context.Context, companyID int64, userID, id string) error
	// Prune removes read notifications created before the cutoff.
	Prune(ctx context.Context, before time.Time) (int64, error)
}

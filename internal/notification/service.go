package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/transport"
)

type Service struct {
	store     Store
	retention time.Duration
	logger    *slog.Logger
}

func NewService(store Store, retention time.Duration, logger *slog.Logger) *Service {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Service{
		store:     store,
		retention: retention,
		logger:    logger,
	}
}

func (s *Service) List(ctx context.Context, scope internal.Scope, unreadOnly bool, limit, offset int) ([]*Notification, error) {
	if limit <= 0 || limit > transport.MaxPageLimit {
		limit = transport.DefaultPageLimit
	}
	items, err := s.store.List(ctx, ListFilter{
		CompanyID:  scope.CompanyID,
		UserID:     scope.UserID,
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		s.logger.Error("failed to list notifications", "company_id", scope.CompanyID, "error", err)
		return nil, internal.NewInternalError("failed to list notifications", err)
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, scope internal.Scope) (int64, error) {
	count, err := s.store.UnreadCount(ctx, scope.CompanyID, scope.UserID)
	if err != nil {
		return 0, internal.NewInternalError("failed to count notifications", err)
	}
	return count, nil
}

func (s *Service) MarkRead(ctx context.Context, scope internal.Scope, id string) error {
	return s.mapStoreError(s.store.MarkRead(ctx, scope.CompanyID, scope.UserID, id), "failed to mark notification read")
}

func (s *Service) MarkAllRead(ctx context.Context, scope internal.Scope) (int64, error) {
	updated, err := s.store.MarkAllRead(ctx, scope.CompanyID, scope.UserID)
	if err != nil {
		return 0, internal.NewInternalError("failed to mark notifications read", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, scope internal.Scope, id string) error {
	return s.mapStoreError(s.store.Delete(ctx, scope.CompanyID, scope.UserID, id), "failed to delete notification")
}

// Prune removes read notifications older than the retention period.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	removed, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.logger.Info("notifications pruned", "removed", removed, "cutoff", cutoff)
	return removed, nil
}

func (s *Service) mapStoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	return internal.NewInternalError(message, err)
}

package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/frahmantamala/datascope/internal"
	"github.com/frahmantamala/datascope/internal/notification"
)

const DefaultMaxPerUser = 200

type recipient struct {
	companyID int64
	userID    string
}

// Store keeps each recipient's notifications newest first and drops the
// oldest once a list reaches its bound.
type Store struct {
	mu         sync.RWMutex
	lists      map[recipient][]*notification.Notification
	maxPerUser int
}

func NewStore(maxPerUser int) *Store {
	if maxPerUser <= 0 {
		maxPerUser = DefaultMaxPerUser
	}
	return &Store{
		lists:      make(map[recipient][]*notification.Notification),
		maxPerUser: maxPerUser,
	}
}

func (s *Store) Push(_ context.Context, n *notification.Notification) error {
	key := recipient{n.CompanyID, n.UserID}
	cp := *n

	s.mu.Lock()
	defer s.mu.Unlock()

	list := append([]*notification.Notification{&cp}, s.lists[key]...)
	if len(list) > s.maxPerUser {
		list = list[:s.maxPerUser]
	}
	s.lists[key] = list
	return nil
}

func (s *Store) List(_ context.Context, filter notification.ListFilter) ([]*notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*notification.Notification, 0)
	skipped := 0
	for _, n := range s.lists[recipient{filter.CompanyID, filter.UserID}] {
		if filter.UnreadOnly && n.Read {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) UnreadCount(_ context.Context, companyID int64, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.lists[recipient{companyID, userID}] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkRead(_ context.Context, companyID int64, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.lists[recipient{companyID, userID}] {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return internal.ErrNotificationNotFound
}

func (s *Store) MarkAllRead(_ context.Context, companyID int64, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var updated int64
	for _, n := range s.lists[recipient{companyID, userID}] {
		if !n.Read {
			n.Read = true
			updated++
		}
	}
	return updated, nil
}

func (s *Store) Delete(_ context.Context, companyID int64, userID, id string) error {
	key := recipient{companyID, userID}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.lists[key]
	for i, n := range list {
		if n.ID == id {
			s.lists[key] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return internal.ErrNotificationNotFound
}

func (s *Store) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for key, list := range s.lists {
		kept := list[:0:0]
		for _, n := range list {
			if n.Read && n.CreatedAt.Before(before) {
				removed++
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			delete(s.lists, key)
			continue
		}
		s.lists[key] = kept
	}
	return removed, nil
}

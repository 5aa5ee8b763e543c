package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Toaster surfaces a notification to whoever is watching right now.
type Toaster interface {
	Toast(ctx context.Context, n *Notification) error
}

type ToasterFunc func(ctx context.Context, n *Notification) error

func (f ToasterFunc) Toast(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}

type LogToaster struct {
	logger *slog.Logger
}

func NewLogToaster(logger *slog.Logger) *LogToaster {
	return &LogToaster{logger: logger}
}

func (t *LogToaster) Toast(_ context.Context, n *Notification) error {
	t.logger.Info("toast",
		"company_id", n.CompanyID,
		"user_id", n.UserID,
		"type", n.Type,
		"priority", n.Priority,
		"title", n.Title)
	return nil
}

const DefaultToastChannelPrefix = "datascope:toasts"

// ToastChannel is the pub/sub channel one member's clients subscribe to. Each
// recipient gets its own channel so a company wide event reaches a member once.
func ToastChannel(prefix string, companyID int64, userID string) string {
	return prefix + ":" + strconv.FormatInt(companyID, 10) + ":" + userID
}

type RedisToaster struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisToaster(client redis.UniversalClient, prefix string) *RedisToaster {
	if prefix == "" {
		prefix = DefaultToastChannelPrefix
	}
	return &RedisToaster{client: client, prefix: prefix}
}

func (t *RedisToaster) Toast(ctx context.Context, n *Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := t.client.Publish(ctx, ToastChannel(t.prefix, n.CompanyID, n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish toast: %w", err)
	}
	return nil
}

// Multi fans a toast out to every toaster and joins their errors.
type Multi []Toaster

func (m Multi) Toast(ctx context.Context, n *Notification) error {
	var errs []error
	for _, t := range m {
		if err := t.Toast(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package application implements notification use cases and the live stream.
package application

import (
	"context"
	"time"

	account "github.com/sngm3741/ethical-choice/api/internal/account/domain"
	"github.com/sngm3741/ethical-choice/api/internal/notification/domain"
)

// Repository persists notifications. Ownership-scoped operations return an
// apperr NotFound when the record is absent or owned by someone else.
type Repository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID string, query ListQuery) ([]domain.Notification, int64, error)
	MarkRead(ctx context.Context, id, userID string, at time.Time) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	Delete(ctx context.Context, id, userID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// UserStore reads recipients and toggles their stream preference.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*account.User, error)
	SetNotificationsEnabled(ctx context.Context, id string, enabled bool) error
}

// Publisher pushes a stored notification to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// Subscriber yields notifications for one user until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan domain.Notification, error)
}

// FailureRecorder keeps notifications that could not be pushed live so they
// can be inspected or replayed.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, n domain.Notification, cause error) error
}

// Cache is the subset of the cache client used here.
type Cache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	DeletePrefix(ctx context.Context, prefix string)
	Generation(ctx context.Context, scope string) string
	BumpGeneration(ctx context.Context, scope string)
}

// ListQuery pages a user's notifications.
type ListQuery struct {
	Page       int
	Limit      int
	UnreadOnly bool
}

func (q ListQuery) normalize() ListQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return q
}

// SendCommand creates a notification.
type SendCommand struct {
	UserID  string
	Message string
	Title   string
	Type    domain.Type
}

// Service describes the notification use cases.
type Service interface {
	Send(ctx context.Context, cmd SendCommand) (*domain.Notification, error)
	List(ctx context.Context, userID string, query ListQuery) (domain.Page, error)
	MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, id, userID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Subscribe(ctx context.Context, userID string) error
	Unsubscribe(ctx context.Context, userID string) error
	Stream(ctx context.Context, userID string) (<-chan domain.StreamEvent, error)
}

// Options tunes caching and the stream.
type Options struct {
	ListCacheTTL      time.Duration
	UnreadCacheTTL    time.Duration
	HeartbeatInterval time.Duration
	// Failures, when set, records notifications whose live publish failed.
	Failures FailureRecorder
}

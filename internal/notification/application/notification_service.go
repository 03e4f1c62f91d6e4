package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
	"github.com/sngm3741/ethical-choice/api/internal/metrics"
	"github.com/sngm3741/ethical-choice/api/internal/notification/domain"
)

// ErrUserNotFound is returned when sending to an unknown recipient.
var ErrUserNotFound = apperr.Validation("User not found")

// UserPrefix is the cache prefix for everything derived from userID's
// notifications.
func UserPrefix(userID string) string {
	return "notifications:" + userID + ":"
}

func generationScope(userID string) string {
	return "notifications:" + userID
}

func listKey(userID, gen string, limit int) string {
	return UserPrefix(userID) + gen + ":list:page=1&limit=" + strconv.Itoa(limit)
}

func unreadKey(userID, gen string) string {
	return UserPrefix(userID) + gen + ":unread"
}

type notificationService struct {
	repo       Repository
	users      UserStore
	publisher  Publisher
	subscriber Subscriber
	cache      Cache
	opts       Options
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService wires the notification service.
func NewService(repo Repository, users UserStore, publisher Publisher, subscriber Subscriber, cache Cache, opts Options, logger zerolog.Logger) Service {
	if opts.ListCacheTTL <= 0 {
		opts.ListCacheTTL = 5 * time.Minute
	}
	if opts.UnreadCacheTTL <= 0 {
		opts.UnreadCacheTTL = time.Minute
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 10 * time.Second
	}
	return &notificationService{
		repo:       repo,
		users:      users,
		publisher:  publisher,
		subscriber: subscriber,
		cache:      cache,
		opts:       opts,
		logger:     logger.With().Str("service", "notification").Logger(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *notificationService) Send(ctx context.Context, cmd SendCommand) (*domain.Notification, error) {
	user, err := s.users.FindByID(ctx, cmd.UserID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load recipient %s: %w", cmd.UserID, err)
	}

	n, err := domain.New(user.ID, cmd.Message, cmd.Title, cmd.Type, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, &n); err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}
	metrics.NotificationsSent.WithLabelValues(string(n.Type)).Inc()
	s.invalidate(ctx, n.UserID)

	if user.NotificationsEnabled && s.publisher != nil {
		if err := s.publisher.Publish(ctx, n); err != nil {
			logging.Ctx(ctx, s.logger).Warn().Err(err).Str("user_id", n.UserID).Msg("live notification publish failed")
			s.recordFailure(ctx, n, err)
		}
	}
	return &n, nil
}

func (s *notificationService) recordFailure(ctx context.Context, n domain.Notification, cause error) {
	if s.opts.Failures == nil {
		return
	}
	if err := s.opts.Failures.RecordFailure(ctx, n, cause); err != nil {
		logging.Ctx(ctx, s.logger).Error().Err(err).Str("notification_id", n.ID).Msg("record failed delivery")
	}
}

func (s *notificationService) List(ctx context.Context, userID string, query ListQuery) (domain.Page, error) {
	query = query.normalize()
	cacheable := query.Page == 1 && !query.UnreadOnly
	key := listKey(userID, s.cache.Generation(ctx, generationScope(userID)), query.Limit)

	if cacheable {
		var cached domain.Page
		if s.cache.Get(ctx, key, &cached) {
			return cached, nil
		}
	}

	items, total, err := s.repo.List(ctx, userID, query)
	if err != nil {
		return domain.Page{}, fmt.Errorf("list notifications for user %s: %w", userID, err)
	}
	if items == nil {
		items = []domain.Notification{}
	}
	page := domain.Page{
		Items:      items,
		Pagination: domain.NewPagination(query.Page, query.Limit, len(items), total),
	}
	if cacheable {
		s.cache.Set(ctx, key, page, s.opts.ListCacheTTL)
	}
	return page, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID string) (*domain.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("mark notification %s read: %w", id, err)
	}
	s.invalidate(ctx, userID)
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	modified, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read for user %s: %w", userID, err)
	}
	s.invalidate(ctx, userID)
	return modified, nil
}

func (s *notificationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("delete notification %s: %w", id, err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	key := unreadKey(userID, s.cache.Generation(ctx, generationScope(userID)))
	var cached int64
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications for user %s: %w", userID, err)
	}
	s.cache.Set(ctx, key, count, s.opts.UnreadCacheTTL)
	return count, nil
}

func (s *notificationService) Subscribe(ctx context.Context, userID string) error {
	return s.setEnabled(ctx, userID, true)
}

func (s *notificationService) Unsubscribe(ctx context.Context, userID string) error {
	return s.setEnabled(ctx, userID, false)
}

func (s *notificationService) setEnabled(ctx context.Context, userID string, enabled bool) error {
	if err := s.users.SetNotificationsEnabled(ctx, userID, enabled); err != nil {
		return fmt.Errorf("set notifications enabled=%t for user %s: %w", enabled, userID, err)
	}
	return nil
}

// Stream emits a connected event, then every new notification for userID
// and a heartbeat on each tick. The channel is closed when ctx is done.
func (s *notificationService) Stream(ctx context.Context, userID string) (<-chan domain.StreamEvent, error) {
	if s.subscriber == nil {
		return nil, apperr.Internal("notification stream is not configured", nil)
	}
	incoming, err := s.subscriber.Subscribe(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("subscribe notifications for user %s: %w", userID, err)
	}

	out := make(chan domain.StreamEvent, 1)
	out <- domain.StreamEvent{
		Kind:      domain.EventConnected,
		Message:   "Connected to notifications stream",
		Timestamp: s.now(),
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()

		emit := func(ev domain.StreamEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-incoming:
				if !ok {
					return
				}
				if !emit(domain.StreamEvent{Kind: domain.EventNotification, Notification: &n, Timestamp: s.now()}) {
					return
				}
			case <-ticker.C:
				if !emit(domain.StreamEvent{Kind: domain.EventHeartbeat, Timestamp: s.now()}) {
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *notificationService) invalidate(ctx context.Context, userID string) {
	s.cache.BumpGeneration(ctx, generationScope(userID))
	s.cache.DeletePrefix(ctx, UserPrefix(userID))
}

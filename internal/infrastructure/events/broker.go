// Package events fans notifications out to live subscribers over an
// in-process watermill pub/sub.
package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/sngm3741/ethical-choice/api/internal/logging"
	"github.com/sngm3741/ethical-choice/api/internal/notification/domain"
)

const topicPrefix = "notifications."

// Topic returns the per-user notification topic.
func Topic(userID string) string {
	return topicPrefix + userID
}

// Broker publishes and subscribes notifications per user.
type Broker struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
}

// NewBroker creates a non-persistent broker. Messages published to a topic
// with no subscribers are dropped.
func NewBroker(logger zerolog.Logger, bufferSize int64) *Broker {
	logger = logger.With().Str("component", "events").Logger()
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: bufferSize,
		Persistent:          false,
	}, logging.NewWatermillAdapter(logger))
	return &Broker{pubsub: pubsub, logger: logger}
}

// Publish sends n to its owner's topic.
func (b *Broker) Publish(ctx context.Context, n domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set("correlation_id", id)
	}
	if err := b.pubsub.Publish(Topic(n.UserID), msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Subscribe returns a channel of notifications for userID. The channel is
// closed once ctx is cancelled.
func (b *Broker) Subscribe(ctx context.Context, userID string) (<-chan domain.Notification, error) {
	messages, err := b.pubsub.Subscribe(ctx, Topic(userID))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", Topic(userID), err)
	}

	out := make(chan domain.Notification)
	go func() {
		defer close(out)
		for msg := range messages {
			var n domain.Notification
			if err := json.Unmarshal(msg.Payload, &n); err != nil {
				b.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("dropping undecodable notification")
				msg.Ack()
				continue
			}
			select {
			case out <- n:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the pub/sub down and closes every subscription.
func (b *Broker) Close() error {
	return b.pubsub.Close()
}

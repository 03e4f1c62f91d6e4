package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/ethical-choice/api/internal/logging"
	"github.com/sngm3741/ethical-choice/api/internal/notification/domain"
)

func TestBroker_DeliversToOwnerOnly(t *testing.T) {
	b := NewBroker(logging.Nop(), 4)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine, err := b.Subscribe(ctx, "u1")
	require.NoError(t, err)
	theirs, err := b.Subscribe(ctx, "u2")
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, domain.Notification{ID: "n1", UserID: "u1", Message: "hi"}))

	select {
	case n := <-mine:
		assert.Equal(t, "n1", n.ID)
		assert.Equal(t, "hi", n.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}

	select {
	case n := <-theirs:
		t.Fatalf("unexpected delivery to other user: %+v", n)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroker_CancelClosesChannel(t *testing.T) {
	b := NewBroker(logging.Nop(), 4)
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Subscribe(ctx, "u1")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestBroker_PublishWithoutSubscribers(t *testing.T) {
	b := NewBroker(logging.Nop(), 4)
	t.Cleanup(func() { _ = b.Close() })
	assert.NoError(t, b.Publish(context.Background(), domain.Notification{UserID: "nobody", Message: "x"}))
}

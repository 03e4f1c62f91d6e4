package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

type countingGC struct {
	calls atomic.Int32
	err   error
}

func (g *countingGC) RunGC() error {
	g.calls.Add(1)
	return g.err
}

func TestCacheGCServiceTicks(t *testing.T) {
	gc := &countingGC{err: errors.New("busy")}
	svc := NewCacheGCService(gc, 10*time.Millisecond, logging.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	require.Eventually(t, func() bool { return gc.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, "cache-gc", svc.String())
}

func TestTreeRunsServicesUntilCancelled(t *testing.T) {
	tree := NewTree(logging.NewSlogLogger(logging.Nop()), TreeConfig{ShutdownTimeout: time.Second})

	gc := &countingGC{}
	tree.AddDataService(NewCacheGCService(gc, 10*time.Millisecond, logging.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	require.Eventually(t, func() bool { return gc.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-errCh:
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
}

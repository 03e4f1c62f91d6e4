package cache

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := Open("", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

type payload struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestClient_SetGet(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	c.Set(ctx, "recommendations:u1:a", payload{Name: "acme", Score: 85}, time.Hour)

	var got payload
	require.True(t, c.Get(ctx, "recommendations:u1:a", &got))
	assert.Equal(t, payload{Name: "acme", Score: 85}, got)
}

func TestClient_GetMiss(t *testing.T) {
	c := newTestClient(t)
	var got payload
	assert.False(t, c.Get(context.Background(), "missing", &got))
}

func TestClient_Delete(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	c.Set(ctx, "a", 1, time.Hour)
	c.Set(ctx, "b", 2, time.Hour)

	c.Delete(ctx, "a", "missing")

	var v int
	assert.False(t, c.Get(ctx, "a", &v))
	assert.True(t, c.Get(ctx, "b", &v))
	assert.Equal(t, 2, v)
}

func TestClient_DeletePrefix(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	c.Set(ctx, "recommendations:u1:page=1", 1, time.Hour)
	c.Set(ctx, "recommendations:u1:page=2", 2, time.Hour)
	c.Set(ctx, "recommendations:u10:page=1", 3, time.Hour)
	c.Set(ctx, "recommendations:u2:page=1", 4, time.Hour)

	c.DeletePrefix(ctx, "recommendations:u1:")

	var v int
	assert.False(t, c.Get(ctx, "recommendations:u1:page=1", &v))
	assert.False(t, c.Get(ctx, "recommendations:u1:page=2", &v))
	assert.True(t, c.Get(ctx, "recommendations:u10:page=1", &v))
	assert.True(t, c.Get(ctx, "recommendations:u2:page=1", &v))
}

func TestClient_TTLExpires(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	c.Set(ctx, "short", "x", 2*time.Second)

	var v string
	require.True(t, c.Get(ctx, "short", &v))
	time.Sleep(3 * time.Second)
	assert.False(t, c.Get(ctx, "short", &v))
}

func TestClient_UndecodableIsMiss(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	c.Set(ctx, "k", "not a struct", time.Hour)

	var got payload
	assert.False(t, c.Get(ctx, "k", &got))
	var s string
	assert.False(t, c.Get(ctx, "k", &s), "undecodable entries are evicted")
}

func TestClient_ClosedDatabaseIsAbsorbed(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	c := New(db, logging.Nop())
	require.NoError(t, db.Close())
	ctx := context.Background()

	assert.NotPanics(t, func() {
		c.Set(ctx, "k", 1, time.Hour)
		c.Delete(ctx, "k")
		c.DeletePrefix(ctx, "k")
	})
	var v int
	assert.False(t, c.Get(ctx, "k", &v))
	assert.Error(t, c.Ping(ctx))
}

func TestClient_PingAndGC(t *testing.T) {
	c := newTestClient(t)
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.RunGC())
}

func TestGenerationBump(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	first := c.Generation(ctx, "recommendations:u1")
	assert.Equal(t, first, c.Generation(ctx, "recommendations:u1"))

	c.BumpGeneration(ctx, "recommendations:u1")
	second := c.Generation(ctx, "recommendations:u1")
	assert.NotEqual(t, first, second)

	c.BumpGeneration(ctx, "recommendations:u1")
	assert.NotEqual(t, second, c.Generation(ctx, "recommendations:u1"))
	assert.Equal(t, first, c.Generation(ctx, "recommendations:u2"))
}

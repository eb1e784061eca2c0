package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(1, nil)
	require.NoError(t, err)
	b, err := hub.Register(2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hub.ConnectionCount())

	hub.Broadcast(1, "to-one")
	assert.Equal(t, "to-one", receive(t, a))
	assert.Empty(t, b.Send)

	hub.BroadcastAll("to-all")
	assert.Equal(t, "to-all", receive(t, a))
	assert.Equal(t, "to-all", receive(t, b))

	hub.UnregisterClient(a)
	hub.UnregisterClient(a)
	assert.Equal(t, 1, hub.ConnectionCount())

	_, open := <-a.Send
	assert.False(t, open, "send channel is closed on unregister")

	require.NoError(t, hub.Shutdown(context.Background()))
	assert.Equal(t, 0, hub.ConnectionCount())
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(5, nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(5, nil)
	assert.ErrorIs(t, err, ErrUserFull)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize+10; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBufferSize)

	hub.UnregisterClient(c)
	assert.NotPanics(t, func() { c.TrySend([]byte("late")) })
}

func TestHub_StartWiring(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := NewHub()
	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	one, err := hub.Register(1, nil)
	require.NoError(t, err)
	two, err := hub.Register(2, nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishBroadcast(ctx, `{"type":"post_created"}`))
	assert.Equal(t, `{"type":"post_created"}`, receive(t, one))
	assert.Equal(t, `{"type":"post_created"}`, receive(t, two))

	require.NoError(t, n.PublishUser(ctx, 2, "only-two"))
	assert.Equal(t, "only-two", receive(t, two))
	assert.Never(t, func() bool { return len(one.Send) > 0 }, 10*testPollInterval, testPollInterval)
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "x"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "x"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestParseUserChannel(t *testing.T) {
	t.Parallel()

	id, ok := parseUserChannel(UserChannel(42))
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	_, ok = parseUserChannel("notifications:user:abc")
	assert.False(t, ok)
	_, ok = parseUserChannel("chat:conv:1")
	assert.False(t, ok)
}

func TestHub_ShutdownLeavesCloseFrameToWritePump(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(1, nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))

	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"), c.closeFrame)
	assert.Equal(t, 0, hub.ConnectionCount())

	// The reader's deferred unregister after shutdown must not close Send again.
	assert.NotPanics(t, func() { hub.UnregisterClient(c) })
}

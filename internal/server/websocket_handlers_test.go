package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialFeed(t *testing.T, addr, token string) *ws.Conn {
	t.Helper()
	u := url.URL{Scheme: "ws", Host: addr, Path: "/api/ws", RawQuery: "token=" + url.QueryEscape(token)}
	conn, resp, err := ws.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *ws.Conn) (string, json.RawMessage) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var event struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(raw, &event))
	return event.Type, event.Payload
}

func TestWebsocket_DeliversPostEvents(t *testing.T) {
	env := newTestEnv(t, nil)
	_, aliceToken := env.user(t, "alice")
	_, bobToken := env.user(t, "bob")
	addr := env.listen(t)

	aliceConn := dialFeed(t, addr, aliceToken)
	require.Eventually(t, func() bool { return env.server.hub.ConnectionCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	resp := env.do(t, http.MethodPost, "/api/posts", bobToken, map[string]string{"text": "hello sockets"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	eventType, payload := readEvent(t, aliceConn)
	assert.Equal(t, "post_created", eventType)
	var post struct {
		ID   uint   `json:"id"`
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(payload, &post))
	assert.Equal(t, "hello sockets", post.Text)

	// A comment by someone else reaches the author as activity before the broadcast.
	resp = env.do(t, http.MethodPost, "/api/posts", aliceToken, map[string]string{"text": "mine"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	mine := decode[struct{ ID uint }](t, resp)
	eventType, _ = readEvent(t, aliceConn)
	assert.Equal(t, "post_created", eventType)

	resp = env.do(t, http.MethodPost, "/api/posts/"+strconv.FormatUint(uint64(mine.ID), 10)+"/comment", bobToken, map[string]string{"text": "nice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	eventType, payload = readEvent(t, aliceConn)
	assert.Equal(t, "post_activity", eventType)
	assert.Contains(t, string(payload), `"kind":"comment"`)
	eventType, _ = readEvent(t, aliceConn)
	assert.Equal(t, "comment_created", eventType)
}

func TestWebsocket_ShutdownSendsGoingAway(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.user(t, "alice")
	addr := env.listen(t)

	conn := dialFeed(t, addr, token)
	require.Eventually(t, func() bool { return env.server.hub.ConnectionCount() == 1 },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, env.server.hub.Shutdown(context.Background()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, ws.IsCloseError(err, ws.CloseGoingAway), "got %v", err)
}

func TestWebsocket_RejectsMissingToken(t *testing.T) {
	env := newTestEnv(t, nil)
	addr := env.listen(t)

	_, resp, err := ws.DefaultDialer.Dial("ws://"+addr+"/api/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

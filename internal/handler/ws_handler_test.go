package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatlink/internal/app/chat"
	"chatlink/internal/pkg/errs"
)

// nopSession stands in for a connection that is never read.
type nopSession struct{ id string }

func newNopSession(id string) *nopSession { return &nopSession{id: id} }

func (s *nopSession) ID() string             { return s.id }
func (s *nopSession) Send(string, any) error { return nil }
func (s *nopSession) Close(int, string)      {}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, srv *httptest.Server, header http.Header, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	conn := dial(t, srv, nil, "?token=not-a-jwt")

	f := readFrame(t, conn)
	require.Equal(t, chat.EventUnauthorized, f.Type)

	var payload chat.ErrorPayload
	require.NoError(t, json.Unmarshal(f.Payload, &payload))
	assert.Equal(t, errs.ErrUnauthorized, payload.Code)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, chat.CloseUnauthorized), "got %v", err)
	assert.Zero(t, e.gateway.Registry().Count())
}

func TestWebSocketSessionLifecycle(t *testing.T) {
	e := newTestEnv(t)
	alice := e.repo.addUser("alice")
	bob := e.repo.addUser("bob")
	e.repo.befriend(alice.ID, bob.ID)

	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	header := http.Header{"Authorization": {"Bearer " + accessToken(t, alice)}}
	first := dial(t, srv, header, "")

	f := readFrame(t, first)
	require.Equal(t, chat.EventInitialFriendsStatus, f.Type)
	require.Eventually(t, func() bool { return e.gateway.IsOnline(alice.ID) }, 2*time.Second, 10*time.Millisecond)

	bobConn := dial(t, srv, nil, "?token="+accessToken(t, bob))
	require.Equal(t, chat.EventInitialFriendsStatus, readFrame(t, bobConn).Type)

	presence := readFrame(t, first)
	require.Equal(t, chat.EventPresenceChanged, presence.Type)

	require.NoError(t, first.WriteJSON(map[string]any{
		"type":    chat.EventPrivateMessage,
		"tempId":  "t-1",
		"payload": map[string]any{"recipientId": bob.ID, "message": "hi bob"},
	}))

	received := readFrame(t, bobConn)
	require.Equal(t, chat.EventMessageReceived, received.Type)
	var msg chat.MessageReceivedPayload
	require.NoError(t, json.Unmarshal(received.Payload, &msg))
	assert.Equal(t, "hi bob", msg.Message)
	assert.Equal(t, alice.ID, msg.From)

	ack := readFrame(t, first)
	require.Equal(t, chat.EventMessageDelivered, ack.Type)

	// A second device for alice replaces the first.
	second := dial(t, srv, header, "")
	require.Equal(t, chat.EventInitialFriendsStatus, readFrame(t, second).Type)

	dup := readFrame(t, first)
	require.Equal(t, chat.EventDuplicateConnection, dup.Type)
	_, _, err := first.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, chat.CloseSessionReplaced), "got %v", err)

	assert.True(t, e.gateway.IsOnline(alice.ID))
	assert.Equal(t, 2, e.gateway.Registry().Count())

	// Bob hears about the new device coming online, but not about the replaced one leaving.
	require.Equal(t, chat.EventPresenceChanged, readFrame(t, bobConn).Type)

	require.NoError(t, second.Close())
	require.Eventually(t, func() bool { return !e.gateway.IsOnline(alice.ID) }, 2*time.Second, 10*time.Millisecond)

	offline := readFrame(t, bobConn)
	require.Equal(t, chat.EventPresenceChanged, offline.Type)
	var p chat.PresencePayload
	require.NoError(t, json.Unmarshal(offline.Payload, &p))
	assert.Equal(t, alice.ID, p.UserID)
	assert.False(t, p.IsOnline)
}

func TestWebSocketReplaysLargeBacklog(t *testing.T) {
	e := newTestEnv(t)
	alice := e.repo.addUser("alice")
	bob := e.repo.addUser("bob")

	// Well past the per-connection send queue.
	const unread = 2000
	e.repo.addUnread(alice.ID, bob.ID, unread)

	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	conn := dial(t, srv, nil, "?token="+accessToken(t, bob))
	require.Equal(t, chat.EventInitialFriendsStatus, readFrame(t, conn).Type)

	ids := make(map[int64]bool, unread)
	for i := 0; i < unread; i++ {
		f := readFrame(t, conn)
		require.Equal(t, chat.EventMessageReceived, f.Type, "frame %d", i)

		var msg chat.MessageReceivedPayload
		require.NoError(t, json.Unmarshal(f.Payload, &msg))
		ids[msg.ID] = true
	}
	assert.Len(t, ids, unread)

	// Nothing else was queued behind the backlog.
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    chat.EventGetUserOnlineStatus,
		"payload": map[string]any{"userId": alice.ID},
	}))
	assert.Equal(t, chat.EventAvailabilityStatus, readFrame(t, conn).Type)
}

func TestWebSocketThrottledSendsGetOneOutcomeEach(t *testing.T) {
	e := newTestEnv(t)
	alice := e.repo.addUser("alice")
	bob := e.repo.addUser("bob")

	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	conn := dial(t, srv, nil, "?token="+accessToken(t, alice))
	require.Equal(t, chat.EventInitialFriendsStatus, readFrame(t, conn).Type)

	const attempts = chat.EventBurst * 2
	for i := 0; i < attempts; i++ {
		require.NoError(t, conn.WriteJSON(map[string]any{
			"type":    chat.EventPrivateMessage,
			"tempId":  fmt.Sprintf("t-%d", i),
			"payload": map[string]any{"recipientId": bob.ID, "message": "burst"},
		}))
	}

	outcomes := make(map[string]int, attempts)
	delivered, limited := 0, 0
	for i := 0; i < attempts; i++ {
		f := readFrame(t, conn)

		var outcome struct {
			TempID string `json:"tempId"`
			Code   int    `json:"code"`
		}
		require.NoError(t, json.Unmarshal(f.Payload, &outcome))
		outcomes[outcome.TempID]++

		switch f.Type {
		case chat.EventMessageDelivered:
			delivered++
		case chat.EventMessageError:
			require.Equal(t, errs.ErrRateLimitExceeded, outcome.Code)
			limited++
		default:
			t.Fatalf("unexpected frame %s", f.Type)
		}
	}

	require.Len(t, outcomes, attempts)
	for id, n := range outcomes {
		assert.Equal(t, 1, n, id)
	}
	assert.Positive(t, limited)
	assert.Equal(t, delivered, e.repo.messageCount())
}

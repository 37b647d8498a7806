package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/jwt"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/realtime"
)

// serverMessage mirrors the frames the server writes
type serverMessage struct {
	Type      string                 `json:"type"`
	EventType string                 `json:"event_type,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Topics    []string               `json:"topics,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

func newWSTestServer(t *testing.T, authGrace time.Duration) (*httptest.Server, *realtime.Hub, jwt.Service) {
	t.Helper()

	hub := realtime.NewHub()
	t.Cleanup(hub.Shutdown)

	jwtService := jwt.NewJWTService("ws-test-secret", "1h")
	handler := NewWebSocketHandler(hub, jwtService, authGrace, []string{"*"})

	server := httptest.NewServer(http.HandlerFunc(handler.Serve))
	t.Cleanup(server.Close)
	return server, hub, jwtService
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func mintToken(t *testing.T, jwtService jwt.Service, userID string, role user.Role) string {
	t.Helper()

	token, _, err := jwtService.GenerateAccessToken(userID, userID+"@lab.test", role)
	require.NoError(t, err)
	return token
}

func TestWebSocket_AuthGracePeriodCloses(t *testing.T) {
	server, hub, _ := newWSTestServer(t, 150*time.Millisecond)
	conn := dialWS(t, server)

	// Send nothing and let the grace period lapse
	msg := readFrame(t, conn)
	assert.Equal(t, realtime.MessageError, msg.Type)
	assert.Equal(t, "authentication timeout", msg.Error)

	// The connection is closed and was never registered, so a broadcast
	// cannot reach it
	hub.Broadcast(realtime.TopicAlerts, realtime.Message{Type: realtime.MessageNotification})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var after serverMessage
	assert.Error(t, conn.ReadJSON(&after))
}

func TestWebSocket_FirstFrameMustAuthenticate(t *testing.T) {
	server, _, _ := newWSTestServer(t, 2*time.Second)
	conn := dialWS(t, server)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "subscribe", Topics: []string{realtime.TopicAlerts}}))

	msg := readFrame(t, conn)
	assert.Equal(t, realtime.MessageError, msg.Type)
	assert.Equal(t, "first message must authenticate", msg.Error)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var after serverMessage
	assert.Error(t, conn.ReadJSON(&after))
}

func TestWebSocket_InvalidTokenRejected(t *testing.T) {
	server, _, _ := newWSTestServer(t, 2*time.Second)
	conn := dialWS(t, server)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "authenticate", Token: "not-a-token"}))

	msg := readFrame(t, conn)
	assert.Equal(t, realtime.MessageError, msg.Type)
	assert.Equal(t, "invalid token", msg.Error)
}

func TestWebSocket_AuthenticateThenSubscribeAndReceive(t *testing.T) {
	server, hub, jwtService := newWSTestServer(t, 2*time.Second)
	conn := dialWS(t, server)

	token := mintToken(t, jwtService, "prof-1", user.RoleProfessor)
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "authenticate", Token: token}))

	auth := readFrame(t, conn)
	assert.Equal(t, realtime.MessageAuthenticated, auth.Type)
	assert.ElementsMatch(t, realtime.DefaultTopics(user.RoleProfessor, "prof-1"), auth.Topics)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "subscribe", Topics: []string{realtime.ProjectTopic("p1")}}))

	sub := readFrame(t, conn)
	assert.Equal(t, realtime.MessageSubscribed, sub.Type)
	assert.Equal(t, []string{realtime.ProjectTopic("p1")}, sub.Topics)

	hub.Broadcast(realtime.ProjectTopic("p1"), realtime.Message{
		Type:      realtime.MessageNotification,
		EventType: "task_assigned",
		Data:      map[string]interface{}{"task_id": "t1"},
	})

	push := readFrame(t, conn)
	assert.Equal(t, realtime.MessageNotification, push.Type)
	assert.Equal(t, "task_assigned", push.EventType)
	assert.Equal(t, "t1", push.Data["task_id"])
}

func TestWebSocket_StudentForeignSubscribeDenied(t *testing.T) {
	server, hub, jwtService := newWSTestServer(t, 2*time.Second)
	conn := dialWS(t, server)

	token := mintToken(t, jwtService, "student-1", user.RoleStudent)
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "authenticate", Token: token}))

	auth := readFrame(t, conn)
	assert.Equal(t, realtime.MessageAuthenticated, auth.Type)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "subscribe", Topics: []string{realtime.UserTopic("student-2")}}))

	denied := readFrame(t, conn)
	assert.Equal(t, realtime.MessageError, denied.Type)

	// The connection survives the denial; direct pushes still arrive
	hub.PublishToUser("student-1", realtime.Message{
		Type:      realtime.MessageNotification,
		EventType: "direct_message",
	})

	push := readFrame(t, conn)
	assert.Equal(t, realtime.MessageNotification, push.Type)
	assert.Equal(t, "direct_message", push.EventType)
}

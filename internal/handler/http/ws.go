package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openlab-hq/labops-backend-go/internal/pkg/jwt"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// clientMessage is the envelope clients send over the socket
type clientMessage struct {
	Type   string   `json:"type"`
	Token  string   `json:"token,omitempty"`
	Topics []string `json:"topics,omitempty"`
}

// WebSocketHandler upgrades connections and bridges them to the realtime hub
type WebSocketHandler interface {
	Serve(w http.ResponseWriter, r *http.Request)
}

type webSocketHandlerImpl struct {
	hub            *realtime.Hub
	jwtService     jwt.Service
	authGrace      time.Duration
	allowedOrigins []string
}

// NewWebSocketHandler creates a new websocket handler. authGrace bounds how
// long an upgraded connection may sit unauthenticated before it is dropped.
func NewWebSocketHandler(hub *realtime.Hub, jwtService jwt.Service, authGrace time.Duration, allowedOrigins []string) WebSocketHandler {
	return &webSocketHandlerImpl{
		hub:            hub,
		jwtService:     jwtService,
		authGrace:      authGrace,
		allowedOrigins: allowedOrigins,
	}
}

func (h *webSocketHandlerImpl) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Serve upgrades the connection and runs the session. The first frame must
// be an authenticate message carrying a valid access token; the upgrade
// itself is unauthenticated because browser websocket clients cannot set an
// Authorization header.
func (h *webSocketHandlerImpl) Serve(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)

	sess, ok := h.authenticate(conn)
	if !ok {
		return
	}
	defer h.hub.Unregister(sess)

	// Control replies share the writer goroutine with hub pushes so the
	// connection has exactly one writer.
	control := make(chan []byte, 8)
	writerDone := make(chan struct{})
	go h.writer(conn, sess, control, writerDone)

	sendControl(control, realtime.Message{
		Type:   realtime.MessageAuthenticated,
		Topics: realtime.DefaultTopics(sess.Role, sess.UserID),
	})

	h.reader(conn, sess, control, writerDone)
}

// authenticate reads the first frame within the grace period and validates
// its token. Failure closes the connection without registering a session.
func (h *webSocketHandlerImpl) authenticate(conn *websocket.Conn) (*realtime.Session, bool) {
	if err := conn.SetReadDeadline(time.Now().Add(h.authGrace)); err != nil {
		return nil, false
	}

	var msg clientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		writeDirect(conn, realtime.Message{Type: realtime.MessageError, Error: "authentication timeout"})
		return nil, false
	}

	if msg.Type != "authenticate" || msg.Token == "" {
		writeDirect(conn, realtime.Message{Type: realtime.MessageError, Error: "first message must authenticate"})
		return nil, false
	}

	userID, role, err := h.jwtService.ValidateSession(msg.Token)
	if err != nil {
		writeDirect(conn, realtime.Message{Type: realtime.MessageError, Error: "invalid token"})
		return nil, false
	}

	sess := h.hub.Register(userID, role)
	if sess == nil {
		writeDirect(conn, realtime.Message{Type: realtime.MessageError, Error: "server shutting down"})
		return nil, false
	}

	return sess, true
}

// reader consumes client frames until the connection drops. A forbidden
// subscribe is answered with an error frame; the connection stays open.
func (h *webSocketHandlerImpl) reader(conn *websocket.Conn, sess *realtime.Session, control chan []byte, writerDone chan struct{}) {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-writerDone:
			return
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}

		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket read failed", "user_id", sess.UserID, "error", err)
			}
			return
		}

		switch msg.Type {
		case "subscribe":
			if err := h.hub.Subscribe(sess, msg.Topics); err != nil {
				sendControl(control, realtime.Message{Type: realtime.MessageError, Error: err.Error()})
				continue
			}
			sendControl(control, realtime.Message{Type: realtime.MessageSubscribed, Topics: msg.Topics})
		case "ping":
			sendControl(control, realtime.Message{Type: "pong"})
		}
	}
}

// writer is the connection's single writer: it drains hub pushes and control
// replies and keeps the connection alive with pings
func (h *webSocketHandlerImpl) writer(conn *websocket.Conn, sess *realtime.Session, control chan []byte, done chan struct{}) {
	defer close(done)
	defer conn.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-sess.Outbound():
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := writePayload(conn, payload); err != nil {
				return
			}
		case payload := <-control:
			if err := writePayload(conn, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writePayload(conn *websocket.Conn, payload []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// writeDirect writes a frame before the writer goroutine exists
func writeDirect(conn *websocket.Conn, msg realtime.Message) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteJSON(msg)
}

func sendControl(control chan []byte, msg realtime.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal control message", "error", err)
		return
	}
	select {
	case control <- payload:
	default:
		slog.Warn("Control channel full, dropping reply")
	}
}

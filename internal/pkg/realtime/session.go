package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

// sendBufferSize bounds each connection's outbound queue. A consumer that
// falls further behind than this loses messages rather than stalling
// delivery to everyone else; durable in-app records cover the gap.
const sendBufferSize = 32

// Session is one authenticated realtime connection. Its subscription set is
// owned by the hub goroutine; the session itself only carries identity and
// the outbound queue.
type Session struct {
	ID              string
	UserID          string
	Role            user.Role
	AuthenticatedAt time.Time

	send      chan []byte
	closeOnce sync.Once
}

func newSession(userID string, role user.Role) *Session {
	return &Session{
		ID:              uuid.New().String(),
		UserID:          userID,
		Role:            role,
		AuthenticatedAt: time.Now(),
		send:            make(chan []byte, sendBufferSize),
	}
}

// Outbound returns the channel the transport writer drains. It is closed
// when the session is unregistered.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

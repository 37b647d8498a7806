package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

// ErrTopicForbidden is returned when a subscribe request names a topic the
// session's role may not receive. The connection stays open.
var ErrTopicForbidden = errors.New("topic not permitted for role")

// Message is the wire envelope pushed to realtime clients
type Message struct {
	Type      string      `json:"type"`
	EventType string      `json:"event_type,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Topics    []string    `json:"topics,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// Message type values
const (
	MessageAuthenticated = "authenticated"
	MessageSubscribed    = "subscribed"
	MessageNotification  = "notification"
	MessageError         = "error"
)

type registerReq struct {
	sess *Session
	done chan struct{}
}

type unregisterReq struct {
	sess *Session
	done chan struct{}
}

type subscribeReq struct {
	sess   *Session
	topics []string
	reply  chan error
}

type broadcastReq struct {
	topic   string
	payload []byte
}

type countReq struct {
	topic string
	reply chan int
}

// Hub is the in-memory connection registry. All registry state is owned by
// the single run goroutine; every mutation and read goes through a channel,
// so concurrent connects, disconnects and broadcasts never race. The
// registry is empty on process start and is never persisted.
type Hub struct {
	register   chan registerReq
	unregister chan unregisterReq
	subscribe  chan subscribeReq
	broadcast  chan broadcastReq
	count      chan countReq

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates the hub and starts its registry goroutine
func NewHub() *Hub {
	h := &Hub{
		register:   make(chan registerReq),
		unregister: make(chan unregisterReq),
		subscribe:  make(chan subscribeReq),
		broadcast:  make(chan broadcastReq),
		count:      make(chan countReq),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	// topic -> subscribed sessions; session -> its topics
	topics := make(map[string]map[*Session]struct{})
	sessions := make(map[*Session]map[string]struct{})

	subscribeOne := func(sess *Session, topic string) {
		if topics[topic] == nil {
			topics[topic] = make(map[*Session]struct{})
		}
		topics[topic][sess] = struct{}{}
		sessions[sess][topic] = struct{}{}
	}

	dropSession := func(sess *Session) {
		subs, ok := sessions[sess]
		if !ok {
			return
		}
		for topic := range subs {
			delete(topics[topic], sess)
			if len(topics[topic]) == 0 {
				delete(topics, topic)
			}
		}
		delete(sessions, sess)
		sess.close()
	}

	for {
		select {
		case req := <-h.register:
			sessions[req.sess] = make(map[string]struct{})
			for _, topic := range DefaultTopics(req.sess.Role, req.sess.UserID) {
				subscribeOne(req.sess, topic)
			}
			close(req.done)

		case req := <-h.unregister:
			dropSession(req.sess)
			close(req.done)

		case req := <-h.subscribe:
			if _, ok := sessions[req.sess]; !ok {
				req.reply <- errors.New("session is not registered")
				continue
			}
			var err error
			for _, topic := range req.topics {
				if !TopicAllowed(req.sess.Role, req.sess.UserID, topic) {
					err = fmt.Errorf("%w: %s", ErrTopicForbidden, topic)
					break
				}
			}
			if err == nil {
				for _, topic := range req.topics {
					subscribeOne(req.sess, topic)
				}
			}
			req.reply <- err

		case req := <-h.broadcast:
			for sess := range topics[req.topic] {
				select {
				case sess.send <- req.payload:
				default:
					// Consumer buffer is full; drop rather than stall the
					// broadcast. The durable record covers missed pushes.
					slog.Warn("Realtime consumer too slow, dropping message",
						"user_id", sess.UserID, "topic", req.topic)
				}
			}

		case req := <-h.count:
			req.reply <- len(topics[req.topic])

		case <-h.done:
			for sess := range sessions {
				sess.close()
			}
			return
		}
	}
}

// Register creates a session for an authenticated identity and subscribes
// its role-default topics. Returns nil after Shutdown.
func (h *Hub) Register(userID string, role user.Role) *Session {
	sess := newSession(userID, role)
	req := registerReq{sess: sess, done: make(chan struct{})}
	select {
	case h.register <- req:
		<-req.done
		return sess
	case <-h.done:
		sess.close()
		return nil
	}
}

// Unregister drops the session and all its subscriptions atomically and
// closes its outbound channel.
func (h *Hub) Unregister(sess *Session) {
	req := unregisterReq{sess: sess, done: make(chan struct{})}
	select {
	case h.unregister <- req:
		<-req.done
	case <-h.done:
		sess.close()
	}
}

// Subscribe adds topics to a registered session, rejecting the whole request
// with ErrTopicForbidden if any topic is outside the role's allowance.
func (h *Hub) Subscribe(sess *Session, topicNames []string) error {
	req := subscribeReq{sess: sess, topics: topicNames, reply: make(chan error, 1)}
	select {
	case h.subscribe <- req:
		return <-req.reply
	case <-h.done:
		return errors.New("hub is shut down")
	}
}

// Broadcast delivers the message to every session subscribed to the topic at
// send time. Sessions that subscribe later do not receive it.
func (h *Hub) Broadcast(topic string, msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal realtime message", "topic", topic, "error", err)
		return
	}
	select {
	case h.broadcast <- broadcastReq{topic: topic, payload: payload}:
	case <-h.done:
	}
}

// PublishToUser delivers a message to every connection of one user
func (h *Hub) PublishToUser(userID string, msg Message) {
	h.Broadcast(UserTopic(userID), msg)
}

// SubscriberCount returns how many sessions are subscribed to a topic
func (h *Hub) SubscriberCount(topic string) int {
	req := countReq{topic: topic, reply: make(chan int, 1)}
	select {
	case h.count <- req:
		return <-req.reply
	case <-h.done:
		return 0
	}
}

// Shutdown closes every session and stops the registry goroutine
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
)

func receive(t *testing.T, sess *Session) Message {
	t.Helper()
	select {
	case payload, ok := <-sess.Outbound():
		require.True(t, ok, "outbound channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func assertSilent(t *testing.T, sess *Session) {
	t.Helper()
	select {
	case payload, ok := <-sess.Outbound():
		if ok {
			t.Fatalf("unexpected message: %s", payload)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_StaffDefaultTopics(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	prof := h.Register("prof-1", user.RoleProfessor)
	require.NotNil(t, prof)

	h.Broadcast(TopicAlerts, Message{Type: MessageNotification, EventType: "alert_raised"})

	msg := receive(t, prof)
	assert.Equal(t, MessageNotification, msg.Type)
	assert.Equal(t, "alert_raised", msg.EventType)
}

func TestHub_StudentNotOnAlertsTopic(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	student := h.Register("student-1", user.RoleStudent)

	h.Broadcast(TopicAlerts, Message{Type: MessageNotification})
	assertSilent(t, student)

	// But the student's own user topic works
	h.PublishToUser("student-1", Message{Type: MessageNotification, EventType: "direct_message"})
	msg := receive(t, student)
	assert.Equal(t, "direct_message", msg.EventType)
}

func TestHub_StudentCannotSubscribeForeignTopics(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	student := h.Register("student-1", user.RoleStudent)

	err := h.Subscribe(student, []string{TopicAlerts})
	assert.ErrorIs(t, err, ErrTopicForbidden)

	err = h.Subscribe(student, []string{UserTopic("student-2")})
	assert.ErrorIs(t, err, ErrTopicForbidden)

	// One forbidden topic rejects the whole request
	err = h.Subscribe(student, []string{UserTopic("student-1"), TopicAlerts})
	assert.ErrorIs(t, err, ErrTopicForbidden)
}

func TestHub_StaffSubscribesAnyTopic(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	prof := h.Register("prof-1", user.RoleProfessor)
	require.NoError(t, h.Subscribe(prof, []string{ProjectTopic("p1"), UserTopic("student-1")}))

	h.Broadcast(ProjectTopic("p1"), Message{Type: MessageNotification, EventType: "task_assigned"})
	msg := receive(t, prof)
	assert.Equal(t, "task_assigned", msg.EventType)
}

func TestHub_MembershipEvaluatedAtSendTime(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	early := h.Register("prof-1", user.RoleProfessor)

	h.Broadcast(TopicAlerts, Message{Type: MessageNotification, EventType: "first"})
	receive(t, early)

	// A session registered after the broadcast never sees it
	late := h.Register("prof-2", user.RoleProfessor)
	assertSilent(t, late)
}

func TestHub_UnregisterClosesOutbound(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	sess := h.Register("prof-1", user.RoleProfessor)
	h.Unregister(sess)

	_, ok := <-sess.Outbound()
	assert.False(t, ok)

	// Broadcasting after unregister must not panic or deliver
	h.Broadcast(TopicAlerts, Message{Type: MessageNotification})
}

func TestHub_MultipleConnectionsSameUser(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	first := h.Register("student-1", user.RoleStudent)
	second := h.Register("student-1", user.RoleStudent)

	h.PublishToUser("student-1", Message{Type: MessageNotification})

	receive(t, first)
	receive(t, second)

	assert.Equal(t, 2, h.SubscriberCount(UserTopic("student-1")))
}

func TestHub_SlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	sess := h.Register("prof-1", user.RoleProfessor)

	// Nobody drains the session; overflow past the buffer must not block
	// the hub goroutine
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBufferSize*2; i++ {
			h.Broadcast(TopicAlerts, Message{Type: MessageNotification})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub blocked on a slow consumer")
	}

	// The buffered prefix is still there
	receive(t, sess)
}

func TestHub_ShutdownClosesSessions(t *testing.T) {
	h := NewHub()

	sess := h.Register("prof-1", user.RoleProfessor)
	h.Shutdown()

	// Drain anything buffered, then observe close
	for {
		_, ok := <-sess.Outbound()
		if !ok {
			break
		}
	}

	assert.Nil(t, h.Register("prof-2", user.RoleProfessor))
}

func TestTopicAllowed(t *testing.T) {
	assert.True(t, TopicAllowed(user.RoleAdmin, "a", TopicAlerts))
	assert.True(t, TopicAllowed(user.RoleProfessor, "p", ProjectTopic("x")))
	assert.True(t, TopicAllowed(user.RoleStudent, "s", UserTopic("s")))
	assert.False(t, TopicAllowed(user.RoleStudent, "s", UserTopic("other")))
	assert.False(t, TopicAllowed(user.RoleStudent, "s", TopicLabActivity))
}

package notification

import "time"

// EventType is the closed set of domain events the dispatcher handles
type EventType string

const (
	EventAlertRaised       EventType = "alert_raised"
	EventScheduleSubmitted EventType = "schedule_submitted"
	EventScheduleApproved  EventType = "schedule_approved"
	EventScheduleRejected  EventType = "schedule_rejected"
	EventDirectMessage     EventType = "direct_message"
	EventTaskAssigned      EventType = "task_assigned"
	EventTaskOverdue       EventType = "task_overdue"
)

// AllEventTypes returns every dispatchable event type
func AllEventTypes() []EventType {
	return []EventType{
		EventAlertRaised,
		EventScheduleSubmitted,
		EventScheduleApproved,
		EventScheduleRejected,
		EventDirectMessage,
		EventTaskAssigned,
		EventTaskOverdue,
	}
}

// IsValid reports whether the event type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventAlertRaised, EventScheduleSubmitted, EventScheduleApproved,
		EventScheduleRejected, EventDirectMessage, EventTaskAssigned, EventTaskOverdue:
		return true
	}
	return false
}

// Channel identifies a delivery channel
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

// Notification is the durable in-app record written for every in-app
// delivery, so disconnected clients can catch up on history.
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	EventType   EventType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}

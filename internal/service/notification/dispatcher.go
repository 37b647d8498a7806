package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
	"github.com/openlab-hq/labops-backend-go/internal/domain/notification"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/email"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/realtime"
)

// Publisher is the live push channel. Satisfied by realtime.Hub.
type Publisher interface {
	PublishToUser(userID string, msg realtime.Message)
	Broadcast(topic string, msg realtime.Message)
}

type dispatcher struct {
	notifications notification.Repository
	users         user.Repository
	alertConfigs  alert.ConfigRepository
	hub           Publisher
	mailer        email.Service
	now           func() time.Time
}

// NewDispatcher creates the event fan-out dispatcher
func NewDispatcher(
	notifications notification.Repository,
	users user.Repository,
	alertConfigs alert.ConfigRepository,
	hub Publisher,
	mailer email.Service,
) notification.Dispatcher {
	return &dispatcher{
		notifications: notifications,
		users:         users,
		alertConfigs:  alertConfigs,
		hub:           hub,
		mailer:        mailer,
		now:           time.Now,
	}
}

// Dispatch resolves the recipient set and channels for the event and
// delivers to each (recipient, channel) pair independently. One failing
// delivery never blocks the rest, and nothing here is retried; the durable
// in-app rows and the SMTP sender's own retries cover transient faults.
func (d *dispatcher) Dispatch(ctx context.Context, event notification.Event) notification.DeliveryReport {
	report := notification.DeliveryReport{}

	if !event.Type.IsValid() {
		slog.Error("Dropping event with unknown type", "event_type", event.Type)
		report.Failed++
		report.Failures = append(report.Failures, notification.DeliveryFailure{
			Channel: notification.ChannelInApp,
			Error:   notification.ErrInvalidEventType.Error(),
		})
		return report
	}

	recipients, err := d.resolveRecipients(ctx, event)
	if err != nil {
		slog.Error("Failed to resolve event recipients", "event_type", event.Type, "error", err)
		report.Failed++
		report.Failures = append(report.Failures, notification.DeliveryFailure{
			Channel: notification.ChannelInApp,
			Error:   err.Error(),
		})
		return report
	}

	channels := d.resolveChannels(ctx, event)

	for _, recipient := range recipients {
		if channels.InApp {
			if err := d.deliverInApp(ctx, event, recipient); err != nil {
				slog.Error("In-app delivery failed",
					"event_type", event.Type, "recipient", recipient.ID, "error", err)
				report.Failed++
				report.Failures = append(report.Failures, notification.DeliveryFailure{
					RecipientID: recipient.ID,
					Channel:     notification.ChannelInApp,
					Error:       err.Error(),
				})
			} else {
				report.Delivered++
			}
		}

		if channels.Email {
			if err := d.deliverEmail(event, recipient); err != nil {
				slog.Error("Email delivery failed",
					"event_type", event.Type, "recipient", recipient.ID, "error", err)
				report.Failed++
				report.Failures = append(report.Failures, notification.DeliveryFailure{
					RecipientID: recipient.ID,
					Channel:     notification.ChannelEmail,
					Error:       err.Error(),
				})
			} else {
				report.Delivered++
			}
		}
	}

	// Alert events additionally hit the staff-wide live feed
	if event.Type == notification.EventAlertRaised {
		d.hub.Broadcast(realtime.TopicAlerts, realtime.Message{
			Type:      realtime.MessageNotification,
			EventType: string(event.Type),
			Data:      event.Data,
		})
	}

	return report
}

// resolveRecipients expands the event's recipient list into concrete users.
// Alert events without an explicit list default to all professors plus the
// alert's subject user.
func (d *dispatcher) resolveRecipients(ctx context.Context, event notification.Event) ([]user.User, error) {
	ids := append([]string(nil), event.Recipients...)
	role := event.RecipientRole

	if event.Type == notification.EventAlertRaised && len(ids) == 0 && role == nil {
		professorRole := user.RoleProfessor
		role = &professorRole
		if event.Alert != nil && event.Alert.SubjectUserID != nil {
			ids = append(ids, *event.Alert.SubjectUserID)
		}
	}

	byID := make(map[string]user.User)

	if len(ids) > 0 {
		users, err := d.users.GetByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve explicit recipients: %w", err)
		}
		for _, u := range users {
			byID[u.ID] = u
		}
	}

	if role != nil {
		users, err := d.users.GetByRole(ctx, *role)
		if err != nil {
			return nil, fmt.Errorf("resolve role recipients: %w", err)
		}
		for _, u := range users {
			byID[u.ID] = u
		}
	}

	if len(byID) == 0 {
		return nil, notification.ErrNoRecipients
	}

	recipients := make([]user.User, 0, len(byID))
	for _, u := range byID {
		recipients = append(recipients, u)
	}
	return recipients, nil
}

// resolveChannels picks delivery channels: the admin-managed alert
// configuration for alert events, per-event defaults otherwise.
func (d *dispatcher) resolveChannels(ctx context.Context, event notification.Event) alert.Channels {
	if event.Type == notification.EventAlertRaised && event.Alert != nil {
		cfg, err := d.alertConfigs.GetByType(ctx, event.Alert.Type)
		if err != nil {
			slog.Warn("Missing alert configuration, defaulting to in-app only",
				"type", event.Alert.Type, "error", err)
			return alert.Channels{InApp: true}
		}
		return cfg.Channels
	}
	return defaultChannels(event.Type)
}

// defaultChannels is total over the event enum; adding an event type without
// extending it is a compile-visible omission during review, not a silent
// lookup miss.
func defaultChannels(t notification.EventType) alert.Channels {
	switch t {
	case notification.EventAlertRaised:
		return alert.Channels{InApp: true}
	case notification.EventScheduleSubmitted:
		return alert.Channels{InApp: true}
	case notification.EventScheduleApproved:
		return alert.Channels{InApp: true, Email: true}
	case notification.EventScheduleRejected:
		return alert.Channels{InApp: true, Email: true}
	case notification.EventDirectMessage:
		return alert.Channels{InApp: true, Email: true}
	case notification.EventTaskAssigned:
		return alert.Channels{InApp: true, Email: true}
	case notification.EventTaskOverdue:
		return alert.Channels{InApp: true}
	}
	return alert.Channels{InApp: true}
}

// deliverInApp writes the durable row first, then pushes to any live
// connections. A client that is offline reads the row later.
func (d *dispatcher) deliverInApp(ctx context.Context, event notification.Event, recipient user.User) error {
	n := &notification.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipient.ID,
		SenderID:    event.SenderID,
		EventType:   event.Type,
		Title:       event.Title,
		Message:     event.Message,
		Data:        event.Data,
		CreatedAt:   d.now(),
	}

	if err := d.notifications.Create(ctx, n); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	d.hub.PublishToUser(recipient.ID, realtime.Message{
		Type:      realtime.MessageNotification,
		EventType: string(event.Type),
		Data: notification.NotificationResponse{
			ID:        n.ID,
			EventType: n.EventType,
			Title:     n.Title,
			Message:   n.Message,
			Data:      n.Data,
			CreatedAt: n.CreatedAt,
		},
	})
	return nil
}

// deliverEmail renders the event through the template for its type and the
// recipient's role, then hands it to the SMTP transport.
func (d *dispatcher) deliverEmail(event notification.Event, recipient user.User) error {
	if recipient.Email == "" {
		return fmt.Errorf("recipient %s has no email address", recipient.ID)
	}

	switch event.Type {
	case notification.EventAlertRaised:
		data := email.AlertEmailData{
			RecipientName: recipient.Name,
			AlertTitle:    event.Title,
			AlertMessage:  event.Message,
		}
		if event.Alert != nil {
			data.AlertType = event.Alert.Type.Label()
			data.Severity = string(event.Alert.Severity)
			data.CreatedAt = event.Alert.CreatedAt.Format(time.RFC822)
		}
		return d.mailer.SendAlertRaised(recipient.Email, recipient.Role, data)

	case notification.EventScheduleSubmitted, notification.EventScheduleApproved, notification.EventScheduleRejected:
		return d.mailer.SendScheduleStatus(recipient.Email, email.ScheduleEmailData{
			RecipientName: recipient.Name,
			StudentName:   dataString(event.Data, "student_name"),
			WeekStart:     dataString(event.Data, "week_start_date"),
			Status:        scheduleStatusLabel(event.Type),
			Reason:        dataString(event.Data, "reason"),
			TotalHours:    dataString(event.Data, "total_hours"),
		})

	case notification.EventDirectMessage:
		return d.mailer.SendDirectMessage(recipient.Email, email.MessageEmailData{
			RecipientName: recipient.Name,
			SenderName:    dataString(event.Data, "sender_name"),
			Message:       event.Message,
		})

	case notification.EventTaskAssigned, notification.EventTaskOverdue:
		taskEvent := "assigned"
		if event.Type == notification.EventTaskOverdue {
			taskEvent = "overdue"
		}
		return d.mailer.SendTaskEvent(recipient.Email, email.TaskEmailData{
			RecipientName: recipient.Name,
			TaskTitle:     dataString(event.Data, "task_title"),
			ProjectName:   dataString(event.Data, "project_name"),
			Event:         taskEvent,
			DueDate:       dataString(event.Data, "due_date"),
		})
	}

	return fmt.Errorf("%w: %s", notification.ErrInvalidEventType, event.Type)
}

func scheduleStatusLabel(t notification.EventType) string {
	switch t {
	case notification.EventScheduleApproved:
		return "approved"
	case notification.EventScheduleRejected:
		return "rejected"
	default:
		return "submitted"
	}
}

func dataString(data map[string]interface{}, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return fmt.Sprintf("%g", v)
	case int:
		return fmt.Sprintf("%d", v)
	}
	return ""
}

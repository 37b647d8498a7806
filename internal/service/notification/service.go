package notification

import (
	"context"
	"fmt"

	"github.com/openlab-hq/labops-backend-go/internal/domain/notification"
)

type notificationService struct {
	notifications notification.Repository
}

// NewNotificationService creates the in-app notification history service
func NewNotificationService(notifications notification.Repository) notification.Service {
	return &notificationService{notifications: notifications}
}

func (s *notificationService) List(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (notification.ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := s.notifications.GetByUserID(ctx, userID, page, pageSize, unreadOnly)
	if err != nil {
		return notification.ListResponse{}, fmt.Errorf("failed to list notifications: %w", err)
	}

	unread, err := s.notifications.GetUnreadCount(ctx, userID)
	if err != nil {
		return notification.ListResponse{}, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	responses := make([]notification.NotificationResponse, 0, len(items))
	for _, n := range items {
		responses = append(responses, notification.NotificationResponse{
			ID:        n.ID,
			EventType: n.EventType,
			Title:     n.Title,
			Message:   n.Message,
			Data:      n.Data,
			IsRead:    n.IsRead,
			ReadAt:    n.ReadAt,
			CreatedAt: n.CreatedAt,
		})
	}

	return notification.ListResponse{
		Notifications: responses,
		Total:         total,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.notifications.GetUnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks the given notifications read. Ids belonging to other
// users are ignored rather than rejected, so the call is idempotent.
func (s *notificationService) MarkAsRead(ctx context.Context, userID string, req notification.MarkAsReadRequest) error {
	if len(req.NotificationIDs) == 0 {
		return nil
	}
	if err := s.notifications.MarkAsRead(ctx, req.NotificationIDs, userID); err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllAsRead(ctx, userID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

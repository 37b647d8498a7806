package notification

import "context"

// Dispatcher fans a domain event out to channel-specific deliveries.
// Delivery is best effort per (recipient, channel); failures are counted in
// the report and never escalated to the triggering caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) DeliveryReport
}

// Service exposes the durable in-app notification history
type Service interface {
	List(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (ListResponse, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error
}

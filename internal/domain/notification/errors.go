package notification

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidEventType     = errors.New("invalid event type")
	ErrNoRecipients         = errors.New("event resolves to no recipients")
)

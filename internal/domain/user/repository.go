package user

import "context"

// Repository is the lab member directory consumed by the notification
// dispatcher to resolve recipient sets and email addresses.
type Repository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByIDs(ctx context.Context, ids []string) ([]User, error)
	GetByRole(ctx context.Context, role Role) ([]User, error)
}

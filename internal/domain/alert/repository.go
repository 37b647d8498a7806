package alert

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id string) (*Alert, error)

	// FindUnresolved returns the unresolved alert matching the dedup key
	// created at or after since, or nil when no such alert exists.
	FindUnresolved(ctx context.Context, alertType AlertType, subjectKey string, since time.Time) (*Alert, error)

	List(ctx context.Context, filter Filter) ([]*Alert, int, error)

	// Resolve marks the alert resolved and stamps UpdatedAt. Resolving an
	// already-resolved alert is a no-op success. Unknown ids return
	// ErrAlertNotFound.
	Resolve(ctx context.Context, id string, reason *string) error

	Stats(ctx context.Context) (Stats, error)
}

type ConfigRepository interface {
	GetAll(ctx context.Context) ([]Configuration, error)
	GetEnabled(ctx context.Context) ([]Configuration, error)
	GetByType(ctx context.Context, alertType AlertType) (Configuration, error)
	Update(ctx context.Context, req UpdateConfigRequest) (Configuration, error)
}

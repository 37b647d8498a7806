package schedule

import (
	"context"
	"time"
)

type WorkScheduleRepository interface {
	Create(ctx context.Context, ws WorkSchedule) (WorkSchedule, error)
	GetByID(ctx context.Context, id string) (WorkSchedule, error)
	GetByUserWeek(ctx context.Context, userID string, weekStart time.Time) (WorkSchedule, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]WorkSchedule, error)
	ListByStatus(ctx context.Context, status ScheduleStatus) ([]WorkSchedule, error)

	// UpdateStatus transitions a schedule from one status to another with an
	// optimistic check on the current status. ErrStatusConflict is returned
	// when the schedule is no longer in the expected state.
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) error
}

// UpdateStatusRequest carries a single optimistic status transition.
// Optional fields are written only when non-nil.
type UpdateStatusRequest struct {
	ScheduleID string
	FromStatus ScheduleStatus
	ToStatus   ScheduleStatus
	Approved   *bool
	TotalHours *float64
	Notes      *string
}

type ScheduleBlockRepository interface {
	Create(ctx context.Context, block ScheduleBlock) (ScheduleBlock, error)
	GetByID(ctx context.Context, id string) (ScheduleBlock, error)
	GetByScheduleID(ctx context.Context, scheduleID string) ([]ScheduleBlock, error)
	Update(ctx context.Context, block ScheduleBlock) error
	Delete(ctx context.Context, id, scheduleID string) error
}

package schedule

import "context"

type Service interface {
	// Schedules
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (ScheduleResponse, error)
	GetSchedule(ctx context.Context, id string) (ScheduleResponse, error)
	ListMySchedules(ctx context.Context, userID string) (ScheduleListResponse, error)

	// ListPending returns every submitted schedule awaiting review, oldest
	// submission first.
	ListPending(ctx context.Context) (ScheduleListResponse, error)

	// Blocks, editable only while the schedule is a draft
	CreateBlock(ctx context.Context, req CreateBlockRequest) (BlockResponse, error)
	UpdateBlock(ctx context.Context, req UpdateBlockRequest) (BlockResponse, error)
	DeleteBlock(ctx context.Context, blockID, scheduleID, userID string) error

	// Compliance preview over the schedule's current blocks
	GetCompliance(ctx context.Context, scheduleID string) (ComplianceResult, error)

	// Lifecycle transitions
	Submit(ctx context.Context, scheduleID, userID string) (ScheduleResponse, error)
	Approve(ctx context.Context, scheduleID string) error
	Reject(ctx context.Context, scheduleID string, reason *string) error
	Reopen(ctx context.Context, scheduleID, userID string) error
}

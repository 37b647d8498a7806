package schedule

import (
	"errors"
	"strings"
)

var (
	ErrScheduleNotFound = errors.New("work schedule not found")
	ErrBlockNotFound    = errors.New("schedule block not found")
	ErrScheduleExists   = errors.New("an active schedule already exists for this week")

	ErrScheduleNotDraft     = errors.New("schedule is not editable, only draft schedules can be modified")
	ErrScheduleNotSubmitted = errors.New("schedule is not awaiting review")
	ErrScheduleNotRejected  = errors.New("only rejected schedules can be reopened")
	ErrStatusConflict       = errors.New("schedule was modified concurrently, reload and retry")

	ErrInvalidBlockDuration = errors.New("block end time must be after start time")
	ErrInvalidDayOfWeek     = errors.New("day of week must be between 1 (Monday) and 7 (Sunday)")
	ErrNotScheduleOwner     = errors.New("schedule belongs to another user")

	ErrInvalidRequestData = errors.New("invalid request data")
)

// ComplianceError is returned when a schedule submission fails validation.
// It carries every unmet condition so callers can surface the full list.
type ComplianceError struct {
	Result ComplianceResult
}

func (e *ComplianceError) Error() string {
	msgs := make([]string, len(e.Result.Violations))
	for i, v := range e.Result.Violations {
		msgs[i] = v.Message
	}
	return "schedule does not meet lab policy: " + strings.Join(msgs, "; ")
}

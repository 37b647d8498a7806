package schedule

import (
	"fmt"
	"time"
)

// ScheduleStatus represents the lifecycle state of a weekly schedule
type ScheduleStatus string

const (
	StatusDraft     ScheduleStatus = "draft"
	StatusSubmitted ScheduleStatus = "submitted"
	StatusApproved  ScheduleStatus = "approved"
	StatusRejected  ScheduleStatus = "rejected"
)

var ScheduleStatusValues = []string{
	string(StatusDraft),
	string(StatusSubmitted),
	string(StatusApproved),
	string(StatusRejected),
}

// WorkSchedule represents one student's schedule for one calendar week.
// (UserID, WeekStartDate) identifies at most one active schedule.
type WorkSchedule struct {
	ID                  string
	UserID              string
	WeekStartDate       time.Time // date-only, Monday of the week
	Status              ScheduleStatus
	Approved            bool
	TotalScheduledHours float64
	Notes               *string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Blocks []ScheduleBlock
}

// ScheduleBlock is a single planned working interval. Times are stored as
// minutes since midnight so duration math is timezone independent.
type ScheduleBlock struct {
	ID          string
	ScheduleID  string
	DayOfWeek   int // 1=Monday, ..., 7=Sunday
	StartMinute int
	EndMinute   int
	Location    string
	Activity    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Hours returns the block duration in hours. Negative or zero for
// invalid blocks; those are rejected at creation.
func (b ScheduleBlock) Hours() float64 {
	return float64(b.EndMinute-b.StartMinute) / 60.0
}

// Overlaps reports whether two blocks on the same day have intersecting
// [start, end) intervals.
func (b ScheduleBlock) Overlaps(other ScheduleBlock) bool {
	if b.DayOfWeek != other.DayOfWeek {
		return false
	}
	return b.StartMinute < other.EndMinute && other.StartMinute < b.EndMinute
}

// Violation codes reported by the compliance validator
const (
	ViolationMinimumHours    = "minimum_hours"
	ViolationOverlap         = "overlap"
	ViolationInvalidDuration = "invalid_duration"
)

// Violation is a single failed compliance check
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ComplianceResult is derived from a schedule's current blocks. It is never
// persisted or cached; blocks can change between validations.
type ComplianceResult struct {
	TotalHours float64     `json:"total_hours"`
	IsValid    bool        `json:"is_valid"`
	Violations []Violation `json:"violations"`
}

// FormatMinute renders minutes-since-midnight as HH:MM for messages
func FormatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

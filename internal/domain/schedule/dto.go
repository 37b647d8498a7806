package schedule

import "time"

type CreateScheduleRequest struct {
	UserID        string `json:"-"`
	WeekStartDate string `json:"week_start_date"` // YYYY-MM-DD, Monday
	Notes         *string `json:"notes,omitempty"`
}

type CreateBlockRequest struct {
	ScheduleID string `json:"-"`
	UserID     string `json:"-"`
	DayOfWeek  int    `json:"day_of_week"`
	StartTime  string `json:"start_time"` // HH:MM
	EndTime    string `json:"end_time"`   // HH:MM
	Location   string `json:"location"`
	Activity   string `json:"activity"`
}

type UpdateBlockRequest struct {
	BlockID    string  `json:"-"`
	ScheduleID string  `json:"-"`
	UserID     string  `json:"-"`
	DayOfWeek  *int    `json:"day_of_week,omitempty"`
	StartTime  *string `json:"start_time,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`
	Location   *string `json:"location,omitempty"`
	Activity   *string `json:"activity,omitempty"`
}

type RejectScheduleRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type BlockResponse struct {
	ID        string  `json:"id"`
	DayOfWeek int     `json:"day_of_week"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Hours     float64 `json:"hours"`
	Location  string  `json:"location"`
	Activity  string  `json:"activity"`
}

type ScheduleResponse struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"user_id"`
	WeekStartDate       string           `json:"week_start_date"`
	Status              ScheduleStatus   `json:"status"`
	Approved            bool             `json:"approved"`
	TotalScheduledHours float64          `json:"total_scheduled_hours"`
	Notes               *string          `json:"notes,omitempty"`
	Blocks              []BlockResponse  `json:"blocks"`
	Compliance          ComplianceResult `json:"compliance"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

type ScheduleListResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
	Total     int                `json:"total"`
}

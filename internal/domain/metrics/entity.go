package metrics

import "time"

// OverdueTask is a task past its due date that is not completed
type OverdueTask struct {
	TaskID     string
	ProjectID  string
	AssigneeID string
	Title      string
	DueDate    time.Time
}

// DaysOverdue returns whole days elapsed since the due date
func (t OverdueTask) DaysOverdue(now time.Time) int {
	if !now.After(t.DueDate) {
		return 0
	}
	return int(now.Sub(t.DueDate).Hours() / 24)
}

// InactiveStudent is a student with no recorded activity since LastActivityAt
type InactiveStudent struct {
	UserID         string
	Name           string
	LastActivityAt time.Time
}

// ProjectRiskInput carries the raw task counts behind a project risk score
type ProjectRiskInput struct {
	ProjectID    string
	Name         string
	OwnerID      string
	TotalTasks   int
	OverdueTasks int
	BlockedTasks int
}

// RiskScore weighs the overdue-task ratio against the blocked-task ratio,
// yielding a value in [0, 1]. Projects with no tasks score zero.
func (p ProjectRiskInput) RiskScore() float64 {
	if p.TotalTasks == 0 {
		return 0
	}
	overdueRatio := float64(p.OverdueTasks) / float64(p.TotalTasks)
	blockedRatio := float64(p.BlockedTasks) / float64(p.TotalTasks)
	return 0.6*overdueRatio + 0.4*blockedRatio
}

// ActivityWindow compares a student's activity count across two adjacent
// periods of equal length
type ActivityWindow struct {
	UserID        string
	Name          string
	CurrentCount  int
	PreviousCount int
}

// DropRatio returns current activity relative to the prior period.
// A prior period with no activity yields 1 (no drop signal).
func (w ActivityWindow) DropRatio() float64 {
	if w.PreviousCount == 0 {
		return 1
	}
	return float64(w.CurrentCount) / float64(w.PreviousCount)
}

// BlockedTask is a task sitting in blocked status
type BlockedTask struct {
	TaskID       string
	ProjectID    string
	AssigneeID   string
	Title        string
	BlockedSince time.Time
}

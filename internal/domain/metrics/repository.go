package metrics

import (
	"context"
	"time"
)

// CollectorRepository exposes the read-only signal queries the rule engine
// evaluates. Each method maps to one detector rule; a failing query degrades
// that rule only, never the whole scan.
type CollectorRepository interface {
	GetOverdueTasks(ctx context.Context) ([]OverdueTask, error)
	GetInactiveStudents(ctx context.Context, sinceDays int) ([]InactiveStudent, error)
	GetProjectRiskInputs(ctx context.Context) ([]ProjectRiskInput, error)
	GetActivityWindows(ctx context.Context, period time.Duration) ([]ActivityWindow, error)
	GetBlockedTasks(ctx context.Context, minBlockedHours int) ([]BlockedTask, error)
}

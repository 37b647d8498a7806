package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/openlab-hq/labops-backend-go/internal/domain/metrics"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/database"
)

type metricsRepository struct {
	db *database.DB
}

// NewMetricsRepository creates the read-only collector repository backing
// the alert rule engine
func NewMetricsRepository(db *database.DB) metrics.CollectorRepository {
	return &metricsRepository{db: db}
}

// GetOverdueTasks returns incomplete tasks whose due date has passed
func (r *metricsRepository) GetOverdueTasks(ctx context.Context) ([]metrics.OverdueTask, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, project_id, assignee_id, title, due_date
		FROM tasks
		WHERE status NOT IN ('done', 'cancelled')
		  AND due_date IS NOT NULL
		  AND due_date < NOW()
		ORDER BY due_date ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue tasks: %w", err)
	}
	defer rows.Close()

	var tasks []metrics.OverdueTask
	for rows.Next() {
		var t metrics.OverdueTask
		if err := rows.Scan(&t.TaskID, &t.ProjectID, &t.AssigneeID, &t.Title, &t.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan overdue task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

// GetInactiveStudents returns students with no activity log entries within
// the last sinceDays days. Students with no activity at all report their
// account creation time as the last activity.
func (r *metricsRepository) GetInactiveStudents(ctx context.Context, sinceDays int) ([]metrics.InactiveStudent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT u.id, u.name, COALESCE(MAX(al.created_at), u.created_at) AS last_activity_at
		FROM users u
		LEFT JOIN activity_log al ON al.user_id = u.id
		WHERE u.role = 'student'
		GROUP BY u.id, u.name, u.created_at
		HAVING COALESCE(MAX(al.created_at), u.created_at) < NOW() - make_interval(days => $1)
		ORDER BY last_activity_at ASC
	`

	rows, err := q.Query(ctx, query, sinceDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query inactive students: %w", err)
	}
	defer rows.Close()

	var students []metrics.InactiveStudent
	for rows.Next() {
		var s metrics.InactiveStudent
		if err := rows.Scan(&s.UserID, &s.Name, &s.LastActivityAt); err != nil {
			return nil, fmt.Errorf("failed to scan inactive student: %w", err)
		}
		students = append(students, s)
	}

	return students, nil
}

// GetProjectRiskInputs returns per-project task counts for active projects
func (r *metricsRepository) GetProjectRiskInputs(ctx context.Context) ([]metrics.ProjectRiskInput, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT p.id, p.name, p.owner_id,
		       COUNT(t.id) AS total_tasks,
		       COUNT(t.id) FILTER (WHERE t.status NOT IN ('done', 'cancelled') AND t.due_date IS NOT NULL AND t.due_date < NOW()) AS overdue_tasks,
		       COUNT(t.id) FILTER (WHERE t.status = 'blocked') AS blocked_tasks
		FROM projects p
		LEFT JOIN tasks t ON t.project_id = p.id
		WHERE p.status = 'active'
		GROUP BY p.id, p.name, p.owner_id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query project risk inputs: %w", err)
	}
	defer rows.Close()

	var inputs []metrics.ProjectRiskInput
	for rows.Next() {
		var p metrics.ProjectRiskInput
		if err := rows.Scan(&p.ProjectID, &p.Name, &p.OwnerID, &p.TotalTasks, &p.OverdueTasks, &p.BlockedTasks); err != nil {
			return nil, fmt.Errorf("failed to scan project risk input: %w", err)
		}
		inputs = append(inputs, p)
	}

	return inputs, nil
}

// GetActivityWindows returns per-student activity counts for two adjacent
// periods of the given length ending now
func (r *metricsRepository) GetActivityWindows(ctx context.Context, period time.Duration) ([]metrics.ActivityWindow, error) {
	q := GetQuerier(ctx, r.db)

	periodSeconds := int(period.Seconds())

	query := `
		SELECT u.id, u.name,
		       COUNT(al.id) FILTER (WHERE al.created_at >= NOW() - make_interval(secs => $1)) AS current_count,
		       COUNT(al.id) FILTER (WHERE al.created_at >= NOW() - make_interval(secs => $1 * 2)
		                              AND al.created_at < NOW() - make_interval(secs => $1)) AS previous_count
		FROM users u
		LEFT JOIN activity_log al ON al.user_id = u.id
		WHERE u.role = 'student'
		GROUP BY u.id, u.name
	`

	rows, err := q.Query(ctx, query, periodSeconds)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity windows: %w", err)
	}
	defer rows.Close()

	var windows []metrics.ActivityWindow
	for rows.Next() {
		var w metrics.ActivityWindow
		if err := rows.Scan(&w.UserID, &w.Name, &w.CurrentCount, &w.PreviousCount); err != nil {
			return nil, fmt.Errorf("failed to scan activity window: %w", err)
		}
		windows = append(windows, w)
	}

	return windows, nil
}

// GetBlockedTasks returns tasks stuck in blocked status for at least
// minBlockedHours hours
func (r *metricsRepository) GetBlockedTasks(ctx context.Context, minBlockedHours int) ([]metrics.BlockedTask, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, project_id, assignee_id, title, blocked_since
		FROM tasks
		WHERE status = 'blocked'
		  AND blocked_since IS NOT NULL
		  AND blocked_since < NOW() - make_interval(hours => $1)
		ORDER BY blocked_since ASC
	`

	rows, err := q.Query(ctx, query, minBlockedHours)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocked tasks: %w", err)
	}
	defer rows.Close()

	var tasks []metrics.BlockedTask
	for rows.Next() {
		var t metrics.BlockedTask
		if err := rows.Scan(&t.TaskID, &t.ProjectID, &t.AssigneeID, &t.Title, &t.BlockedSince); err != nil {
			return nil, fmt.Errorf("failed to scan blocked task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/database"
)

type alertRepository struct {
	db *database.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.DB) alert.Repository {
	return &alertRepository{db: db}
}

const alertColumns = "id, type, severity, title, message, subject_user_id, subject_project_id, subject_task_id, data, is_resolved, resolved_reason, created_at, updated_at"

// Create persists a new alert. SubjectKey is stored denormalized so the
// dedup lookup stays a single indexed query.
func (r *alertRepository) Create(ctx context.Context, a *alert.Alert) error {
	q := GetQuerier(ctx, r.db)

	if a.ID == "" {
		a.ID = uuid.New().String()
	}

	dataJSON, err := json.Marshal(a.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal alert data: %w", err)
	}

	query := `
		INSERT INTO alerts (id, type, severity, title, message, subject_user_id, subject_project_id, subject_task_id, subject_key, data, is_resolved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = q.Exec(ctx, query,
		a.ID,
		string(a.Type),
		string(a.Severity),
		a.Title,
		a.Message,
		a.SubjectUserID,
		a.SubjectProjectID,
		a.SubjectTaskID,
		a.SubjectKey(),
		dataJSON,
		a.IsResolved,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return nil
}

// GetByID retrieves an alert by ID
func (r *alertRepository) GetByID(ctx context.Context, id string) (*alert.Alert, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf("SELECT %s FROM alerts WHERE id = $1", alertColumns)

	a, err := scanAlert(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, alert.ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}

	return a, nil
}

// FindUnresolved returns the newest unresolved alert for the dedup key
// created at or after since, or nil when none exists
func (r *alertRepository) FindUnresolved(ctx context.Context, alertType alert.AlertType, subjectKey string, since time.Time) (*alert.Alert, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE type = $1 AND subject_key = $2 AND is_resolved = false AND created_at >= $3
		ORDER BY created_at DESC
		LIMIT 1
	`, alertColumns)

	a, err := scanAlert(q.QueryRow(ctx, query, string(alertType), subjectKey, since))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find unresolved alert: %w", err)
	}

	return a, nil
}

// List retrieves alerts matching the filter with pagination, newest first
func (r *alertRepository) List(ctx context.Context, filter alert.Filter) ([]*alert.Alert, int, error) {
	q := GetQuerier(ctx, r.db)

	conditions := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if filter.Severity != nil {
		conditions = append(conditions, fmt.Sprintf("severity = $%d", argIndex))
		args = append(args, string(*filter.Severity))
		argIndex++
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, string(*filter.Type))
		argIndex++
	}
	if filter.Resolved != nil {
		conditions = append(conditions, fmt.Sprintf("is_resolved = $%d", argIndex))
		args = append(args, *filter.Resolved)
		argIndex++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM alerts WHERE %s", whereClause)
	var total int
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`
		SELECT %s FROM alerts
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, alertColumns, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*alert.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, err
		}
		alerts = append(alerts, a)
	}

	return alerts, total, nil
}

// Resolve marks an alert resolved. Resolving an already-resolved alert is a
// no-op success and keeps the first resolution reason; an unknown id returns
// ErrAlertNotFound.
func (r *alertRepository) Resolve(ctx context.Context, id string, reason *string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE alerts
		SET is_resolved = true,
		    resolved_reason = CASE WHEN is_resolved THEN resolved_reason ELSE $2 END,
		    updated_at = CASE WHEN is_resolved THEN updated_at ELSE $3 END
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, id, reason, time.Now())
	if err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return alert.ErrAlertNotFound
	}

	return nil
}

// Stats returns aggregate alert counts
func (r *alertRepository) Stats(ctx context.Context) (alert.Stats, error) {
	q := GetQuerier(ctx, r.db)

	stats := alert.Stats{
		UnresolvedBySeverity: make(map[alert.Severity]int),
		UnresolvedByType:     make(map[alert.AlertType]int),
	}

	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_resolved = false) FROM alerts`
	if err := q.QueryRow(ctx, query).Scan(&stats.Total, &stats.Unresolved); err != nil {
		return alert.Stats{}, fmt.Errorf("failed to count alerts: %w", err)
	}

	rows, err := q.Query(ctx, `SELECT severity, COUNT(*) FROM alerts WHERE is_resolved = false GROUP BY severity`)
	if err != nil {
		return alert.Stats{}, fmt.Errorf("failed to count alerts by severity: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return alert.Stats{}, fmt.Errorf("failed to scan severity count: %w", err)
		}
		stats.UnresolvedBySeverity[alert.Severity(severity)] = count
	}
	rows.Close()

	rows, err = q.Query(ctx, `SELECT type, COUNT(*) FROM alerts WHERE is_resolved = false GROUP BY type`)
	if err != nil {
		return alert.Stats{}, fmt.Errorf("failed to count alerts by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var alertType string
		var count int
		if err := rows.Scan(&alertType, &count); err != nil {
			return alert.Stats{}, fmt.Errorf("failed to scan type count: %w", err)
		}
		stats.UnresolvedByType[alert.AlertType(alertType)] = count
	}

	return stats, nil
}

func scanAlert(row rowScanner) (*alert.Alert, error) {
	var a alert.Alert
	var dataJSON []byte
	var alertType, severity string

	if err := row.Scan(
		&a.ID,
		&alertType,
		&severity,
		&a.Title,
		&a.Message,
		&a.SubjectUserID,
		&a.SubjectProjectID,
		&a.SubjectTaskID,
		&dataJSON,
		&a.IsResolved,
		&a.ResolvedReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Type = alert.AlertType(alertType)
	a.Severity = alert.Severity(severity)
	if dataJSON != nil {
		if err := json.Unmarshal(dataJSON, &a.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alert data: %w", err)
		}
	}

	return &a, nil
}

package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/database"
)

type workScheduleRepository struct {
	db *database.DB
}

// NewWorkScheduleRepository creates a new work schedule repository
func NewWorkScheduleRepository(db *database.DB) schedule.WorkScheduleRepository {
	return &workScheduleRepository{db: db}
}

const scheduleColumns = "id, user_id, week_start_date, status, approved, total_scheduled_hours, notes, created_at, updated_at"

const uniqueViolationCode = "23505"

// Create persists a new weekly schedule. The (user_id, week_start_date)
// unique constraint turns a duplicate week into ErrScheduleExists.
func (r *workScheduleRepository) Create(ctx context.Context, ws schedule.WorkSchedule) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	if ws.ID == "" {
		ws.ID = uuid.New().String()
	}
	now := time.Now()
	ws.CreatedAt = now
	ws.UpdatedAt = now

	query := `
		INSERT INTO work_schedules (id, user_id, week_start_date, status, approved, total_scheduled_hours, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		ws.ID,
		ws.UserID,
		ws.WeekStartDate,
		string(ws.Status),
		ws.Approved,
		ws.TotalScheduledHours,
		ws.Notes,
		ws.CreatedAt,
		ws.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return schedule.WorkSchedule{}, schedule.ErrScheduleExists
		}
		return schedule.WorkSchedule{}, fmt.Errorf("failed to create work schedule: %w", err)
	}

	return ws, nil
}

// GetByID retrieves a work schedule with its blocks
func (r *workScheduleRepository) GetByID(ctx context.Context, id string) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf("SELECT %s FROM work_schedules WHERE id = $1", scheduleColumns)

	ws, err := scanWorkSchedule(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkSchedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.WorkSchedule{}, fmt.Errorf("failed to get work schedule: %w", err)
	}

	if ws.Blocks, err = r.loadBlocks(ctx, ws.ID); err != nil {
		return schedule.WorkSchedule{}, err
	}

	return ws, nil
}

// GetByUserWeek retrieves a user's schedule for the given week
func (r *workScheduleRepository) GetByUserWeek(ctx context.Context, userID string, weekStart time.Time) (schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf("SELECT %s FROM work_schedules WHERE user_id = $1 AND week_start_date = $2", scheduleColumns)

	ws, err := scanWorkSchedule(q.QueryRow(ctx, query, userID, weekStart))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.WorkSchedule{}, schedule.ErrScheduleNotFound
		}
		return schedule.WorkSchedule{}, fmt.Errorf("failed to get work schedule: %w", err)
	}

	if ws.Blocks, err = r.loadBlocks(ctx, ws.ID); err != nil {
		return schedule.WorkSchedule{}, err
	}

	return ws, nil
}

// ListByUser retrieves a user's schedules, most recent week first
func (r *workScheduleRepository) ListByUser(ctx context.Context, userID string, limit int) ([]schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s FROM work_schedules
		WHERE user_id = $1
		ORDER BY week_start_date DESC
		LIMIT $2
	`, scheduleColumns)

	rows, err := q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query work schedules: %w", err)
	}
	defer rows.Close()

	return r.collectWithBlocks(ctx, rows)
}

// ListByStatus retrieves every schedule in the given status, oldest first so
// reviewers see the longest-waiting submissions at the top
func (r *workScheduleRepository) ListByStatus(ctx context.Context, status schedule.ScheduleStatus) ([]schedule.WorkSchedule, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s FROM work_schedules
		WHERE status = $1
		ORDER BY updated_at ASC
	`, scheduleColumns)

	rows, err := q.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to query work schedules: %w", err)
	}
	defer rows.Close()

	return r.collectWithBlocks(ctx, rows)
}

// UpdateStatus transitions a schedule between statuses with an optimistic
// guard on the expected current status. Zero rows updated means either the
// schedule is gone or another actor already moved it; the CAS and that
// diagnosis run in one transaction so they see the same row state.
func (r *workScheduleRepository) UpdateStatus(ctx context.Context, req schedule.UpdateStatusRequest) error {
	return WithTransaction(ctx, r.db, func(ctx context.Context) error {
		return r.updateStatus(ctx, req)
	})
}

func (r *workScheduleRepository) updateStatus(ctx context.Context, req schedule.UpdateStatusRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE work_schedules
		SET status = $3,
		    approved = COALESCE($4, approved),
		    total_scheduled_hours = COALESCE($5, total_scheduled_hours),
		    notes = COALESCE($6, notes),
		    updated_at = $7
		WHERE id = $1 AND status = $2
	`

	tag, err := q.Exec(ctx, query,
		req.ScheduleID,
		string(req.FromStatus),
		string(req.ToStatus),
		req.Approved,
		req.TotalHours,
		req.Notes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM work_schedules WHERE id = $1)`, req.ScheduleID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check schedule existence: %w", err)
		}
		if !exists {
			return schedule.ErrScheduleNotFound
		}
		return schedule.ErrStatusConflict
	}

	return nil
}

func (r *workScheduleRepository) collectWithBlocks(ctx context.Context, rows pgx.Rows) ([]schedule.WorkSchedule, error) {
	var schedules []schedule.WorkSchedule
	for rows.Next() {
		ws, err := scanWorkScheduleRows(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, ws)
	}
	rows.Close()

	for i := range schedules {
		blocks, err := r.loadBlocks(ctx, schedules[i].ID)
		if err != nil {
			return nil, err
		}
		schedules[i].Blocks = blocks
	}

	return schedules, nil
}

func (r *workScheduleRepository) loadBlocks(ctx context.Context, scheduleID string) ([]schedule.ScheduleBlock, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, schedule_id, day_of_week, start_minute, end_minute, location, activity, created_at, updated_at
		FROM schedule_blocks
		WHERE schedule_id = $1
		ORDER BY day_of_week, start_minute
	`

	rows, err := q.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule blocks: %w", err)
	}
	defer rows.Close()

	var blocks []schedule.ScheduleBlock
	for rows.Next() {
		var b schedule.ScheduleBlock
		if err := rows.Scan(&b.ID, &b.ScheduleID, &b.DayOfWeek, &b.StartMinute, &b.EndMinute, &b.Location, &b.Activity, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule block: %w", err)
		}
		blocks = append(blocks, b)
	}

	return blocks, nil
}

func scanWorkSchedule(row rowScanner) (schedule.WorkSchedule, error) {
	var ws schedule.WorkSchedule
	var status string
	if err := row.Scan(
		&ws.ID,
		&ws.UserID,
		&ws.WeekStartDate,
		&status,
		&ws.Approved,
		&ws.TotalScheduledHours,
		&ws.Notes,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	); err != nil {
		return schedule.WorkSchedule{}, err
	}
	ws.Status = schedule.ScheduleStatus(status)
	return ws, nil
}

func scanWorkScheduleRows(rows pgx.Rows) (schedule.WorkSchedule, error) {
	ws, err := scanWorkSchedule(rows)
	if err != nil {
		return schedule.WorkSchedule{}, fmt.Errorf("failed to scan work schedule: %w", err)
	}
	return ws, nil
}

package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/database"
)

type scheduleBlockRepository struct {
	db *database.DB
}

// NewScheduleBlockRepository creates a new schedule block repository
func NewScheduleBlockRepository(db *database.DB) schedule.ScheduleBlockRepository {
	return &scheduleBlockRepository{db: db}
}

const blockColumns = "id, schedule_id, day_of_week, start_minute, end_minute, location, activity, created_at, updated_at"

// Create persists a new schedule block
func (r *scheduleBlockRepository) Create(ctx context.Context, block schedule.ScheduleBlock) (schedule.ScheduleBlock, error) {
	q := GetQuerier(ctx, r.db)

	if block.ID == "" {
		block.ID = uuid.New().String()
	}
	now := time.Now()
	block.CreatedAt = now
	block.UpdatedAt = now

	query := `
		INSERT INTO schedule_blocks (id, schedule_id, day_of_week, start_minute, end_minute, location, activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		block.ID,
		block.ScheduleID,
		block.DayOfWeek,
		block.StartMinute,
		block.EndMinute,
		block.Location,
		block.Activity,
		block.CreatedAt,
		block.UpdatedAt,
	)
	if err != nil {
		return schedule.ScheduleBlock{}, fmt.Errorf("failed to create schedule block: %w", err)
	}

	return block, nil
}

// GetByID retrieves a schedule block by ID
func (r *scheduleBlockRepository) GetByID(ctx context.Context, id string) (schedule.ScheduleBlock, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf("SELECT %s FROM schedule_blocks WHERE id = $1", blockColumns)

	var b schedule.ScheduleBlock
	err := q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.ScheduleID, &b.DayOfWeek, &b.StartMinute, &b.EndMinute,
		&b.Location, &b.Activity, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return schedule.ScheduleBlock{}, schedule.ErrBlockNotFound
		}
		return schedule.ScheduleBlock{}, fmt.Errorf("failed to get schedule block: %w", err)
	}

	return b, nil
}

// GetByScheduleID retrieves a schedule's blocks ordered by day and start time
func (r *scheduleBlockRepository) GetByScheduleID(ctx context.Context, scheduleID string) ([]schedule.ScheduleBlock, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf(`
		SELECT %s FROM schedule_blocks
		WHERE schedule_id = $1
		ORDER BY day_of_week, start_minute
	`, blockColumns)

	rows, err := q.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedule blocks: %w", err)
	}
	defer rows.Close()

	var blocks []schedule.ScheduleBlock
	for rows.Next() {
		var b schedule.ScheduleBlock
		if err := rows.Scan(
			&b.ID, &b.ScheduleID, &b.DayOfWeek, &b.StartMinute, &b.EndMinute,
			&b.Location, &b.Activity, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan schedule block: %w", err)
		}
		blocks = append(blocks, b)
	}

	return blocks, nil
}

// Update rewrites a block's interval and annotations
func (r *scheduleBlockRepository) Update(ctx context.Context, block schedule.ScheduleBlock) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE schedule_blocks
		SET day_of_week = $2, start_minute = $3, end_minute = $4, location = $5, activity = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		block.ID,
		block.DayOfWeek,
		block.StartMinute,
		block.EndMinute,
		block.Location,
		block.Activity,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrBlockNotFound
	}

	return nil
}

// Delete removes a block. The schedule id guard keeps a block from being
// deleted through a different schedule's endpoint.
func (r *scheduleBlockRepository) Delete(ctx context.Context, id, scheduleID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM schedule_blocks WHERE id = $1 AND schedule_id = $2`, id, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to delete schedule block: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrBlockNotFound
	}

	return nil
}

package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/database"
)

type alertConfigRepository struct {
	db *database.DB
}

// NewAlertConfigRepository creates a new alert configuration repository
func NewAlertConfigRepository(db *database.DB) alert.ConfigRepository {
	return &alertConfigRepository{db: db}
}

const configColumns = "type, enabled, thresholds, channels, max_alerts_per_day, cooldown_hours, updated_at"

// GetAll retrieves every alert configuration in fixed type order
func (r *alertConfigRepository) GetAll(ctx context.Context) ([]alert.Configuration, error) {
	return r.list(ctx, fmt.Sprintf("SELECT %s FROM alert_configurations ORDER BY type", configColumns))
}

// GetEnabled retrieves the configurations for enabled alert types
func (r *alertConfigRepository) GetEnabled(ctx context.Context) ([]alert.Configuration, error) {
	return r.list(ctx, fmt.Sprintf("SELECT %s FROM alert_configurations WHERE enabled = true ORDER BY type", configColumns))
}

// GetByType retrieves the configuration for one alert type
func (r *alertConfigRepository) GetByType(ctx context.Context, alertType alert.AlertType) (alert.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	query := fmt.Sprintf("SELECT %s FROM alert_configurations WHERE type = $1", configColumns)

	cfg, err := scanConfig(q.QueryRow(ctx, query, string(alertType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return alert.Configuration{}, alert.ErrConfigNotFound
		}
		return alert.Configuration{}, fmt.Errorf("failed to get alert configuration: %w", err)
	}

	return cfg, nil
}

// Update applies the non-nil fields of req and returns the updated
// configuration. COALESCE keeps untouched columns as they were.
func (r *alertConfigRepository) Update(ctx context.Context, req alert.UpdateConfigRequest) (alert.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	var thresholdsJSON, channelsJSON []byte
	var err error
	if req.Thresholds != nil {
		if thresholdsJSON, err = json.Marshal(req.Thresholds); err != nil {
			return alert.Configuration{}, fmt.Errorf("failed to marshal thresholds: %w", err)
		}
	}
	if req.Channels != nil {
		if channelsJSON, err = json.Marshal(req.Channels); err != nil {
			return alert.Configuration{}, fmt.Errorf("failed to marshal channels: %w", err)
		}
	}

	query := fmt.Sprintf(`
		UPDATE alert_configurations
		SET enabled = COALESCE($2, enabled),
		    thresholds = COALESCE($3, thresholds),
		    channels = COALESCE($4, channels),
		    max_alerts_per_day = COALESCE($5, max_alerts_per_day),
		    cooldown_hours = COALESCE($6, cooldown_hours),
		    updated_at = $7
		WHERE type = $1
		RETURNING %s
	`, configColumns)

	cfg, err := scanConfig(q.QueryRow(ctx, query,
		string(req.Type),
		req.Enabled,
		thresholdsJSON,
		channelsJSON,
		req.MaxAlertsPerDay,
		req.CooldownHours,
		time.Now(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return alert.Configuration{}, alert.ErrConfigNotFound
		}
		return alert.Configuration{}, fmt.Errorf("failed to update alert configuration: %w", err)
	}

	return cfg, nil
}

func (r *alertConfigRepository) list(ctx context.Context, query string) ([]alert.Configuration, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert configurations: %w", err)
	}
	defer rows.Close()

	var configs []alert.Configuration
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert configuration: %w", err)
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func scanConfig(row rowScanner) (alert.Configuration, error) {
	var cfg alert.Configuration
	var alertType string
	var thresholdsJSON, channelsJSON []byte

	if err := row.Scan(
		&alertType,
		&cfg.Enabled,
		&thresholdsJSON,
		&channelsJSON,
		&cfg.MaxAlertsPerDay,
		&cfg.CooldownHours,
		&cfg.UpdatedAt,
	); err != nil {
		return alert.Configuration{}, err
	}

	cfg.Type = alert.AlertType(alertType)
	if thresholdsJSON != nil {
		if err := json.Unmarshal(thresholdsJSON, &cfg.Thresholds); err != nil {
			return alert.Configuration{}, fmt.Errorf("failed to unmarshal thresholds: %w", err)
		}
	}
	if channelsJSON != nil {
		if err := json.Unmarshal(channelsJSON, &cfg.Channels); err != nil {
			return alert.Configuration{}, fmt.Errorf("failed to unmarshal channels: %w", err)
		}
	}

	return cfg, nil
}

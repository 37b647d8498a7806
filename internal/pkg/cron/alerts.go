package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
)

// AlertJobs registers the periodic alert scan. On-demand scans triggered
// over HTTP coalesce with a running periodic scan inside the engine, so
// overlapping triggers never evaluate the same configuration set twice.
type AlertJobs struct {
	alertService alert.Service
	interval     time.Duration
}

func NewAlertJobs(alertService alert.Service, interval time.Duration) *AlertJobs {
	return &AlertJobs{
		alertService: alertService,
		interval:     interval,
	}
}

func (j *AlertJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("alert_scan", j.interval, j.RunAlertScan)
}

func (j *AlertJobs) RunAlertScan(ctx context.Context) error {
	created, err := j.alertService.Scan(ctx)
	if err != nil {
		return err
	}

	if created > 0 {
		slog.Info("Cron: alert scan created alerts", "created", created)
	}
	return nil
}

package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
	"github.com/openlab-hq/labops-backend-go/internal/domain/metrics"
	"github.com/openlab-hq/labops-backend-go/internal/domain/notification"
)

// activityPeriod is the window length compared by the velocity_drop rule
const activityPeriod = 7 * 24 * time.Hour

// riskHighMarginFactor: a risk score this far past the threshold escalates
// the project_risk severity from medium to high
const riskHighMarginFactor = 1.25

type alertService struct {
	alerts     alert.Repository
	configs    alert.ConfigRepository
	collectors metrics.CollectorRepository
	dispatcher notification.Dispatcher
	limiter    *rateLimiter
	scanGroup  singleflight.Group
	now        func() time.Time
}

// NewAlertService creates the alert rule engine and query service
func NewAlertService(
	alerts alert.Repository,
	configs alert.ConfigRepository,
	collectors metrics.CollectorRepository,
	dispatcher notification.Dispatcher,
) alert.Service {
	return &alertService{
		alerts:     alerts,
		configs:    configs,
		collectors: collectors,
		dispatcher: dispatcher,
		limiter:    newRateLimiter(),
		now:        time.Now,
	}
}

// Scan evaluates every enabled rule once. Concurrent triggers (the periodic
// job and on-demand requests) coalesce into the in-flight scan and share its
// result instead of starting a duplicate.
func (s *alertService) Scan(ctx context.Context) (int, error) {
	v, err, _ := s.scanGroup.Do("scan", func() (interface{}, error) {
		// The first caller's cancellation must not abort a flight other
		// triggers are waiting on; a started scan runs to completion.
		return s.scan(context.WithoutCancel(ctx))
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (s *alertService) scan(ctx context.Context) (int, error) {
	start := s.now()

	configs, err := s.configs.GetEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("load alert configurations: %w", err)
	}

	byType := make(map[alert.AlertType]alert.Configuration, len(configs))
	for _, cfg := range configs {
		byType[cfg.Type] = cfg
	}

	created := 0
	// Subjects already handled within this scan; keeps dedup state
	// consistent across rules in a single run.
	seen := make(map[string]struct{})

	for _, alertType := range alert.AllAlertTypes() {
		cfg, ok := byType[alertType]
		if !ok {
			continue
		}

		candidates, err := s.evaluateRule(ctx, cfg)
		if err != nil {
			// One failing collector degrades its own rule only
			slog.Error("Alert rule evaluation failed", "type", alertType, "error", err)
			continue
		}

		for _, candidate := range candidates {
			if s.persistCandidate(ctx, cfg, candidate, seen) {
				created++
			}
		}
	}

	slog.Info("Alert scan completed",
		"created", created, "configs", len(configs), "duration", time.Since(start))
	return created, nil
}

// persistCandidate applies dedup and rate limiting, then writes the alert
// and hands it to the dispatcher. Returns true when a new alert was created.
func (s *alertService) persistCandidate(ctx context.Context, cfg alert.Configuration, candidate *alert.Alert, seen map[string]struct{}) bool {
	now := s.now()
	dedupKey := string(candidate.Type) + "|" + candidate.SubjectKey()

	if _, dup := seen[dedupKey]; dup {
		return false
	}

	// Suppression window: an unresolved alert with the same key within the
	// cooldown discards the candidate, it is not merged or refreshed.
	existing, err := s.alerts.FindUnresolved(ctx, candidate.Type, candidate.SubjectKey(), now.Add(-cfg.CooldownWindow()))
	if err != nil {
		slog.Error("Alert dedup lookup failed", "type", candidate.Type, "error", err)
		return false
	}
	if existing != nil {
		return false
	}

	if !s.limiter.Allow(candidate.RateKey(), cfg.MaxAlertsPerDay, now) {
		slog.Debug("Alert candidate rate limited", "type", candidate.Type, "subject", candidate.SubjectKey())
		return false
	}

	candidate.CreatedAt = now
	candidate.UpdatedAt = now
	if err := s.alerts.Create(ctx, candidate); err != nil {
		slog.Error("Failed to persist alert", "type", candidate.Type, "error", err)
		return false
	}
	seen[dedupKey] = struct{}{}

	// The alert is the durable record; notification is best effort and is
	// not awaited.
	s.notifyAlert(*candidate, cfg)
	return true
}

func (s *alertService) notifyAlert(a alert.Alert, cfg alert.Configuration) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		report := s.dispatcher.Dispatch(ctx, notification.Event{
			Type:    notification.EventAlertRaised,
			Title:   a.Title,
			Message: a.Message,
			Alert:   &a,
			Data: map[string]interface{}{
				"alert_id": a.ID,
				"type":     string(a.Type),
				"severity": string(a.Severity),
			},
		})
		if report.Failed > 0 {
			slog.Warn("Alert notification partially failed",
				"alert_id", a.ID, "delivered", report.Delivered, "failed", report.Failed)
		}
	}()
}

// evaluateRule produces the candidate alerts for one configuration
func (s *alertService) evaluateRule(ctx context.Context, cfg alert.Configuration) ([]*alert.Alert, error) {
	switch cfg.Type {
	case alert.TypeTaskOverdue:
		return s.evaluateTaskOverdue(ctx)
	case alert.TypeStudentInactive:
		return s.evaluateStudentInactive(ctx, cfg.Thresholds.InactivityDays)
	case alert.TypeProjectRisk:
		return s.evaluateProjectRisk(ctx, cfg.Thresholds.RiskScore)
	case alert.TypeVelocityDrop:
		return s.evaluateVelocityDrop(ctx, cfg.Thresholds.DropRatio)
	case alert.TypeTaskBlocked:
		return s.evaluateTaskBlocked(ctx, cfg.Thresholds.BlockedHours)
	}
	return nil, fmt.Errorf("%w: %s", alert.ErrInvalidAlertType, cfg.Type)
}

// overdueSeverity scales with how far past the due date a task is
func overdueSeverity(daysOverdue int) alert.Severity {
	switch {
	case daysOverdue > 7:
		return alert.SeverityCritical
	case daysOverdue > 2:
		return alert.SeverityHigh
	default:
		return alert.SeverityMedium
	}
}

func (s *alertService) evaluateTaskOverdue(ctx context.Context) ([]*alert.Alert, error) {
	tasks, err := s.collectors.GetOverdueTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect overdue tasks: %w", err)
	}

	now := s.now()
	candidates := make([]*alert.Alert, 0, len(tasks))
	for _, t := range tasks {
		task := t
		days := task.DaysOverdue(now)
		candidates = append(candidates, &alert.Alert{
			Type:             alert.TypeTaskOverdue,
			Severity:         overdueSeverity(days),
			Title:            "Task overdue: " + task.Title,
			Message:          fmt.Sprintf("Task %q is %d day(s) past its due date (%s)", task.Title, days, task.DueDate.Format("2006-01-02")),
			SubjectUserID:    &task.AssigneeID,
			SubjectProjectID: &task.ProjectID,
			SubjectTaskID:    &task.TaskID,
			Data: map[string]interface{}{
				"task_id":      task.TaskID,
				"days_overdue": days,
				"due_date":     task.DueDate.Format(time.RFC3339),
			},
		})
	}
	return candidates, nil
}

func (s *alertService) evaluateStudentInactive(ctx context.Context, inactivityDays int) ([]*alert.Alert, error) {
	if inactivityDays <= 0 {
		inactivityDays = 7
	}

	students, err := s.collectors.GetInactiveStudents(ctx, inactivityDays)
	if err != nil {
		return nil, fmt.Errorf("collect inactive students: %w", err)
	}

	now := s.now()
	candidates := make([]*alert.Alert, 0, len(students))
	for _, st := range students {
		student := st
		days := int(now.Sub(student.LastActivityAt).Hours() / 24)
		candidates = append(candidates, &alert.Alert{
			Type:          alert.TypeStudentInactive,
			Severity:      alert.SeverityHigh,
			Title:         "Student inactive: " + student.Name,
			Message:       fmt.Sprintf("%s has shown no activity for %d day(s)", student.Name, days),
			SubjectUserID: &student.UserID,
			Data: map[string]interface{}{
				"last_activity_at": student.LastActivityAt.Format(time.RFC3339),
				"days_inactive":    days,
			},
		})
	}
	return candidates, nil
}

func (s *alertService) evaluateProjectRisk(ctx context.Context, riskThreshold float64) ([]*alert.Alert, error) {
	if riskThreshold <= 0 {
		riskThreshold = 0.4
	}

	inputs, err := s.collectors.GetProjectRiskInputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect project risk inputs: %w", err)
	}

	var candidates []*alert.Alert
	for _, in := range inputs {
		input := in
		score := input.RiskScore()
		if score < riskThreshold {
			continue
		}

		severity := alert.SeverityMedium
		if score >= riskThreshold*riskHighMarginFactor {
			severity = alert.SeverityHigh
		}

		candidates = append(candidates, &alert.Alert{
			Type:             alert.TypeProjectRisk,
			Severity:         severity,
			Title:            "Project at risk: " + input.Name,
			Message:          fmt.Sprintf("Project %q risk score %.2f exceeds threshold %.2f (%d overdue, %d blocked of %d tasks)", input.Name, score, riskThreshold, input.OverdueTasks, input.BlockedTasks, input.TotalTasks),
			SubjectProjectID: &input.ProjectID,
			Data: map[string]interface{}{
				"risk_score":    score,
				"total_tasks":   input.TotalTasks,
				"overdue_tasks": input.OverdueTasks,
				"blocked_tasks": input.BlockedTasks,
			},
		})
	}
	return candidates, nil
}

func (s *alertService) evaluateVelocityDrop(ctx context.Context, dropRatio float64) ([]*alert.Alert, error) {
	if dropRatio <= 0 {
		dropRatio = 0.5
	}

	windows, err := s.collectors.GetActivityWindows(ctx, activityPeriod)
	if err != nil {
		return nil, fmt.Errorf("collect activity windows: %w", err)
	}

	var candidates []*alert.Alert
	for _, w := range windows {
		window := w
		ratio := window.DropRatio()
		if ratio >= dropRatio {
			continue
		}

		candidates = append(candidates, &alert.Alert{
			Type:          alert.TypeVelocityDrop,
			Severity:      alert.SeverityMedium,
			Title:         "Velocity drop: " + window.Name,
			Message:       fmt.Sprintf("%s logged %d activities this period vs %d in the prior period", window.Name, window.CurrentCount, window.PreviousCount),
			SubjectUserID: &window.UserID,
			Data: map[string]interface{}{
				"current_count":  window.CurrentCount,
				"previous_count": window.PreviousCount,
				"drop_ratio":     ratio,
			},
		})
	}
	return candidates, nil
}

func (s *alertService) evaluateTaskBlocked(ctx context.Context, blockedHours int) ([]*alert.Alert, error) {
	if blockedHours <= 0 {
		blockedHours = 24
	}

	tasks, err := s.collectors.GetBlockedTasks(ctx, blockedHours)
	if err != nil {
		return nil, fmt.Errorf("collect blocked tasks: %w", err)
	}

	now := s.now()
	candidates := make([]*alert.Alert, 0, len(tasks))
	for _, t := range tasks {
		task := t
		hours := int(now.Sub(task.BlockedSince).Hours())
		candidates = append(candidates, &alert.Alert{
			Type:             alert.TypeTaskBlocked,
			Severity:         alert.SeverityHigh,
			Title:            "Task blocked: " + task.Title,
			Message:          fmt.Sprintf("Task %q has been blocked for %d hour(s)", task.Title, hours),
			SubjectUserID:    &task.AssigneeID,
			SubjectProjectID: &task.ProjectID,
			SubjectTaskID:    &task.TaskID,
			Data: map[string]interface{}{
				"blocked_since": task.BlockedSince.Format(time.RFC3339),
				"blocked_hours": hours,
			},
		})
	}
	return candidates, nil
}

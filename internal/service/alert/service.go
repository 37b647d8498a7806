package alert

import (
	"context"

	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
)

func (s *alertService) List(ctx context.Context, filter alert.Filter) (alert.ListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	alerts, total, err := s.alerts.List(ctx, filter)
	if err != nil {
		return alert.ListResponse{}, err
	}

	responses := make([]alert.AlertResponse, len(alerts))
	for i, a := range alerts {
		responses[i] = toAlertResponse(a)
	}

	return alert.ListResponse{
		Alerts: responses,
		Total:  total,
		Page:   filter.Page,
		Limit:  filter.Limit,
	}, nil
}

// Resolve marks an alert handled. Resolving twice succeeds both times; the
// repository keeps the first resolution's reason and timestamp.
func (s *alertService) Resolve(ctx context.Context, id string, reason *string) error {
	return s.alerts.Resolve(ctx, id, reason)
}

func (s *alertService) Stats(ctx context.Context) (alert.Stats, error) {
	return s.alerts.Stats(ctx)
}

func (s *alertService) GetConfigs(ctx context.Context) ([]alert.ConfigResponse, error) {
	configs, err := s.configs.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]alert.ConfigResponse, len(configs))
	for i, cfg := range configs {
		responses[i] = toConfigResponse(cfg)
	}
	return responses, nil
}

func (s *alertService) UpdateConfig(ctx context.Context, req alert.UpdateConfigRequest) (alert.ConfigResponse, error) {
	if !req.Type.IsValid() {
		return alert.ConfigResponse{}, alert.ErrInvalidAlertType
	}

	updated, err := s.configs.Update(ctx, req)
	if err != nil {
		return alert.ConfigResponse{}, err
	}
	return toConfigResponse(updated), nil
}

func toAlertResponse(a *alert.Alert) alert.AlertResponse {
	return alert.AlertResponse{
		ID:               a.ID,
		Type:             a.Type,
		TypeLabel:        a.Type.Label(),
		Severity:         a.Severity,
		Title:            a.Title,
		Message:          a.Message,
		SubjectUserID:    a.SubjectUserID,
		SubjectProjectID: a.SubjectProjectID,
		SubjectTaskID:    a.SubjectTaskID,
		Data:             a.Data,
		IsResolved:       a.IsResolved,
		ResolvedReason:   a.ResolvedReason,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toConfigResponse(cfg alert.Configuration) alert.ConfigResponse {
	return alert.ConfigResponse{
		Type:            cfg.Type,
		TypeLabel:       cfg.Type.Label(),
		Enabled:         cfg.Enabled,
		Thresholds:      cfg.Thresholds,
		Channels:        cfg.Channels,
		MaxAlertsPerDay: cfg.MaxAlertsPerDay,
		CooldownHours:   cfg.CooldownHours,
		UpdatedAt:       cfg.UpdatedAt,
	}
}

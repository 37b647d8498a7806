package alert

import "time"

// Filter narrows alert listings. Nil fields are not applied.
type Filter struct {
	Severity *Severity
	Type     *AlertType
	Resolved *bool
	Page     int
	Limit    int
}

type ResolveRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type UpdateConfigRequest struct {
	Type            AlertType  `json:"-"`
	Enabled         *bool      `json:"enabled,omitempty"`
	Thresholds      *Thresholds `json:"thresholds,omitempty"`
	Channels        *Channels  `json:"channels,omitempty"`
	MaxAlertsPerDay *int       `json:"max_alerts_per_day,omitempty"`
	CooldownHours   *int       `json:"cooldown_hours,omitempty"`
}

type AlertResponse struct {
	ID               string                 `json:"id"`
	Type             AlertType              `json:"type"`
	TypeLabel        string                 `json:"type_label"`
	Severity         Severity               `json:"severity"`
	Title            string                 `json:"title"`
	Message          string                 `json:"message"`
	SubjectUserID    *string                `json:"subject_user_id,omitempty"`
	SubjectProjectID *string                `json:"subject_project_id,omitempty"`
	SubjectTaskID    *string                `json:"subject_task_id,omitempty"`
	Data             map[string]interface{} `json:"data,omitempty"`
	IsResolved       bool                   `json:"is_resolved"`
	ResolvedReason   *string                `json:"resolved_reason,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

type ListResponse struct {
	Alerts []AlertResponse `json:"alerts"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

type GenerateResponse struct {
	Created int `json:"created"`
}

// Stats aggregates alert counts for the dashboard. The breakdowns cover
// currently unresolved alerts only; Total spans the full history.
type Stats struct {
	Total                int               `json:"total"`
	Unresolved           int               `json:"unresolved"`
	UnresolvedBySeverity map[Severity]int  `json:"unresolved_by_severity"`
	UnresolvedByType     map[AlertType]int `json:"unresolved_by_type"`
}

type ConfigResponse struct {
	Type            AlertType  `json:"type"`
	TypeLabel       string     `json:"type_label"`
	Enabled         bool       `json:"enabled"`
	Thresholds      Thresholds `json:"thresholds"`
	Channels        Channels   `json:"channels"`
	MaxAlertsPerDay int        `json:"max_alerts_per_day"`
	CooldownHours   int        `json:"cooldown_hours"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

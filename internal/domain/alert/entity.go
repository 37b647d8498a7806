package alert

import "time"

// AlertType is the closed set of detector rules. Evaluation order within a
// scan follows the order of AllAlertTypes.
type AlertType string

const (
	TypeTaskOverdue     AlertType = "task_overdue"
	TypeStudentInactive AlertType = "student_inactive"
	TypeProjectRisk     AlertType = "project_risk"
	TypeVelocityDrop    AlertType = "velocity_drop"
	TypeTaskBlocked     AlertType = "task_blocked"
)

// AllAlertTypes returns every alert type in fixed evaluation order
func AllAlertTypes() []AlertType {
	return []AlertType{
		TypeTaskOverdue,
		TypeStudentInactive,
		TypeProjectRisk,
		TypeVelocityDrop,
		TypeTaskBlocked,
	}
}

// IsValid reports whether the type is a known detector rule
func (t AlertType) IsValid() bool {
	switch t {
	case TypeTaskOverdue, TypeStudentInactive, TypeProjectRisk, TypeVelocityDrop, TypeTaskBlocked:
		return true
	}
	return false
}

// Label returns the human-readable name for the alert type
func (t AlertType) Label() string {
	switch t {
	case TypeTaskOverdue:
		return "Task Overdue"
	case TypeStudentInactive:
		return "Student Inactive"
	case TypeProjectRisk:
		return "Project At Risk"
	case TypeVelocityDrop:
		return "Velocity Drop"
	case TypeTaskBlocked:
		return "Task Blocked"
	}
	return string(t)
}

// Severity of a detected condition
type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid reports whether the severity is a known level
func (s Severity) IsValid() bool {
	switch s {
	case SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Alert is the durable record of a detected risk condition. It is never
// mutated in place except for resolution and the UpdatedAt stamp.
type Alert struct {
	ID               string
	Type             AlertType
	Severity         Severity
	Title            string
	Message          string
	SubjectUserID    *string
	SubjectProjectID *string
	SubjectTaskID    *string
	Data             map[string]interface{}
	IsResolved       bool
	ResolvedReason   *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SubjectKey returns the deduplication subject component: the most specific
// subject reference the alert carries. Combined with Type it identifies the
// suppression window key.
func (a Alert) SubjectKey() string {
	switch {
	case a.SubjectTaskID != nil:
		return "task:" + *a.SubjectTaskID
	case a.SubjectProjectID != nil:
		return "project:" + *a.SubjectProjectID
	case a.SubjectUserID != nil:
		return "user:" + *a.SubjectUserID
	}
	return ""
}

// RateKey returns the per-day rate-limit bucket key. Keyed on the subject
// user when present, falling back to the dedup subject for project alerts.
func (a Alert) RateKey() string {
	if a.SubjectUserID != nil {
		return string(a.Type) + "|user:" + *a.SubjectUserID
	}
	return string(a.Type) + "|" + a.SubjectKey()
}

// Thresholds holds the per-type tunables evaluated by the rule engine.
// Each rule reads only its own fields.
type Thresholds struct {
	InactivityDays int     `json:"inactivity_days,omitempty"`
	RiskScore      float64 `json:"risk_score,omitempty"`
	DropRatio      float64 `json:"drop_ratio,omitempty"`
	BlockedHours   int     `json:"blocked_hours,omitempty"`
}

// Channels selects the delivery channels for alert notifications
type Channels struct {
	InApp bool `json:"in_app"`
	Email bool `json:"email"`
}

// Configuration is the global, admin-managed record for one alert type
type Configuration struct {
	Type            AlertType
	Enabled         bool
	Thresholds      Thresholds
	Channels        Channels
	MaxAlertsPerDay int
	CooldownHours   int
	UpdatedAt       time.Time
}

// CooldownWindow returns the suppression window duration
func (c Configuration) CooldownWindow() time.Duration {
	return time.Duration(c.CooldownHours) * time.Hour
}

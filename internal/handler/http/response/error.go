package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openlab-hq/labops-backend-go/internal/domain/alert"
	"github.com/openlab-hq/labops-backend-go/internal/domain/notification"
	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
	"github.com/openlab-hq/labops-backend-go/internal/domain/user"
	"github.com/openlab-hq/labops-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// A failed compliance check carries every violation; surface the full
	// list so the client can render them all at once.
	var complianceErr *schedule.ComplianceError
	if errors.As(err, &complianceErr) {
		details := make(map[string]string, len(complianceErr.Result.Violations))
		for i, v := range complianceErr.Result.Violations {
			details[fmt.Sprintf("%s_%d", v.Code, i)] = v.Message
		}
		UnprocessableEntity(w, "Schedule does not meet lab policy", details)
		return
	}

	switch {
	// Schedule domain errors
	case errors.Is(err, schedule.ErrScheduleNotFound):
		NotFound(w, "Work schedule not found")
	case errors.Is(err, schedule.ErrBlockNotFound):
		NotFound(w, "Schedule block not found")
	case errors.Is(err, schedule.ErrScheduleExists):
		Conflict(w, "A schedule already exists for this week")
	case errors.Is(err, schedule.ErrStatusConflict):
		Conflict(w, "Schedule was modified concurrently, reload and retry")
	case errors.Is(err, schedule.ErrScheduleNotDraft):
		Conflict(w, "Only draft schedules can be modified")
	case errors.Is(err, schedule.ErrScheduleNotSubmitted):
		Conflict(w, "Schedule is not awaiting review")
	case errors.Is(err, schedule.ErrScheduleNotRejected):
		Conflict(w, "Only rejected schedules can be reopened")
	case errors.Is(err, schedule.ErrNotScheduleOwner):
		Forbidden(w, "Schedule belongs to another user")
	case errors.Is(err, schedule.ErrInvalidBlockDuration):
		BadRequest(w, "Block end time must be after start time", nil)
	case errors.Is(err, schedule.ErrInvalidDayOfWeek):
		BadRequest(w, "Day of week must be between 1 (Monday) and 7 (Sunday)", nil)
	case errors.Is(err, schedule.ErrInvalidRequestData):
		BadRequest(w, "Invalid request data", nil)

	// Alert domain errors
	case errors.Is(err, alert.ErrAlertNotFound):
		NotFound(w, "Alert not found")
	case errors.Is(err, alert.ErrConfigNotFound):
		NotFound(w, "Alert configuration not found")
	case errors.Is(err, alert.ErrInvalidAlertType):
		BadRequest(w, "Invalid alert type", nil)
	case errors.Is(err, alert.ErrInvalidSeverity):
		BadRequest(w, "Invalid severity", nil)

	// Notification domain errors
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrProfessorAccessRequired):
		Forbidden(w, "Professor access required")
	case errors.Is(err, user.ErrAdminAccessRequired):
		Forbidden(w, "Admin access required")

	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}

package schedule

import (
	"fmt"

	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
)

// DefaultMinimumWeeklyHours is the lab policy floor for a weekly schedule
const DefaultMinimumWeeklyHours = 20.0

// ComplianceValidator checks a weekly block set against lab policy. It is a
// pure function over its inputs; results are never cached because blocks can
// change between calls.
type ComplianceValidator struct {
	minimumWeeklyHours float64
}

func NewComplianceValidator(minimumWeeklyHours float64) *ComplianceValidator {
	if minimumWeeklyHours <= 0 {
		minimumWeeklyHours = DefaultMinimumWeeklyHours
	}
	return &ComplianceValidator{minimumWeeklyHours: minimumWeeklyHours}
}

// Validate computes total hours and reports every violated policy check.
// Checks run in a fixed order and none short-circuits the others.
func (v *ComplianceValidator) Validate(blocks []schedule.ScheduleBlock) schedule.ComplianceResult {
	var totalHours float64
	for _, b := range blocks {
		if h := b.Hours(); h > 0 {
			totalHours += h
		}
	}

	violations := []schedule.Violation{}

	if totalHours < v.minimumWeeklyHours {
		violations = append(violations, schedule.Violation{
			Code:    schedule.ViolationMinimumHours,
			Message: fmt.Sprintf("minimum hours not met (%g < %g)", totalHours, v.minimumWeeklyHours),
		})
	}

	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			if blocks[i].Overlaps(blocks[j]) {
				violations = append(violations, schedule.Violation{
					Code: schedule.ViolationOverlap,
					Message: fmt.Sprintf("blocks overlap on day %d (%s-%s and %s-%s)",
						blocks[i].DayOfWeek,
						schedule.FormatMinute(blocks[i].StartMinute), schedule.FormatMinute(blocks[i].EndMinute),
						schedule.FormatMinute(blocks[j].StartMinute), schedule.FormatMinute(blocks[j].EndMinute)),
				})
			}
		}
	}

	for _, b := range blocks {
		if b.EndMinute <= b.StartMinute {
			violations = append(violations, schedule.Violation{
				Code: schedule.ViolationInvalidDuration,
				Message: fmt.Sprintf("block on day %d has non-positive duration (%s-%s)",
					b.DayOfWeek, schedule.FormatMinute(b.StartMinute), schedule.FormatMinute(b.EndMinute)),
			})
		}
	}

	return schedule.ComplianceResult{
		TotalHours: totalHours,
		IsValid:    len(violations) == 0,
		Violations: violations,
	}
}

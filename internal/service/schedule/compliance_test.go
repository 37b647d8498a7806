package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlab-hq/labops-backend-go/internal/domain/schedule"
)

func block(day, startMin, endMin int) schedule.ScheduleBlock {
	return schedule.ScheduleBlock{
		DayOfWeek:   day,
		StartMinute: startMin,
		EndMinute:   endMin,
	}
}

func TestComplianceValidator_MinimumHoursNotMet(t *testing.T) {
	v := NewComplianceValidator(20)

	// Mon 09:00-12:00 and Tue 09:00-18:00 total 12 hours
	result := v.Validate([]schedule.ScheduleBlock{
		block(1, 9*60, 12*60),
		block(2, 9*60, 18*60),
	})

	assert.False(t, result.IsValid)
	assert.Equal(t, 12.0, result.TotalHours)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, schedule.ViolationMinimumHours, result.Violations[0].Code)
	assert.Equal(t, "minimum hours not met (12 < 20)", result.Violations[0].Message)
}

func TestComplianceValidator_ValidSchedule(t *testing.T) {
	v := NewComplianceValidator(20)

	// Mon-Fri 09:00-13:00 totals 20 hours exactly
	blocks := []schedule.ScheduleBlock{
		block(1, 9*60, 13*60),
		block(2, 9*60, 13*60),
		block(3, 9*60, 13*60),
		block(4, 9*60, 13*60),
		block(5, 9*60, 13*60),
	}

	result := v.Validate(blocks)

	assert.True(t, result.IsValid)
	assert.Equal(t, 20.0, result.TotalHours)
	assert.Empty(t, result.Violations)
}

func TestComplianceValidator_OverlapDetected(t *testing.T) {
	v := NewComplianceValidator(1)

	result := v.Validate([]schedule.ScheduleBlock{
		block(1, 9*60, 12*60),
		block(1, 11*60, 14*60),
	})

	assert.False(t, result.IsValid)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, schedule.ViolationOverlap, result.Violations[0].Code)
}

func TestComplianceValidator_AdjacentBlocksDoNotOverlap(t *testing.T) {
	v := NewComplianceValidator(1)

	// Ends 12:00, next starts 12:00: half-open intervals do not intersect
	result := v.Validate([]schedule.ScheduleBlock{
		block(1, 9*60, 12*60),
		block(1, 12*60, 15*60),
	})

	assert.True(t, result.IsValid)
}

func TestComplianceValidator_SameIntervalDifferentDays(t *testing.T) {
	v := NewComplianceValidator(1)

	result := v.Validate([]schedule.ScheduleBlock{
		block(1, 9*60, 12*60),
		block(2, 9*60, 12*60),
	})

	assert.True(t, result.IsValid)
}

func TestComplianceValidator_AllViolationsReported(t *testing.T) {
	v := NewComplianceValidator(20)

	// Too few hours, an overlap, and a zero-duration block together
	result := v.Validate([]schedule.ScheduleBlock{
		block(1, 9*60, 12*60),
		block(1, 10*60, 13*60),
		block(2, 9*60, 9*60),
	})

	assert.False(t, result.IsValid)

	codes := make([]string, len(result.Violations))
	for i, violation := range result.Violations {
		codes[i] = violation.Code
	}
	assert.Contains(t, codes, schedule.ViolationMinimumHours)
	assert.Contains(t, codes, schedule.ViolationOverlap)
	assert.Contains(t, codes, schedule.ViolationInvalidDuration)
}

func TestComplianceValidator_NegativeDurationExcludedFromTotal(t *testing.T) {
	v := NewComplianceValidator(1)

	result := v.Validate([]schedule.ScheduleBlock{
		block(1, 9*60, 11*60),
		block(2, 12*60, 10*60),
	})

	assert.Equal(t, 2.0, result.TotalHours)
	assert.False(t, result.IsValid)
}

func TestComplianceValidator_EmptySchedule(t *testing.T) {
	v := NewComplianceValidator(20)

	result := v.Validate(nil)

	assert.False(t, result.IsValid)
	assert.Zero(t, result.TotalHours)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, schedule.ViolationMinimumHours, result.Violations[0].Code)
}

func TestComplianceValidator_DefaultMinimum(t *testing.T) {
	v := NewComplianceValidator(0)

	result := v.Validate([]schedule.ScheduleBlock{block(1, 0, 19*60)})

	assert.False(t, result.IsValid)
	assert.Equal(t, "minimum hours not met (19 < 20)", result.Violations[0].Message)
}

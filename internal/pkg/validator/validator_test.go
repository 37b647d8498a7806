package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	min, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, min)

	min, err = ParseClock("00:00")
	require.NoError(t, err)
	assert.Zero(t, min)

	min, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 23*60+59, min)

	_, err = ParseClock("24:00")
	assert.Error(t, err)

	_, err = ParseClock("9am")
	assert.Error(t, err)
}

func TestIsValidDate(t *testing.T) {
	date, ok := IsValidDate("2026-03-02")
	require.True(t, ok)
	assert.Equal(t, time.Monday, date.Weekday())

	_, ok = IsValidDate("02-03-2026")
	assert.False(t, ok)

	_, ok = IsValidDate("2026-02-30")
	assert.False(t, ok)
}

func TestValidationErrorsToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "start_time", Message: "invalid"},
		{Field: "end_time", Message: "missing"},
	}

	m := errs.ToMap()
	assert.Equal(t, "invalid", m["start_time"])
	assert.Equal(t, "missing", m["end_time"])
	assert.Contains(t, errs.Error(), "start_time")
}

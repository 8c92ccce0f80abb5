package attendance

import (
	"fmt"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

// Classify — классификация скана по началу смены и окну допуска:
//
//	submit <= start                    -> present
//	start < submit <= start+tolerance  -> present_in_tolerance
//	submit > start+tolerance           -> late, minutes = перебор сверх допуска
//
// Минуты опоздания округляются вверх до целой минуты.
func Classify(shiftStart, submittedAt time.Time, tolerance time.Duration) (models.AttendanceStatus, int) {
	if !submittedAt.After(shiftStart) {
		return models.StatusPresent, 0
	}
	deadline := shiftStart.Add(tolerance)
	if !submittedAt.After(deadline) {
		return models.StatusPresentInTolerance, 0
	}
	over := submittedAt.Sub(deadline)
	minutes := int((over + time.Minute - 1) / time.Minute)
	return models.StatusLate, minutes
}

// ParseClock — "HH:MM" на конкретную дату в заданной локали.
func ParseClock(clock string, day time.Time, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad clock %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

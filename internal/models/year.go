package models

import "time"

type AttendanceMode string

const (
	ModeShift   AttendanceMode = "shift"
	ModeSubject AttendanceMode = "subject"
)

type AcademicYear struct {
	ID             int64          `db:"id"`
	Name           string         `db:"name"`
	StartDate      time.Time      `db:"start_date"`
	EndDate        time.Time      `db:"end_date"`
	AttendanceMode AttendanceMode `db:"attendance_mode"`
	IsActive       bool           `db:"is_active"`
}

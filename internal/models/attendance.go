package models

import "time"

type AttendanceStatus string

const (
	StatusPresent            AttendanceStatus = "present"
	StatusPresentInTolerance AttendanceStatus = "present_in_tolerance"
	StatusLate               AttendanceStatus = "late"
	StatusAlpha              AttendanceStatus = "alpha"
	StatusLeave              AttendanceStatus = "leave"
	StatusSickLeave          AttendanceStatus = "sick_leave"
	StatusDayOff             AttendanceStatus = "day_off"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusPresentInTolerance, StatusLate,
		StatusAlpha, StatusLeave, StatusSickLeave, StatusDayOff:
		return true
	}
	return false
}

// CheckInResult — статусы, которые может выставить классификатор по скану.
func (s AttendanceStatus) CheckInResult() bool {
	return s == StatusPresent || s == StatusPresentInTolerance || s == StatusLate
}

// ManualOnly — статусы, доступные только через ручную правку учителя.
func (s AttendanceStatus) ManualOnly() bool {
	return s == StatusLeave || s == StatusSickLeave || s == StatusDayOff
}

// SubjectStatus — суженный набор для предметной посещаемости: окно допуска
// к предметам не применяется, поэтому late и present_in_tolerance исключены.
func (s AttendanceStatus) SubjectStatus() bool {
	switch s {
	case StatusPresent, StatusAlpha, StatusLeave, StatusSickLeave, StatusDayOff:
		return true
	}
	return false
}

// CanTransition — таблица переходов статусов.
// Обычный поток: alpha -> (present|present_in_tolerance|late) по скану,
// любой статус -> (leave|sick_leave|day_off) ручной правкой.
// Повтор того же статуса разрешён (идемпотентный повторный скан).
func CanTransition(from, to AttendanceStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	if to.ManualOnly() {
		return true
	}
	if from == StatusAlpha && to.CheckInResult() {
		return true
	}
	return false
}

type AttendanceRecord struct {
	ID             int64            `db:"id"`
	StudentID      int64            `db:"student_id"`
	ClassID        int64            `db:"class_id"`
	AcademicYearID int64            `db:"academic_year_id"`
	ShiftName      string           `db:"shift_name"`
	ShiftStart     string           `db:"shift_start"` // "HH:MM", снимок смены на момент генерации
	ShiftEnd       string           `db:"shift_end"`
	SubmitDate     time.Time        `db:"submit_date"`
	ClockInTime    *string          `db:"clock_in_time"`
	ClockOutTime   *string          `db:"clock_out_time"`
	Status         AttendanceStatus `db:"status"`
	MinutesLate    int              `db:"minutes_late"`
	Note           *string          `db:"note"`
	DayOffReason   *string          `db:"day_off_reason"`
	LeaveReason    *string          `db:"leave_reason"`
}

type SubjectAttendanceRecord struct {
	ID         int64            `db:"id"`
	StudentID  int64            `db:"student_id"`
	SubjectID  int64            `db:"subject_id"`
	SubmitDate time.Time        `db:"submit_date"`
	Status     AttendanceStatus `db:"status"`
	Note       *string          `db:"note"`
}

type EventAttendanceRecord struct {
	ID          int64            `db:"id"`
	StudentID   int64            `db:"student_id"`
	EventID     int64            `db:"event_id"`
	SubmitDate  time.Time        `db:"submit_date"`
	Status      AttendanceStatus `db:"status"`
	MinutesLate int              `db:"minutes_late"`
}

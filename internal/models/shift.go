package models

import "time"

type Shift struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	StartTime string `db:"start_time"` // "HH:MM"
	EndTime   string `db:"end_time"`
}

// ClassShiftSchedule привязывает класс к смене на день недели.
// Уникальна по (class_id, weekday).
type ClassShiftSchedule struct {
	ID       int64        `db:"id"`
	ClassID  int64        `db:"class_id"`
	ShiftID  int64        `db:"shift_id"`
	Weekday  time.Weekday `db:"weekday"`
	PICs     []int64      // teacher user ids, отвечающие за отметку посещаемости
}

type Subject struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	ClassID   int64  `db:"class_id"`
	TeacherID int64  `db:"teacher_id"`
}

type SubjectSchedule struct {
	ID        int64        `db:"id"`
	SubjectID int64        `db:"subject_id"`
	Weekday   time.Weekday `db:"weekday"`
	StartTime string       `db:"start_time"`
	EndTime   string       `db:"end_time"`
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

func CreateShift(ctx context.Context, database *sql.DB, s models.Shift) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO shifts (name, start_time, end_time)
		VALUES ($1, $2, $3)
		RETURNING id
	`, s.Name, s.StartTime, s.EndTime).Scan(&id)
	return id, err
}

func UpdateShift(ctx context.Context, database *sql.DB, s models.Shift) error {
	res, err := database.ExecContext(ctx, `
		UPDATE shifts SET name = $1, start_time = $2, end_time = $3 WHERE id = $4
	`, s.Name, s.StartTime, s.EndTime, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func ListShifts(ctx context.Context, database *sql.DB) ([]models.Shift, error) {
	rows, err := database.QueryContext(ctx, `SELECT id, name, start_time, end_time FROM shifts ORDER BY start_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Shift
	for rows.Next() {
		var s models.Shift
		if err := rows.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateSchedule — расписание смены для класса на день недели плюс набор PIC-ов, одной транзакцией.
func CreateSchedule(ctx context.Context, database *sql.DB, classID, shiftID int64, weekday time.Weekday, picIDs []int64) (int64, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO class_shift_schedules (class_id, shift_id, weekday)
		VALUES ($1, $2, $3)
		RETURNING id
	`, classID, shiftID, int(weekday)).Scan(&id)
	if err != nil {
		return 0, err
	}
	for _, tid := range picIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_pics (schedule_id, teacher_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, tid); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

func SetSchedulePICs(ctx context.Context, database *sql.DB, scheduleID int64, picIDs []int64) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_pics WHERE schedule_id = $1`, scheduleID); err != nil {
		return err
	}
	for _, tid := range picIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_pics (schedule_id, teacher_id) VALUES ($1, $2)
		`, scheduleID, tid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type ScheduleWithShift struct {
	ScheduleID int64
	ClassID    int64
	Shift      models.Shift
	Weekday    time.Weekday
}

// SchedulesForWeekday — все расписания на день недели в рамках года (для генератора).
func SchedulesForWeekday(ctx context.Context, database *sql.DB, yearID int64, weekday time.Weekday) ([]ScheduleWithShift, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT cs.id, cs.class_id, sh.id, sh.name, sh.start_time, sh.end_time, cs.weekday
		FROM class_shift_schedules cs
		JOIN shifts sh ON sh.id = cs.shift_id
		JOIN classes c ON c.id = cs.class_id
		WHERE c.academic_year_id = $1 AND cs.weekday = $2
		ORDER BY cs.id
	`, yearID, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScheduleWithShift
	for rows.Next() {
		var s ScheduleWithShift
		var wd int
		if err := rows.Scan(&s.ScheduleID, &s.ClassID, &s.Shift.ID, &s.Shift.Name,
			&s.Shift.StartTime, &s.Shift.EndTime, &wd); err != nil {
			return nil, err
		}
		s.Weekday = time.Weekday(wd)
		out = append(out, s)
	}
	return out, rows.Err()
}

// IsSchedulePIC — назначен ли учитель ответственным за расписание (class, weekday).
func IsSchedulePIC(ctx context.Context, database *sql.DB, classID int64, weekday time.Weekday, teacherID int64) (bool, error) {
	var ok bool
	err := database.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM class_shift_schedules cs
			JOIN schedule_pics p ON p.schedule_id = cs.id
			WHERE cs.class_id = $1 AND cs.weekday = $2 AND p.teacher_id = $3
		)
	`, classID, int(weekday), teacherID).Scan(&ok)
	return ok, err
}

// TeacherClassIDs — классы, где учитель является PIC хотя бы одного расписания.
func TeacherClassIDs(ctx context.Context, database *sql.DB, teacherID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT DISTINCT cs.class_id
		FROM class_shift_schedules cs
		JOIN schedule_pics p ON p.schedule_id = cs.id
		WHERE p.teacher_id = $1
	`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func GetScheduleForClassDay(ctx context.Context, database *sql.DB, classID int64, weekday time.Weekday) (*ScheduleWithShift, error) {
	row := database.QueryRowContext(ctx, `
		SELECT cs.id, cs.class_id, sh.id, sh.name, sh.start_time, sh.end_time, cs.weekday
		FROM class_shift_schedules cs
		JOIN shifts sh ON sh.id = cs.shift_id
		WHERE cs.class_id = $1 AND cs.weekday = $2
	`, classID, int(weekday))
	var s ScheduleWithShift
	var wd int
	err := row.Scan(&s.ScheduleID, &s.ClassID, &s.Shift.ID, &s.Shift.Name,
		&s.Shift.StartTime, &s.Shift.EndTime, &wd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Weekday = time.Weekday(wd)
	return &s, nil
}

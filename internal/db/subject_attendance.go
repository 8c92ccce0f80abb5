package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

func CreateSubject(ctx context.Context, database *sql.DB, s models.Subject) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO subjects (name, class_id, teacher_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, s.Name, s.ClassID, s.TeacherID).Scan(&id)
	return id, err
}

func ListSubjects(ctx context.Context, database *sql.DB, classID *int64) ([]models.Subject, error) {
	q := `SELECT id, name, class_id, teacher_id FROM subjects`
	args := []any{}
	if classID != nil {
		q += ` WHERE class_id = $1`
		args = append(args, *classID)
	}
	q += ` ORDER BY name`
	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		var s models.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.ClassID, &s.TeacherID); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func CreateSubjectSchedule(ctx context.Context, database *sql.DB, s models.SubjectSchedule) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO subject_schedules (subject_id, weekday, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, s.SubjectID, int(s.Weekday), s.StartTime, s.EndTime).Scan(&id)
	return id, err
}

type SubjectSession struct {
	SubjectID int64
	ClassID   int64
	StartTime string
}

// SubjectSessionsForWeekday — предметные занятия на день недели (для генератора в режиме subject).
func SubjectSessionsForWeekday(ctx context.Context, database *sql.DB, yearID int64, weekday time.Weekday) ([]SubjectSession, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT ss.subject_id, sub.class_id, ss.start_time
		FROM subject_schedules ss
		JOIN subjects sub ON sub.id = ss.subject_id
		JOIN classes c ON c.id = sub.class_id
		WHERE c.academic_year_id = $1 AND ss.weekday = $2
		ORDER BY ss.subject_id
	`, yearID, int(weekday))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubjectSession
	for rows.Next() {
		var s SubjectSession
		if err := rows.Scan(&s.SubjectID, &s.ClassID, &s.StartTime); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// InsertSubjectAlphaBatch — генерация "alpha" по предмету на дату, идемпотентно.
func InsertSubjectAlphaBatch(ctx context.Context, database *sql.DB, subjectID int64, date time.Time, studentIDs []int64) (int, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO subject_attendance_records (student_id, subject_id, submit_date, status)
		VALUES ($1, $2, $3, 'alpha')
		ON CONFLICT (student_id, subject_id, submit_date) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, sid := range studentIDs {
		res, err := stmt.ExecContext(ctx, sid, subjectID, date)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n == 1 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// SetSubjectAttendance — отметка по предмету (суженный набор статусов проверяется хендлером).
func SetSubjectAttendance(ctx context.Context, database *sql.DB, studentID, subjectID int64, date time.Time, status models.AttendanceStatus, note *string) error {
	res, err := database.ExecContext(ctx, `
		UPDATE subject_attendance_records
		SET status = $1, note = COALESCE($2, note)
		WHERE student_id = $3 AND subject_id = $4 AND submit_date = $5
	`, status, note, studentID, subjectID, date)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

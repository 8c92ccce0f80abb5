package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

func CreateEvent(ctx context.Context, database *sql.DB, e models.SchoolEvent) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO school_events (name, start_date, end_date, start_time, tolerance_override)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, e.Name, e.StartDate, e.EndDate, e.StartTime, e.ToleranceOverride).Scan(&id)
	return id, err
}

func AddEventParticipants(ctx context.Context, database *sql.DB, eventID int64, studentIDs []int64) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO event_participants (event_id, student_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, sid := range studentIDs {
		if _, err := stmt.ExecContext(ctx, eventID, sid); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func GetEventByID(ctx context.Context, database *sql.DB, id int64) (*models.SchoolEvent, error) {
	var e models.SchoolEvent
	err := database.QueryRowContext(ctx, `
		SELECT id, name, start_date, end_date, start_time, tolerance_override
		FROM school_events WHERE id = $1
	`, id).Scan(&e.ID, &e.Name, &e.StartDate, &e.EndDate, &e.StartTime, &e.ToleranceOverride)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// EventsForDate — события, чей диапазон дат покрывает дату.
func EventsForDate(ctx context.Context, database *sql.DB, date time.Time) ([]models.SchoolEvent, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, name, start_date, end_date, start_time, tolerance_override
		FROM school_events
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY id
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SchoolEvent
	for rows.Next() {
		var e models.SchoolEvent
		if err := rows.Scan(&e.ID, &e.Name, &e.StartDate, &e.EndDate, &e.StartTime, &e.ToleranceOverride); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ActiveEventParticipants — участники события со статусом active.
func ActiveEventParticipants(ctx context.Context, database *sql.DB, eventID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT p.student_id
		FROM event_participants p
		JOIN students s ON s.id = p.student_id
		WHERE p.event_id = $1 AND s.status = 'active'
		ORDER BY p.student_id
	`, eventID)
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

// InsertEventAlphaBatch — генерация "alpha" по событию на дату, идемпотентно.
func InsertEventAlphaBatch(ctx context.Context, database *sql.DB, eventID int64, date time.Time, studentIDs []int64) (int, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO event_attendance_records (student_id, event_id, submit_date, status)
		VALUES ($1, $2, $3, 'alpha')
		ON CONFLICT (student_id, event_id, submit_date) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, sid := range studentIDs {
		res, err := stmt.ExecContext(ctx, sid, eventID, date)
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

// GetEventAttendance — запись посещаемости участника события на дату.
func GetEventAttendance(ctx context.Context, database *sql.DB, studentID, eventID int64, date time.Time) (*models.EventAttendanceRecord, error) {
	var rec models.EventAttendanceRecord
	err := database.QueryRowContext(ctx, `
		SELECT id, student_id, event_id, submit_date, status, minutes_late
		FROM event_attendance_records
		WHERE student_id = $1 AND event_id = $2 AND submit_date = $3
	`, studentID, eventID, date).Scan(&rec.ID, &rec.StudentID, &rec.EventID, &rec.SubmitDate, &rec.Status, &rec.MinutesLate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ApplyEventCheckIn — аналог ApplyCheckIn для событийной посещаемости.
func ApplyEventCheckIn(ctx context.Context, database *sql.DB, studentID, eventID int64, date time.Time, status models.AttendanceStatus, minutesLate int) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE event_attendance_records
		SET status = $1, minutes_late = $2
		WHERE student_id = $3 AND event_id = $4 AND submit_date = $5 AND status = 'alpha'
	`, status, minutesLate, studentID, eventID, date)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

const attendanceCols = `id, student_id, class_id, academic_year_id, shift_name, shift_start, shift_end,
	submit_date, clock_in_time, clock_out_time, status, minutes_late, note, day_off_reason, leave_reason`

func scanAttendance(row interface{ Scan(...any) error }) (*models.AttendanceRecord, error) {
	var r models.AttendanceRecord
	err := row.Scan(&r.ID, &r.StudentID, &r.ClassID, &r.AcademicYearID, &r.ShiftName,
		&r.ShiftStart, &r.ShiftEnd, &r.SubmitDate, &r.ClockInTime, &r.ClockOutTime,
		&r.Status, &r.MinutesLate, &r.Note, &r.DayOffReason, &r.LeaveReason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertAlphaBatch — пачечная генерация дефолтных записей "alpha" на дату.
// Конфликты по (student_id, submit_date) игнорируются, поэтому повторный
// и конкурентный запуск безопасны; возвращаем число реально вставленных строк.
func InsertAlphaBatch(ctx context.Context, database *sql.DB, classID, yearID int64, shift models.Shift, date time.Time, studentIDs []int64) (int, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attendance_records
			(student_id, class_id, academic_year_id, shift_name, shift_start, shift_end, submit_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'alpha')
		ON CONFLICT (student_id, submit_date) DO NOTHING
	`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	inserted := 0
	for _, sid := range studentIDs {
		res, err := stmt.ExecContext(ctx, sid, classID, yearID, shift.Name, shift.StartTime, shift.EndTime, date)
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

func GetAttendanceByID(ctx context.Context, database *sql.DB, id int64) (*models.AttendanceRecord, error) {
	row := database.QueryRowContext(ctx,
		`SELECT `+attendanceCols+` FROM attendance_records WHERE id = $1`, id)
	return scanAttendance(row)
}

// GetAttendanceForDate — запись ученика на дату; ErrNotFound, если генератор ещё не отработал.
func GetAttendanceForDate(ctx context.Context, database *sql.DB, studentID int64, date time.Time) (*models.AttendanceRecord, error) {
	row := database.QueryRowContext(ctx, `
		SELECT `+attendanceCols+`
		FROM attendance_records
		WHERE student_id = $1 AND submit_date = $2
	`, studentID, date)
	return scanAttendance(row)
}

// ApplyCheckIn — атомарно переводит запись из alpha в результат классификации.
// Возвращает false, если запись уже не в alpha (кто-то отметил раньше).
func ApplyCheckIn(ctx context.Context, database *sql.DB, recordID int64, status models.AttendanceStatus, clockIn string, minutesLate int) (bool, error) {
	res, err := database.ExecContext(ctx, `
		UPDATE attendance_records
		SET status = $1, clock_in_time = $2, minutes_late = $3
		WHERE id = $4 AND status = 'alpha'
	`, status, clockIn, minutesLate, recordID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ApplyClockOut — фиксирует время ухода, статус не трогаем.
func ApplyClockOut(ctx context.Context, database *sql.DB, recordID int64, clockOut string) error {
	res, err := database.ExecContext(ctx, `
		UPDATE attendance_records SET clock_out_time = $1 WHERE id = $2
	`, clockOut, recordID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type ManualEdit struct {
	Status       models.AttendanceStatus
	Note         *string
	DayOffReason *string
	LeaveReason  *string
}

// ApplyManualEdit — ручная правка учителя. minutes_late сознательно не трогаем:
// причина отсутствия не отменяет зафиксированное опоздание.
func ApplyManualEdit(ctx context.Context, database *sql.DB, recordID int64, e ManualEdit) error {
	res, err := database.ExecContext(ctx, `
		UPDATE attendance_records
		SET status = $1,
		    note = COALESCE($2, note),
		    day_off_reason = COALESCE($3, day_off_reason),
		    leave_reason = COALESCE($4, leave_reason)
		WHERE id = $5
	`, e.Status, e.Note, e.DayOffReason, e.LeaveReason, recordID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAttendance — история посещаемости с фильтрами, постранично.
func ListAttendance(ctx context.Context, database *sql.DB, f AttendanceFilter) ([]models.AttendanceRecord, error) {
	q := `SELECT ` + attendanceCols + ` FROM attendance_records WHERE 1=1`
	args := []any{}
	idx := 1
	if f.StudentID != nil {
		q += ` AND student_id = ` + ph(&idx)
		args = append(args, *f.StudentID)
	}
	if f.ClassID != nil {
		q += ` AND class_id = ` + ph(&idx)
		args = append(args, *f.ClassID)
	}
	if f.From != nil {
		q += ` AND submit_date >= ` + ph(&idx)
		args = append(args, *f.From)
	}
	if f.To != nil {
		q += ` AND submit_date <= ` + ph(&idx)
		args = append(args, *f.To)
	}
	if f.Status != "" {
		q += ` AND status = ` + ph(&idx)
		args = append(args, f.Status)
	}
	q += ` ORDER BY submit_date DESC, student_id`
	q += ` LIMIT ` + ph(&idx)
	args = append(args, f.Limit)
	q += ` OFFSET ` + ph(&idx)
	args = append(args, f.Offset)

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AttendanceRecord
	for rows.Next() {
		r, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

type AttendanceFilter struct {
	StudentID *int64
	ClassID   *int64
	From      *time.Time
	To        *time.Time
	Status    models.AttendanceStatus
	Limit     int
	Offset    int
}

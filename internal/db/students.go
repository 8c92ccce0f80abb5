package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/school-admin-api/internal/models"
)

const studentCols = `id, user_id, nis, name, gender, status, parent_id, qr_token`

func scanStudent(row interface{ Scan(...any) error }) (*models.Student, error) {
	var s models.Student
	err := row.Scan(&s.ID, &s.UserID, &s.NIS, &s.Name, &s.Gender, &s.Status, &s.ParentID, &s.QRToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func GetStudentByID(ctx context.Context, database *sql.DB, id int64) (*models.Student, error) {
	row := database.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE id = $1`, id)
	return scanStudent(row)
}

// GetStudentByQRToken — разрешение отсканированного кода в ученика.
func GetStudentByQRToken(ctx context.Context, database *sql.DB, token string) (*models.Student, error) {
	row := database.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE qr_token = $1`, token)
	return scanStudent(row)
}

func GetStudentByUserID(ctx context.Context, database *sql.DB, userID int64) (*models.Student, error) {
	row := database.QueryRowContext(ctx, `SELECT `+studentCols+` FROM students WHERE user_id = $1`, userID)
	return scanStudent(row)
}

func CreateStudent(ctx context.Context, database *sql.DB, s models.Student) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO students (user_id, nis, name, gender, status, parent_id, qr_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, s.UserID, s.NIS, s.Name, s.Gender, s.Status, s.ParentID, s.QRToken).Scan(&id)
	return id, err
}

func UpdateStudent(ctx context.Context, database *sql.DB, s models.Student) error {
	res, err := database.ExecContext(ctx, `
		UPDATE students SET name = $1, gender = $2, status = $3, parent_id = $4
		WHERE id = $5
	`, s.Name, s.Gender, s.Status, s.ParentID, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func ListStudents(ctx context.Context, database *sql.DB, classID *int64, search string, limit, offset int) ([]models.Student, error) {
	q := `SELECT ` + prefixCols("s.", studentCols) + ` FROM students s`
	args := []any{}
	idx := 1
	if classID != nil {
		q += fmt.Sprintf(` JOIN enrollments e ON e.student_id = s.id AND e.class_id = $%d`, idx)
		args = append(args, *classID)
		idx++
	}
	q += ` WHERE 1=1`
	if search != "" {
		q += fmt.Sprintf(` AND (s.name ILIKE $%d OR s.nis ILIKE $%d)`, idx, idx)
		args = append(args, "%"+search+"%")
		idx++
	}
	q += fmt.Sprintf(` ORDER BY s.name LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Enrollment helpers

func EnrollStudent(ctx context.Context, database *sql.DB, e models.Enrollment) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO enrollments (student_id, class_id, academic_year_id, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, academic_year_id)
		DO UPDATE SET class_id = EXCLUDED.class_id, status = EXCLUDED.status
		RETURNING id
	`, e.StudentID, e.ClassID, e.AcademicYearID, e.Status).Scan(&id)
	return id, err
}

// ActiveStudentIDsByClass — ученики класса с активной записью на год.
func ActiveStudentIDsByClass(ctx context.Context, database *sql.DB, classID, yearID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT e.student_id
		FROM enrollments e
		JOIN students s ON s.id = e.student_id
		WHERE e.class_id = $1 AND e.academic_year_id = $2
		  AND e.status = 'active' AND s.status = 'active'
		ORDER BY e.student_id
	`, classID, yearID)
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

// GetActiveEnrollment — текущая запись ученика в активном учебном году.
func GetActiveEnrollment(ctx context.Context, database *sql.DB, studentID int64) (*models.Enrollment, error) {
	row := database.QueryRowContext(ctx, `
		SELECT e.id, e.student_id, e.class_id, e.academic_year_id, e.status
		FROM enrollments e
		JOIN academic_years y ON y.id = e.academic_year_id AND y.is_active
		WHERE e.student_id = $1
	`, studentID)
	var e models.Enrollment
	err := row.Scan(&e.ID, &e.StudentID, &e.ClassID, &e.AcademicYearID, &e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

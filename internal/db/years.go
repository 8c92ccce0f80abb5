package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Spok95/school-admin-api/internal/models"
)

const yearCols = `id, name, start_date, end_date, attendance_mode, is_active`

func scanYear(row interface{ Scan(...any) error }) (*models.AcademicYear, error) {
	var y models.AcademicYear
	err := row.Scan(&y.ID, &y.Name, &y.StartDate, &y.EndDate, &y.AttendanceMode, &y.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &y, nil
}

// GetActiveYear — активный учебный год; mode != "" дополнительно фильтрует по режиму посещаемости.
func GetActiveYear(ctx context.Context, database *sql.DB, mode models.AttendanceMode) (*models.AcademicYear, error) {
	q := `SELECT ` + yearCols + ` FROM academic_years WHERE is_active`
	args := []any{}
	if mode != "" {
		q += ` AND attendance_mode = $1`
		args = append(args, mode)
	}
	q += ` LIMIT 1`
	return scanYear(database.QueryRowContext(ctx, q, args...))
}

func GetYearByID(ctx context.Context, database *sql.DB, id int64) (*models.AcademicYear, error) {
	return scanYear(database.QueryRowContext(ctx,
		`SELECT `+yearCols+` FROM academic_years WHERE id = $1`, id))
}

func CreateYear(ctx context.Context, database *sql.DB, y models.AcademicYear) (int64, error) {
	if y.StartDate.After(y.EndDate) {
		return 0, fmt.Errorf("дата окончания раньше даты начала")
	}
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO academic_years (name, start_date, end_date, attendance_mode, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, y.Name, y.StartDate, y.EndDate, y.AttendanceMode, y.IsActive).Scan(&id)
	return id, err
}

// SetActiveYear — единственный активный год: сбрасываем все, включаем указанный.
func SetActiveYear(ctx context.Context, database *sql.DB, id int64) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_active = FALSE`); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE academic_years SET is_active = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func ListYears(ctx context.Context, database *sql.DB) ([]models.AcademicYear, error) {
	rows, err := database.QueryContext(ctx, `SELECT `+yearCols+` FROM academic_years ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AcademicYear
	for rows.Next() {
		y, err := scanYear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *y)
	}
	return out, rows.Err()
}

// Classes

func CreateClass(ctx context.Context, database *sql.DB, c models.Class) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO classes (name, grade, academic_year_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, c.Name, c.Grade, c.AcademicYearID).Scan(&id)
	return id, err
}

func GetClassByID(ctx context.Context, database *sql.DB, id int64) (*models.Class, error) {
	var c models.Class
	err := database.QueryRowContext(ctx,
		`SELECT id, name, grade, academic_year_id FROM classes WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Grade, &c.AcademicYearID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func ListClasses(ctx context.Context, database *sql.DB, yearID *int64) ([]models.Class, error) {
	q := `SELECT id, name, grade, academic_year_id FROM classes`
	args := []any{}
	if yearID != nil {
		q += ` WHERE academic_year_id = $1`
		args = append(args, *yearID)
	}
	q += ` ORDER BY grade, name`
	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Class
	for rows.Next() {
		var c models.Class
		if err := rows.Scan(&c.ID, &c.Name, &c.Grade, &c.AcademicYearID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

//go:build testutil

package db_test

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

var seq int64

func nextSeq() int64 {
	seq++
	return seq
}

func mustSeedYear(t *testing.T, dbx *sql.DB, mode models.AttendanceMode, active bool) int64 {
	t.Helper()
	var id int64
	err := dbx.QueryRow(`
		INSERT INTO academic_years (name, start_date, end_date, attendance_mode, is_active)
		VALUES ($1, '2026-07-01', '2027-06-30', $2, $3)
		RETURNING id
	`, fmt.Sprintf("год %d", nextSeq()), mode, active).Scan(&id)
	if err != nil {
		t.Fatalf("seed year: %v", err)
	}
	return id
}

func mustSeedClass(t *testing.T, dbx *sql.DB, yearID int64, grade int) int64 {
	t.Helper()
	var id int64
	err := dbx.QueryRow(`
		INSERT INTO classes (name, grade, academic_year_id) VALUES ($1, $2, $3) RETURNING id
	`, fmt.Sprintf("%dА", grade), grade, yearID).Scan(&id)
	if err != nil {
		t.Fatalf("seed class: %v", err)
	}
	return id
}

func mustSeedUser(t *testing.T, dbx *sql.DB, name string, role models.Role) int64 {
	t.Helper()
	var id int64
	err := dbx.QueryRow(`
		INSERT INTO users (username, password_hash, name, role, is_active)
		VALUES ($1, 'x', $2, $3, TRUE)
		RETURNING id
	`, fmt.Sprintf("u%d", nextSeq()), name, role).Scan(&id)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func mustSeedStudent(t *testing.T, dbx *sql.DB, name string, classID, yearID int64, parentID *int64) int64 {
	t.Helper()
	var id int64
	n := nextSeq()
	err := dbx.QueryRow(`
		INSERT INTO students (nis, name, gender, status, parent_id, qr_token)
		VALUES ($1, $2, 'male', 'active', $3, $4)
		RETURNING id
	`, fmt.Sprintf("nis-%d", n), name, parentID, fmt.Sprintf("qr-%d", n)).Scan(&id)
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	if _, err := dbx.Exec(`
		INSERT INTO enrollments (student_id, class_id, academic_year_id, status)
		VALUES ($1, $2, $3, 'active')
	`, id, classID, yearID); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
	return id
}

func mustSeedShift(t *testing.T, dbx *sql.DB, name, start, end string) models.Shift {
	t.Helper()
	var id int64
	err := dbx.QueryRow(`
		INSERT INTO shifts (name, start_time, end_time) VALUES ($1, $2, $3) RETURNING id
	`, name, start, end).Scan(&id)
	if err != nil {
		t.Fatalf("seed shift: %v", err)
	}
	return models.Shift{ID: id, Name: name, StartTime: start, EndTime: end}
}

func dateOnly(tm time.Time) time.Time {
	return time.Date(tm.Year(), tm.Month(), tm.Day(), 0, 0, 0, 0, time.UTC)
}

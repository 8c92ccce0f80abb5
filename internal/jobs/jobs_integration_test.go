//go:build testutil

package jobs_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/jobs"
	"github.com/Spok95/school-admin-api/internal/models"
	"github.com/Spok95/school-admin-api/internal/testutil/testdb"
)

var seq int64

func nextSeq() int64 {
	seq++
	return seq
}

func testDeps(h *testdb.DBHandle) jobs.Deps {
	return jobs.Deps{DB: h.DB, Log: zap.NewNop().Sugar(), Loc: time.UTC}
}

func seedShiftWorld(t *testing.T, dbx *sql.DB, students int) (yearID, classID int64, studentIDs []int64) {
	t.Helper()
	if err := dbx.QueryRow(`
		INSERT INTO academic_years (name, start_date, end_date, attendance_mode, is_active)
		VALUES ('тестовый год', '2026-07-01', '2027-06-30', 'shift', TRUE)
		RETURNING id
	`).Scan(&yearID); err != nil {
		t.Fatal(err)
	}
	if err := dbx.QueryRow(`
		INSERT INTO classes (name, grade, academic_year_id) VALUES ('7А', 7, $1) RETURNING id
	`, yearID).Scan(&classID); err != nil {
		t.Fatal(err)
	}
	var shiftID int64
	if err := dbx.QueryRow(`
		INSERT INTO shifts (name, start_time, end_time) VALUES ('Утро', '07:00', '12:00') RETURNING id
	`).Scan(&shiftID); err != nil {
		t.Fatal(err)
	}
	weekday := int(time.Now().UTC().Weekday())
	if _, err := dbx.Exec(`
		INSERT INTO class_shift_schedules (class_id, shift_id, weekday) VALUES ($1, $2, $3)
	`, classID, shiftID, weekday); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < students; i++ {
		n := nextSeq()
		var sid int64
		if err := dbx.QueryRow(`
			INSERT INTO students (nis, name, gender, status, qr_token)
			VALUES ($1, $2, 'male', 'active', $3)
			RETURNING id
		`, fmt.Sprintf("nis-%d", n), fmt.Sprintf("Ученик %d", n), fmt.Sprintf("qr-%d", n)).Scan(&sid); err != nil {
			t.Fatal(err)
		}
		if _, err := dbx.Exec(`
			INSERT INTO enrollments (student_id, class_id, academic_year_id, status)
			VALUES ($1, $2, $3, 'active')
		`, sid, classID, yearID); err != nil {
			t.Fatal(err)
		}
		studentIDs = append(studentIDs, sid)
	}
	return yearID, classID, studentIDs
}

func TestGenerateShiftAttendance_RunsOncePerDay(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	_, _, studentIDs := seedShiftWorld(t, h.DB, 3)
	d := testDeps(h)

	if err := jobs.GenerateShiftAttendance(ctx, d); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM attendance_records`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != len(studentIDs) {
		t.Fatalf("ожидали %d записей, получили %d", len(studentIDs), count)
	}

	// второй запуск в тот же день съедается захватом job_runs
	if err := jobs.GenerateShiftAttendance(ctx, d); err != nil {
		t.Fatal(err)
	}
	if err := h.DB.QueryRow(`SELECT COUNT(*) FROM attendance_records`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != len(studentIDs) {
		t.Fatalf("повторный запуск добавил записей: %d", count)
	}
}

func TestScanPaymentDeadlines_SkipsUnreachableParents(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	yearID, classID, studentIDs := seedShiftWorld(t, h.DB, 2)

	// родитель с устройством и родитель без каналов доставки
	var withDevice, noDevice int64
	if err := h.DB.QueryRow(`
		INSERT INTO users (username, password_hash, name, role, is_active, device_key)
		VALUES ('p1', 'x', 'Родитель 1', 'parent', TRUE, 'fcm-token-1') RETURNING id
	`).Scan(&withDevice); err != nil {
		t.Fatal(err)
	}
	if err := h.DB.QueryRow(`
		INSERT INTO users (username, password_hash, name, role, is_active)
		VALUES ('p2', 'x', 'Родитель 2', 'parent', TRUE) RETURNING id
	`).Scan(&noDevice); err != nil {
		t.Fatal(err)
	}
	if _, err := h.DB.Exec(`UPDATE students SET parent_id = $1 WHERE id = $2`, withDevice, studentIDs[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := h.DB.Exec(`UPDATE students SET parent_id = $1 WHERE id = $2`, noDevice, studentIDs[1]); err != nil {
		t.Fatal(err)
	}

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	tomorrow = time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)
	cid := classID
	if _, _, err := db.CreatePaymentWithAssignments(ctx, h.DB, models.Payment{
		Title: "СПП сентябрь", Amount: 250000, DueDate: tomorrow, ClassID: &cid,
	}, yearID); err != nil {
		t.Fatal(err)
	}

	if err := jobs.ScanPaymentDeadlines(ctx, testDeps(h)); err != nil {
		t.Fatal(err)
	}

	rows, err := db.PendingNotifications(ctx, h.DB, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("ожидали одно напоминание (родителю с устройством), получили %d", len(rows))
	}
	if rows[0].RecipientID != withDevice {
		t.Fatalf("напоминание ушло не тому получателю: %d", rows[0].RecipientID)
	}

	// повторный скан в тот же день не дублирует
	if err := jobs.ScanPaymentDeadlines(ctx, testDeps(h)); err != nil {
		t.Fatal(err)
	}
	rows, _ = db.PendingNotifications(ctx, h.DB, 10)
	if len(rows) != 1 {
		t.Fatalf("повторный скан добавил строк: %d", len(rows))
	}
}

//go:build testutil

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
	"github.com/Spok95/school-admin-api/internal/testutil/testdb"
)

func TestInsertAlphaBatch_Idempotent(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	yearID := mustSeedYear(t, h.DB, models.ModeShift, true)
	classID := mustSeedClass(t, h.DB, yearID, 7)
	shift := mustSeedShift(t, h.DB, "Утро", "07:00", "12:00")
	st1 := mustSeedStudent(t, h.DB, "Ученик 1", classID, yearID, nil)
	st2 := mustSeedStudent(t, h.DB, "Ученик 2", classID, yearID, nil)

	today := dateOnly(time.Now())
	n, err := db.InsertAlphaBatch(ctx, h.DB, classID, yearID, shift, today, []int64{st1, st2})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("первая генерация: ожидали 2 записи, получили %d", n)
	}

	// повторный запуск ничего не добавляет
	n, err = db.InsertAlphaBatch(ctx, h.DB, classID, yearID, shift, today, []int64{st1, st2})
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("повторная генерация: ожидали 0 новых записей, получили %d", n)
	}

	rec, err := db.GetAttendanceForDate(ctx, h.DB, st1, today)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.StatusAlpha {
		t.Fatalf("ожидали alpha, получили %s", rec.Status)
	}
	if rec.ShiftStart != "07:00" {
		t.Fatalf("снимок смены не сохранился: %q", rec.ShiftStart)
	}
}

func TestApplyCheckIn_OnlyFromAlpha(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	yearID := mustSeedYear(t, h.DB, models.ModeShift, true)
	classID := mustSeedClass(t, h.DB, yearID, 7)
	shift := mustSeedShift(t, h.DB, "Утро", "07:00", "12:00")
	st := mustSeedStudent(t, h.DB, "Ученик", classID, yearID, nil)

	today := dateOnly(time.Now())
	if _, err := db.InsertAlphaBatch(ctx, h.DB, classID, yearID, shift, today, []int64{st}); err != nil {
		t.Fatal(err)
	}
	rec, err := db.GetAttendanceForDate(ctx, h.DB, st, today)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := db.ApplyCheckIn(ctx, h.DB, rec.ID, models.StatusLate, "07:20", 5)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("первый чек-ин должен пройти")
	}

	// запись уже не alpha — повторный чек-ин не перезаписывает
	ok, err = db.ApplyCheckIn(ctx, h.DB, rec.ID, models.StatusPresent, "06:50", 0)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("повторный чек-ин не должен был пройти")
	}

	cur, err := db.GetAttendanceByID(ctx, h.DB, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.Status != models.StatusLate || cur.MinutesLate != 5 {
		t.Fatalf("запись перезаписана: %s/%d", cur.Status, cur.MinutesLate)
	}
}

func TestApplyManualEdit_KeepsMinutesLate(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	yearID := mustSeedYear(t, h.DB, models.ModeShift, true)
	classID := mustSeedClass(t, h.DB, yearID, 7)
	shift := mustSeedShift(t, h.DB, "Утро", "07:00", "12:00")
	st := mustSeedStudent(t, h.DB, "Ученик", classID, yearID, nil)

	today := dateOnly(time.Now())
	if _, err := db.InsertAlphaBatch(ctx, h.DB, classID, yearID, shift, today, []int64{st}); err != nil {
		t.Fatal(err)
	}
	rec, _ := db.GetAttendanceForDate(ctx, h.DB, st, today)
	if _, err := db.ApplyCheckIn(ctx, h.DB, rec.ID, models.StatusLate, "07:30", 15); err != nil {
		t.Fatal(err)
	}

	reason := "семейные обстоятельства"
	if err := db.ApplyManualEdit(ctx, h.DB, rec.ID, db.ManualEdit{
		Status:       models.StatusDayOff,
		DayOffReason: &reason,
	}); err != nil {
		t.Fatal(err)
	}

	cur, _ := db.GetAttendanceByID(ctx, h.DB, rec.ID)
	if cur.Status != models.StatusDayOff {
		t.Fatalf("ожидали day_off, получили %s", cur.Status)
	}
	if cur.MinutesLate != 15 {
		t.Fatalf("ручная правка не должна сбрасывать minutes_late: %d", cur.MinutesLate)
	}
	if cur.DayOffReason == nil || *cur.DayOffReason != reason {
		t.Fatal("причина day_off не сохранилась")
	}
}

func TestClaimJobRun(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	today := dateOnly(time.Now())
	ok, err := db.ClaimJobRun(ctx, h.DB, "test_job", today)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("первый захват должен пройти")
	}
	ok, err = db.ClaimJobRun(ctx, h.DB, "test_job", today)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("повторный захват в тот же день должен вернуть false")
	}
	// другой день — новый захват
	ok, err = db.ClaimJobRun(ctx, h.DB, "test_job", today.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("захват на другую дату должен пройти")
	}
}

//go:build testutil

package db_test

import (
	"context"
	"testing"

	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
	"github.com/Spok95/school-admin-api/internal/testutil/testdb"
)

func TestExecutePromotion_MoveAndRepeat(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	adminID := mustSeedUser(t, h.DB, "Админ", models.Admin)
	yearFrom := mustSeedYear(t, h.DB, models.ModeShift, false)
	yearTo := mustSeedYear(t, h.DB, models.ModeShift, true)
	classFrom := mustSeedClass(t, h.DB, yearFrom, 7)
	classTo := mustSeedClass(t, h.DB, yearTo, 8)
	st1 := mustSeedStudent(t, h.DB, "Ученик 1", classFrom, yearFrom, nil)
	st2 := mustSeedStudent(t, h.DB, "Ученик 2", classFrom, yearFrom, nil)

	toClass := classTo
	pid, err := db.CreatePromotion(ctx, h.DB, db.Promotion{
		FromClassID: classFrom, ToClassID: &toClass, YearFromID: yearFrom, YearToID: yearTo,
	})
	if err != nil {
		t.Fatal(err)
	}

	moved, err := db.ExecutePromotion(ctx, h.DB, pid, adminID)
	if err != nil {
		t.Fatal(err)
	}
	if moved != 2 {
		t.Fatalf("ожидали перевод 2 учеников, получили %d", moved)
	}

	for _, sid := range []int64{st1, st2} {
		var classID int64
		err := h.DB.QueryRow(`
			SELECT class_id FROM enrollments WHERE student_id = $1 AND academic_year_id = $2
		`, sid, yearTo).Scan(&classID)
		if err != nil {
			t.Fatalf("нет записи в новом году для %d: %v", sid, err)
		}
		if classID != classTo {
			t.Fatalf("ученик %d попал в класс %d, ожидали %d", sid, classID, classTo)
		}
	}

	// повторное исполнение запрещено
	if _, err := db.ExecutePromotion(ctx, h.DB, pid, adminID); err != db.ErrPromotionExecuted {
		t.Fatalf("ожидали ErrPromotionExecuted, получили %v", err)
	}
}

func TestExecutePromotion_Graduation(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	adminID := mustSeedUser(t, h.DB, "Админ", models.Admin)
	yearFrom := mustSeedYear(t, h.DB, models.ModeShift, false)
	yearTo := mustSeedYear(t, h.DB, models.ModeShift, true)
	classFrom := mustSeedClass(t, h.DB, yearFrom, 12)
	st := mustSeedStudent(t, h.DB, "Выпускник", classFrom, yearFrom, nil)

	pid, err := db.CreatePromotion(ctx, h.DB, db.Promotion{
		FromClassID: classFrom, ToClassID: nil, YearFromID: yearFrom, YearToID: yearTo,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecutePromotion(ctx, h.DB, pid, adminID); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetStudentByID(ctx, h.DB, st)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StudentGraduated {
		t.Fatalf("ожидали graduated, получили %s", got.Status)
	}

	var outcome string
	if err := h.DB.QueryRow(`
		SELECT outcome FROM promotion_results WHERE promotion_id = $1 AND student_id = $2
	`, pid, st).Scan(&outcome); err != nil {
		t.Fatal(err)
	}
	if outcome != "graduated" {
		t.Fatalf("ожидали outcome graduated, получили %s", outcome)
	}
}

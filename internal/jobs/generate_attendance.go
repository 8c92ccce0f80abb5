package jobs

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
)

// Deps — общие зависимости фоновых джоб.
type Deps struct {
	DB  *sql.DB
	Log *zap.SugaredLogger
	Loc *time.Location
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GenerateShiftAttendance — утренняя генерация дефолтных "alpha" записей:
// по одной на каждого активного ученика каждого класса, у которого есть
// расписание смены на сегодняшний день недели.
func GenerateShiftAttendance(ctx context.Context, d Deps) error {
	now := time.Now().In(d.Loc)
	today := dateOnly(now, d.Loc)

	claimed, err := db.ClaimJobRun(ctx, d.DB, "attendance_generate_shift", today)
	if err != nil {
		return err
	}
	if !claimed {
		d.Log.Infow("генерация уже выполнялась сегодня", "job", "attendance_generate_shift")
		return nil
	}

	year, err := db.GetActiveYear(ctx, d.DB, models.ModeShift)
	if err != nil {
		if err == db.ErrNotFound {
			d.Log.Infow("нет активного года в режиме shift, пропускаем")
			return nil
		}
		return err
	}

	schedules, err := db.SchedulesForWeekday(ctx, d.DB, year.ID, now.Weekday())
	if err != nil {
		return err
	}

	total := 0
	for _, s := range schedules {
		studentIDs, err := db.ActiveStudentIDsByClass(ctx, d.DB, s.ClassID, year.ID)
		if err != nil {
			return err
		}
		if len(studentIDs) == 0 {
			continue
		}
		n, err := db.InsertAlphaBatch(ctx, d.DB, s.ClassID, year.ID, s.Shift, today, studentIDs)
		if err != nil {
			return err
		}
		total += n
	}
	generatedRecords.WithLabelValues("shift").Add(float64(total))
	d.Log.Infow("генерация посещаемости по сменам", "date", today.Format("2006-01-02"), "created", total)
	return nil
}

// GenerateSubjectAttendance — то же для года в предметном режиме:
// запись на каждую пару (ученик, предметное занятие сегодня).
func GenerateSubjectAttendance(ctx context.Context, d Deps) error {
	now := time.Now().In(d.Loc)
	today := dateOnly(now, d.Loc)

	claimed, err := db.ClaimJobRun(ctx, d.DB, "attendance_generate_subject", today)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	year, err := db.GetActiveYear(ctx, d.DB, models.ModeSubject)
	if err != nil {
		if err == db.ErrNotFound {
			return nil
		}
		return err
	}

	sessions, err := db.SubjectSessionsForWeekday(ctx, d.DB, year.ID, now.Weekday())
	if err != nil {
		return err
	}

	total := 0
	for _, sess := range sessions {
		studentIDs, err := db.ActiveStudentIDsByClass(ctx, d.DB, sess.ClassID, year.ID)
		if err != nil {
			return err
		}
		if len(studentIDs) == 0 {
			continue
		}
		n, err := db.InsertSubjectAlphaBatch(ctx, d.DB, sess.SubjectID, today, studentIDs)
		if err != nil {
			return err
		}
		total += n
	}
	generatedRecords.WithLabelValues("subject").Add(float64(total))
	d.Log.Infow("генерация посещаемости по предметам", "date", today.Format("2006-01-02"), "created", total)
	return nil
}

// GenerateEventAttendance — записи по событиям, чей диапазон дат включает сегодня,
// только для активных учеников с явным участием.
func GenerateEventAttendance(ctx context.Context, d Deps) error {
	now := time.Now().In(d.Loc)
	today := dateOnly(now, d.Loc)

	claimed, err := db.ClaimJobRun(ctx, d.DB, "attendance_generate_event", today)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	events, err := db.EventsForDate(ctx, d.DB, today)
	if err != nil {
		return err
	}

	total := 0
	for _, e := range events {
		studentIDs, err := db.ActiveEventParticipants(ctx, d.DB, e.ID)
		if err != nil {
			return err
		}
		if len(studentIDs) == 0 {
			continue
		}
		n, err := db.InsertEventAlphaBatch(ctx, d.DB, e.ID, today, studentIDs)
		if err != nil {
			return err
		}
		total += n
	}
	generatedRecords.WithLabelValues("event").Add(float64(total))
	d.Log.Infow("генерация посещаемости по событиям", "date", today.Format("2006-01-02"), "created", total)
	return nil
}

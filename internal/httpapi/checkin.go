package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Spok95/school-admin-api/internal/attendance"
	"github.com/Spok95/school-admin-api/internal/ctxutil"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/metrics"
	"github.com/Spok95/school-admin-api/internal/models"
)

type checkInRequest struct {
	QRCode     string `json:"qr_code" validate:"required"`
	SubmitHour string `json:"submit_hour" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=in out"`
	EventID    int64  `json:"event_id"` // 0 — обычная сменная посещаемость
}

type checkInResponse struct {
	Status      models.AttendanceStatus `json:"status"`
	MinutesLate int                     `json:"minutes_late"`
}

// handleCheckIn — скан QR-кода: перевод записи дня из alpha в результат
// классификации (type=in) либо фиксация времени ухода (type=out).
func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := ctxutil.WithOp(r.Context(), "checkin")

	var req checkInRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}

	student, err := db.GetStudentByQRToken(ctx, s.db, req.QRCode)
	if err != nil {
		respondErr(w, err)
		return
	}

	now := time.Now().In(s.cfg.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if err := s.authorizeCheckIn(ctx, student, req.EventID); err != nil {
		respondErr(w, err)
		return
	}

	// два одновременных скана одного ученика обрабатываем по очереди
	unlock := s.lock.lock(student.ID)
	defer unlock()

	if req.EventID != 0 {
		s.eventCheckIn(ctx, w, student, req, today)
		return
	}

	rec, err := db.GetAttendanceForDate(ctx, s.db, student.ID, today)
	if err != nil {
		respondErr(w, err)
		return
	}

	if req.Type == "out" {
		if err := db.ApplyClockOut(ctx, s.db, rec.ID, req.SubmitHour); err != nil {
			respondErr(w, err)
			return
		}
		respondOK(w, "уход зафиксирован", checkInResponse{Status: rec.Status, MinutesLate: rec.MinutesLate})
		return
	}

	settings, err := db.LoadSettings(ctx, s.db)
	if err != nil {
		respondErr(w, err)
		return
	}
	status, minutes, err := s.classifyAt(rec.ShiftStart, req.SubmitHour, today, settings.LateTolerance)
	if err != nil {
		respondErr(w, err)
		return
	}

	ok, err := db.ApplyCheckIn(ctx, s.db, rec.ID, status, req.SubmitHour, minutes)
	if err != nil {
		respondErr(w, err)
		return
	}
	if !ok {
		// запись уже не alpha: повтор ровно с тем же результатом считаем успехом,
		// скан в другое время — конфликт
		cur, err := db.GetAttendanceByID(ctx, s.db, rec.ID)
		if err != nil {
			respondErr(w, err)
			return
		}
		if cur.Status == status && cur.MinutesLate == minutes {
			respondOK(w, "уже отмечен", checkInResponse{Status: cur.Status, MinutesLate: cur.MinutesLate})
			return
		}
		respondErr(w, &ValidationError{Fields: map[string]string{"status": "already checked in as " + string(cur.Status)}})
		return
	}

	metrics.CheckIns.WithLabelValues(string(status)).Inc()
	s.log.Infow("отметка по скану", "student_id", student.ID, "status", status, "minutes_late", minutes)
	respondOK(w, "отметка сохранена", checkInResponse{Status: status, MinutesLate: minutes})
}

// eventCheckIn — отметка участника события; допуск берётся из события,
// если там задан override, иначе из общих настроек.
func (s *Server) eventCheckIn(ctx context.Context, w http.ResponseWriter, student *models.Student, req checkInRequest, today time.Time) {
	event, err := db.GetEventByID(ctx, s.db, req.EventID)
	if err != nil {
		respondErr(w, err)
		return
	}
	if today.Before(dateUTC(event.StartDate)) || today.After(dateUTC(event.EndDate)) {
		respondErr(w, &ValidationError{Fields: map[string]string{"event_id": "event is not running today"}})
		return
	}

	settings, err := db.LoadSettings(ctx, s.db)
	if err != nil {
		respondErr(w, err)
		return
	}
	tolerance := settings.LateTolerance
	if event.ToleranceOverride != nil {
		tolerance = *event.ToleranceOverride
	}

	status, minutes, err := s.classifyAt(event.StartTime, req.SubmitHour, today, tolerance)
	if err != nil {
		respondErr(w, err)
		return
	}

	ok, err := db.ApplyEventCheckIn(ctx, s.db, student.ID, event.ID, today, status, minutes)
	if err != nil {
		respondErr(w, err)
		return
	}
	if !ok {
		// либо записи на сегодня нет (404), либо она уже не alpha
		cur, err := db.GetEventAttendance(ctx, s.db, student.ID, event.ID, today)
		if err != nil {
			respondErr(w, err)
			return
		}
		if cur.Status == status && cur.MinutesLate == minutes {
			respondOK(w, "уже отмечен", checkInResponse{Status: cur.Status, MinutesLate: cur.MinutesLate})
			return
		}
		respondErr(w, &ValidationError{Fields: map[string]string{"event_id": "already checked in as " + string(cur.Status)}})
		return
	}

	metrics.CheckIns.WithLabelValues(string(status)).Inc()
	respondOK(w, "отметка по событию сохранена", checkInResponse{Status: status, MinutesLate: minutes})
}

// classifyAt — "HH:MM" начала и "HH:MM" скана на одну дату в локали школы.
func (s *Server) classifyAt(startClock, submitClock string, day time.Time, toleranceMinutes int) (models.AttendanceStatus, int, error) {
	start, err := attendance.ParseClock(startClock, day, s.cfg.Location)
	if err != nil {
		return "", 0, err
	}
	submitted, err := attendance.ParseClock(submitClock, day, s.cfg.Location)
	if err != nil {
		return "", 0, &ValidationError{Fields: map[string]string{"submit_hour": "expected HH:MM"}}
	}
	status, minutes := attendance.Classify(start, submitted, time.Duration(toleranceMinutes)*time.Minute)
	return status, minutes, nil
}

// authorizeCheckIn — кто может сканировать: админ всегда; учитель — если он PIC
// расписания класса на этот день (для события — любой учитель); ученик и
// родитель — только свой код.
func (s *Server) authorizeCheckIn(ctx context.Context, student *models.Student, eventID int64) error {
	role, _ := ctxutil.Role(ctx)
	userID, _ := ctxutil.UserID(ctx)

	switch role {
	case models.Admin:
		return nil
	case models.Teacher:
		if eventID != 0 {
			return nil
		}
		enr, err := db.GetActiveEnrollment(ctx, s.db, student.ID)
		if err != nil {
			return err
		}
		ok, err := db.IsSchedulePIC(ctx, s.db, enr.ClassID, time.Now().In(s.cfg.Location).Weekday(), userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		return nil
	case models.RoleStudent:
		if student.UserID != nil && *student.UserID == userID {
			return nil
		}
		return ErrForbidden
	case models.Parent:
		if student.ParentID != nil && *student.ParentID == userID {
			return nil
		}
		return ErrForbidden
	}
	return ErrForbidden
}

func dateUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

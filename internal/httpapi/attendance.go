package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/school-admin-api/internal/ctxutil"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
)

func parseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &ValidationError{Fields: map[string]string{name: "expected positive integer"}}
	}
	return id, nil
}

func queryInt64(r *http.Request, name string) *int64 {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

func queryDate(r *http.Request, name string) *time.Time {
	if v := r.URL.Query().Get(name); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return &t
		}
	}
	return nil
}

func pagination(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 200 {
		limit = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && n >= 0 {
		offset = n
	}
	return limit, offset
}

// handleAttendanceHistory — история посещаемости для мобильного API.
// Ученик видит себя, родитель — своих детей, учитель/админ — по фильтрам.
func (s *Server) handleAttendanceHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, _ := ctxutil.Role(ctx)
	userID, _ := ctxutil.UserID(ctx)

	f := db.AttendanceFilter{
		From:   queryDate(r, "from"),
		To:     queryDate(r, "to"),
		Status: models.AttendanceStatus(r.URL.Query().Get("status")),
	}
	f.Limit, f.Offset = pagination(r)

	switch role {
	case models.RoleStudent:
		st, err := db.GetStudentByUserID(ctx, s.db, userID)
		if err != nil {
			respondErr(w, err)
			return
		}
		f.StudentID = &st.ID
	case models.Parent:
		sid := queryInt64(r, "student_id")
		if sid == nil {
			respondErr(w, &ValidationError{Fields: map[string]string{"student_id": "required"}})
			return
		}
		st, err := db.GetStudentByID(ctx, s.db, *sid)
		if err != nil {
			respondErr(w, err)
			return
		}
		if st.ParentID == nil || *st.ParentID != userID {
			respondErr(w, ErrForbidden)
			return
		}
		f.StudentID = &st.ID
	default:
		f.StudentID = queryInt64(r, "student_id")
		f.ClassID = queryInt64(r, "class_id")
	}

	records, err := db.ListAttendance(ctx, s.db, f)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", records)
}

// handleTeacherAttendance — журнал класса на дату; только для классов,
// где учитель назначен PIC (админу — любой класс).
func (s *Server) handleTeacherAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, _ := ctxutil.Role(ctx)
	userID, _ := ctxutil.UserID(ctx)

	classID := queryInt64(r, "class_id")
	if classID == nil {
		respondErr(w, &ValidationError{Fields: map[string]string{"class_id": "required"}})
		return
	}
	if role == models.Teacher {
		if err := s.requireTeacherClass(ctx, userID, *classID); err != nil {
			respondErr(w, err)
			return
		}
	}

	f := db.AttendanceFilter{ClassID: classID, From: queryDate(r, "from"), To: queryDate(r, "to")}
	if d := queryDate(r, "date"); d != nil {
		f.From, f.To = d, d
	}
	f.Limit, f.Offset = pagination(r)

	records, err := db.ListAttendance(ctx, s.db, f)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", records)
}

func (s *Server) requireTeacherClass(ctx context.Context, teacherID, classID int64) error {
	ids, err := db.TeacherClassIDs(ctx, s.db, teacherID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == classID {
			return nil
		}
	}
	return ErrForbidden
}

type manualEditRequest struct {
	Status       models.AttendanceStatus `json:"status" validate:"required"`
	Note         *string                 `json:"note"`
	DayOffReason *string                 `json:"day_off_reason"`
	LeaveReason  *string                 `json:"leave_reason"`
	Force        bool                    `json:"force"`
}

// handleManualEdit — ручная правка записи учителем. Переход проверяется по
// таблице статусов; force=true позволяет перезаписать что угодно во что угодно.
func (s *Server) handleManualEdit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, _ := ctxutil.Role(ctx)
	userID, _ := ctxutil.UserID(ctx)

	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req manualEditRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if !req.Status.Valid() {
		respondErr(w, &ValidationError{Fields: map[string]string{"status": "unknown status"}})
		return
	}

	rec, err := db.GetAttendanceByID(ctx, s.db, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	if role == models.Teacher {
		if err := s.requireTeacherClass(ctx, userID, rec.ClassID); err != nil {
			respondErr(w, err)
			return
		}
	}
	if !req.Force && !models.CanTransition(rec.Status, req.Status) {
		respondErr(w, &ValidationError{Fields: map[string]string{
			"status": "transition " + string(rec.Status) + " -> " + string(req.Status) + " not allowed",
		}})
		return
	}

	edit := db.ManualEdit{
		Status:       req.Status,
		Note:         req.Note,
		DayOffReason: req.DayOffReason,
		LeaveReason:  req.LeaveReason,
	}
	if err := db.ApplyManualEdit(ctx, s.db, id, edit); err != nil {
		respondErr(w, err)
		return
	}
	s.log.Infow("ручная правка посещаемости", "record_id", id, "status", req.Status, "by", userID, "force", req.Force)
	respondOK(w, "запись обновлена", nil)
}

type subjectAttendanceRequest struct {
	StudentID int64                   `json:"student_id" validate:"required"`
	SubjectID int64                   `json:"subject_id" validate:"required"`
	Date      string                  `json:"date" validate:"required"`
	Status    models.AttendanceStatus `json:"status" validate:"required"`
	Note      *string                 `json:"note"`
}

// handleSubjectAttendance — отметка по предмету. Окно допуска к предметам
// не применяется, поэтому late и present_in_tolerance здесь не бывают.
func (s *Server) handleSubjectAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req subjectAttendanceRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if !req.Status.SubjectStatus() {
		respondErr(w, &ValidationError{Fields: map[string]string{"status": "not allowed for subject attendance"}})
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		respondErr(w, &ValidationError{Fields: map[string]string{"date": "expected YYYY-MM-DD"}})
		return
	}

	if err := db.SetSubjectAttendance(ctx, s.db, req.StudentID, req.SubjectID, date, req.Status, req.Note); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "отметка по предмету сохранена", nil)
}

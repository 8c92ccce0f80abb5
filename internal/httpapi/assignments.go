package httpapi

import (
	"net/http"
	"time"

	"github.com/Spok95/school-admin-api/internal/ctxutil"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
)

// resolveStudentScope — для ученика и родителя выборки сужаются до "своего" ученика.
func (s *Server) resolveStudentScope(r *http.Request) (*int64, error) {
	ctx := r.Context()
	role, _ := ctxutil.Role(ctx)
	userID, _ := ctxutil.UserID(ctx)

	switch role {
	case models.RoleStudent:
		st, err := db.GetStudentByUserID(ctx, s.db, userID)
		if err != nil {
			return nil, err
		}
		return &st.ID, nil
	case models.Parent:
		sid := queryInt64(r, "student_id")
		if sid == nil {
			return nil, &ValidationError{Fields: map[string]string{"student_id": "required"}}
		}
		st, err := db.GetStudentByID(ctx, s.db, *sid)
		if err != nil {
			return nil, err
		}
		if st.ParentID == nil || *st.ParentID != userID {
			return nil, ErrForbidden
		}
		return &st.ID, nil
	}
	return queryInt64(r, "student_id"), nil
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	studentID, err := s.resolveStudentScope(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	f := db.TaskFilter{
		StudentID: studentID,
		SubjectID: queryInt64(r, "subject_id"),
		Search:    r.URL.Query().Get("search"),
		DueDate:   queryDate(r, "due_date"),
	}
	f.Limit, f.Offset = pagination(r)

	tasks, err := db.ListTasks(r.Context(), s.db, f)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	t, err := db.GetTaskByID(r.Context(), s.db, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", t)
}

func (s *Server) handleListExams(w http.ResponseWriter, r *http.Request) {
	studentID, err := s.resolveStudentScope(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	f := db.ExamFilter{
		StudentID: studentID,
		SubjectID: queryInt64(r, "subject_id"),
		Search:    r.URL.Query().Get("search"),
		Date:      queryDate(r, "date"),
	}
	f.Limit, f.Offset = pagination(r)

	exams, err := db.ListExams(r.Context(), s.db, f)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", exams)
}

func (s *Server) handleGetExam(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	e, err := db.GetExamByID(r.Context(), s.db, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", e)
}

// handleStudentPayments — назначения платежей ученика с их статусами.
func (s *Server) handleStudentPayments(w http.ResponseWriter, r *http.Request) {
	studentID, err := s.resolveStudentScope(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	if studentID == nil {
		respondErr(w, &ValidationError{Fields: map[string]string{"student_id": "required"}})
		return
	}
	payments, err := db.PaymentsByStudent(r.Context(), s.db, *studentID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", payments)
}

func (s *Server) handleAnnouncements(w http.ResponseWriter, r *http.Request) {
	role, _ := ctxutil.Role(r.Context())
	limit, offset := pagination(r)
	list, err := db.ListAnnouncements(r.Context(), s.db, role, limit, offset)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", list)
}

type scoreRequest struct {
	StudentID int64 `json:"student_id" validate:"required"`
	Score     int   `json:"score" validate:"min=0,max=100"`
}

func (s *Server) handleScoreTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req scoreRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if err := db.ScoreTaskAssignment(r.Context(), s.db, id, req.StudentID, req.Score, time.Now()); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "оценка сохранена", nil)
}

func (s *Server) handleScoreExam(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req scoreRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if err := db.ScoreExamAssignment(r.Context(), s.db, id, req.StudentID, req.Score); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "оценка сохранена", nil)
}

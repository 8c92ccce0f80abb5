package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Spok95/school-admin-api/internal/ctxutil"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/export"
	"github.com/Spok95/school-admin-api/internal/models"
	"github.com/Spok95/school-admin-api/internal/qrcard"
)

// authorizeStudentFile — свой QR видит сам ученик, его родитель, учитель и админ.
func (s *Server) authorizeStudentFile(ctx context.Context, student *models.Student) error {
	role, _ := ctxutil.Role(ctx)
	userID, _ := ctxutil.UserID(ctx)

	switch role {
	case models.Admin, models.Teacher:
		return nil
	case models.RoleStudent:
		if student.UserID != nil && *student.UserID == userID {
			return nil
		}
	case models.Parent:
		if student.ParentID != nil && *student.ParentID == userID {
			return nil
		}
	}
	return ErrForbidden
}

func (s *Server) handleStudentQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	student, err := db.GetStudentByID(r.Context(), s.db, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := s.authorizeStudentFile(r.Context(), student); err != nil {
		respondErr(w, err)
		return
	}
	png, err := qrcard.PNG(student.QRToken, 256)
	if err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleStudentCard(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	student, err := db.GetStudentByID(r.Context(), s.db, id)
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := s.authorizeStudentFile(r.Context(), student); err != nil {
		respondErr(w, err)
		return
	}

	className := ""
	if enr, err := db.GetActiveEnrollment(r.Context(), s.db, student.ID); err == nil {
		if c, err := db.GetClassByID(r.Context(), s.db, enr.ClassID); err == nil {
			className = c.Name
		}
	}

	pdf, err := qrcard.CardPDF(*student, className)
	if err != nil {
		respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=card_%s.pdf", student.NIS))
	_, _ = w.Write(pdf)
}

// handleAttendanceExport — XLSX-сводка класса за период.
func (s *Server) handleAttendanceExport(w http.ResponseWriter, r *http.Request) {
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
	class, err := db.GetClassByID(ctx, s.db, *classID)
	if err != nil {
		respondErr(w, err)
		return
	}

	f := db.AttendanceFilter{
		ClassID: classID,
		From:    queryDate(r, "from"),
		To:      queryDate(r, "to"),
		Limit:   10000,
	}
	records, err := db.ListAttendance(ctx, s.db, f)
	if err != nil {
		respondErr(w, err)
		return
	}

	names := map[int64]string{}
	for _, rec := range records {
		if _, ok := names[rec.StudentID]; ok {
			continue
		}
		if st, err := db.GetStudentByID(ctx, s.db, rec.StudentID); err == nil {
			names[rec.StudentID] = st.Name
		}
	}

	sheet := export.AttendanceRecapSheet(class.Name, records, names)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=attendance_%s_%s.xlsx", class.Name, time.Now().Format("2006-01-02")))
	if err := export.WriteWorkbook(w, []export.SheetSpec{sheet}); err != nil {
		s.log.Errorw("экспорт посещаемости", "err", err)
	}
}

package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/school-admin-api/internal/ctxutil"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
)

type createYearRequest struct {
	Name           string `json:"name" validate:"required"`
	StartDate      string `json:"start_date" validate:"required"`
	EndDate        string `json:"end_date" validate:"required"`
	AttendanceMode string `json:"attendance_mode" validate:"required,oneof=shift subject"`
}

func parseDateField(value, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, &ValidationError{Fields: map[string]string{field: "expected YYYY-MM-DD"}}
	}
	return t, nil
}

func (s *Server) handleCreateYear(w http.ResponseWriter, r *http.Request) {
	var req createYearRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	start, err := parseDateField(req.StartDate, "start_date")
	if err != nil {
		respondErr(w, err)
		return
	}
	end, err := parseDateField(req.EndDate, "end_date")
	if err != nil {
		respondErr(w, err)
		return
	}
	if end.Before(start) {
		respondErr(w, &ValidationError{Fields: map[string]string{"end_date": "must not be before start_date"}})
		return
	}
	id, err := db.CreateYear(r.Context(), s.db, models.AcademicYear{
		Name:           req.Name,
		StartDate:      start,
		EndDate:        end,
		AttendanceMode: models.AttendanceMode(req.AttendanceMode),
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "учебный год создан", map[string]any{"id": id})
}

func (s *Server) handleListYears(w http.ResponseWriter, r *http.Request) {
	years, err := db.ListYears(r.Context(), s.db)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", years)
}

func (s *Server) handleActivateYear(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := db.SetActiveYear(r.Context(), s.db, id); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "учебный год активирован", nil)
}

type createClassRequest struct {
	Name   string `json:"name" validate:"required"`
	Grade  int    `json:"grade" validate:"required,min=1,max=12"`
	YearID int64  `json:"year_id" validate:"required"`
}

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req createClassRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	id, err := db.CreateClass(r.Context(), s.db, models.Class{
		Name: req.Name, Grade: req.Grade, AcademicYearID: req.YearID,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "класс создан", map[string]any{"id": id})
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := db.ListClasses(r.Context(), s.db, queryInt64(r, "year_id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", classes)
}

type shiftRequest struct {
	Name      string `json:"name" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

func validClock(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil
}

func (s *Server) handleCreateShift(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		respondErr(w, &ValidationError{Fields: map[string]string{"start_time": "expected HH:MM"}})
		return
	}
	id, err := db.CreateShift(r.Context(), s.db, models.Shift{
		Name: req.Name, StartTime: req.StartTime, EndTime: req.EndTime,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "смена создана", map[string]any{"id": id})
}

func (s *Server) handleUpdateShift(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req shiftRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		respondErr(w, &ValidationError{Fields: map[string]string{"start_time": "expected HH:MM"}})
		return
	}
	if err := db.UpdateShift(r.Context(), s.db, models.Shift{
		ID: id, Name: req.Name, StartTime: req.StartTime, EndTime: req.EndTime,
	}); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "смена обновлена", nil)
}

func (s *Server) handleListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := db.ListShifts(r.Context(), s.db)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", shifts)
}

type createScheduleRequest struct {
	ClassID int64   `json:"class_id" validate:"required"`
	ShiftID int64   `json:"shift_id" validate:"required"`
	Weekday int     `json:"weekday" validate:"min=0,max=6"`
	PICIDs  []int64 `json:"pic_ids"`
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	id, err := db.CreateSchedule(r.Context(), s.db, req.ClassID, req.ShiftID, time.Weekday(req.Weekday), req.PICIDs)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "расписание создано", map[string]any{"id": id})
}

type setPICsRequest struct {
	PICIDs []int64 `json:"pic_ids" validate:"required"`
}

func (s *Server) handleSetSchedulePICs(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req setPICsRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if err := db.SetSchedulePICs(r.Context(), s.db, id, req.PICIDs); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "ответственные обновлены", nil)
}

type createSubjectRequest struct {
	Name      string `json:"name" validate:"required"`
	ClassID   int64  `json:"class_id" validate:"required"`
	TeacherID int64  `json:"teacher_id" validate:"required"`
}

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req createSubjectRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	id, err := db.CreateSubject(r.Context(), s.db, models.Subject{
		Name: req.Name, ClassID: req.ClassID, TeacherID: req.TeacherID,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "предмет создан", map[string]any{"id": id})
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := db.ListSubjects(r.Context(), s.db, queryInt64(r, "class_id"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", subjects)
}

type createSubjectScheduleRequest struct {
	SubjectID int64  `json:"subject_id" validate:"required"`
	Weekday   int    `json:"weekday" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

func (s *Server) handleCreateSubjectSchedule(w http.ResponseWriter, r *http.Request) {
	var req createSubjectScheduleRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		respondErr(w, &ValidationError{Fields: map[string]string{"start_time": "expected HH:MM"}})
		return
	}
	id, err := db.CreateSubjectSchedule(r.Context(), s.db, models.SubjectSchedule{
		SubjectID: req.SubjectID,
		Weekday:   time.Weekday(req.Weekday),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "занятие добавлено в расписание", map[string]any{"id": id})
}

type createEventRequest struct {
	Name              string `json:"name" validate:"required"`
	StartDate         string `json:"start_date" validate:"required"`
	EndDate           string `json:"end_date" validate:"required"`
	StartTime         string `json:"start_time" validate:"required"`
	ToleranceOverride *int   `json:"tolerance_override"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	start, err := parseDateField(req.StartDate, "start_date")
	if err != nil {
		respondErr(w, err)
		return
	}
	end, err := parseDateField(req.EndDate, "end_date")
	if err != nil {
		respondErr(w, err)
		return
	}
	if !validClock(req.StartTime) {
		respondErr(w, &ValidationError{Fields: map[string]string{"start_time": "expected HH:MM"}})
		return
	}
	id, err := db.CreateEvent(r.Context(), s.db, models.SchoolEvent{
		Name:              req.Name,
		StartDate:         start,
		EndDate:           end,
		StartTime:         req.StartTime,
		ToleranceOverride: req.ToleranceOverride,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "событие создано", map[string]any{"id": id})
}

type participantsRequest struct {
	StudentIDs []int64 `json:"student_ids" validate:"required,min=1"`
}

func (s *Server) handleAddEventParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req participantsRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if _, err := db.GetEventByID(r.Context(), s.db, id); err != nil {
		respondErr(w, err)
		return
	}
	if err := db.AddEventParticipants(r.Context(), s.db, id, req.StudentIDs); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "участники добавлены", map[string]any{"count": len(req.StudentIDs)})
}

type createTaskRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	SubjectID   int64  `json:"subject_id" validate:"required"`
	ClassID     int64  `json:"class_id" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
}

// handleCreateTask — создание задания с веером назначений всем активным
// ученикам класса в активном году.
func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	due, err := parseDateField(req.DueDate, "due_date")
	if err != nil {
		respondErr(w, err)
		return
	}
	year, err := db.GetActiveYear(r.Context(), s.db, "")
	if err != nil {
		respondErr(w, err)
		return
	}
	userID, _ := ctxutil.UserID(r.Context())

	id, assigned, err := db.CreateTaskWithAssignments(r.Context(), s.db, models.Task{
		Title:       req.Title,
		Description: req.Description,
		SubjectID:   req.SubjectID,
		ClassID:     req.ClassID,
		DueDate:     due,
		CreatedBy:   userID,
	}, year.ID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "задание создано", map[string]any{"id": id, "assigned": assigned})
}

type createExamRequest struct {
	Name      string `json:"name" validate:"required"`
	SubjectID int64  `json:"subject_id" validate:"required"`
	ClassID   int64  `json:"class_id" validate:"required"`
	ExamDate  string `json:"exam_date" validate:"required"`
}

func (s *Server) handleCreateExam(w http.ResponseWriter, r *http.Request) {
	var req createExamRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	date, err := parseDateField(req.ExamDate, "exam_date")
	if err != nil {
		respondErr(w, err)
		return
	}
	year, err := db.GetActiveYear(r.Context(), s.db, "")
	if err != nil {
		respondErr(w, err)
		return
	}
	id, assigned, err := db.CreateExamWithAssignments(r.Context(), s.db, models.Exam{
		Name: req.Name, SubjectID: req.SubjectID, ClassID: req.ClassID, ExamDate: date,
	}, year.ID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "экзамен создан", map[string]any{"id": id, "assigned": assigned})
}

type createPaymentRequest struct {
	Title   string `json:"title" validate:"required"`
	Amount  int64  `json:"amount" validate:"required,min=1"`
	DueDate string `json:"due_date" validate:"required"`
	ClassID *int64 `json:"class_id"` // null — на всю школу
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	due, err := parseDateField(req.DueDate, "due_date")
	if err != nil {
		respondErr(w, err)
		return
	}
	year, err := db.GetActiveYear(r.Context(), s.db, "")
	if err != nil {
		respondErr(w, err)
		return
	}
	id, assigned, err := db.CreatePaymentWithAssignments(r.Context(), s.db, models.Payment{
		Title: req.Title, Amount: req.Amount, DueDate: due, ClassID: req.ClassID,
	}, year.ID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "платёж создан", map[string]any{"id": id, "assigned": assigned})
}

type recordPaymentRequest struct {
	StudentID int64 `json:"student_id" validate:"required"`
	Amount    int64 `json:"amount" validate:"required,min=1"`
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req recordPaymentRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if err := db.RecordPayment(r.Context(), s.db, id, req.StudentID, req.Amount, time.Now()); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "оплата учтена", nil)
}

type createAnnouncementRequest struct {
	Title       string `json:"title" validate:"required"`
	Body        string `json:"body" validate:"required"`
	Audience    string `json:"audience" validate:"required,oneof=all teachers parents students"`
	PublishDate string `json:"publish_date" validate:"required"`
}

func (s *Server) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req createAnnouncementRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	publish, err := parseDateField(req.PublishDate, "publish_date")
	if err != nil {
		respondErr(w, err)
		return
	}
	userID, _ := ctxutil.UserID(r.Context())
	id, err := db.CreateAnnouncement(r.Context(), s.db, models.Announcement{
		Title:       req.Title,
		Body:        req.Body,
		Audience:    req.Audience,
		PublishDate: publish,
		CreatedBy:   userID,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "объявление опубликовано", map[string]any{"id": id})
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := db.ListSettings(r.Context(), s.db)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", settings)
}

type setSettingRequest struct {
	Key   string `json:"key" validate:"required,oneof=late_tolerance task_reminder_days"`
	Value string `json:"value" validate:"required"`
}

func (s *Server) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	var req setSettingRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if n, err := strconv.Atoi(req.Value); err != nil || n < 0 {
		respondErr(w, &ValidationError{Fields: map[string]string{"value": "expected non-negative integer"}})
		return
	}
	if err := db.SetSetting(r.Context(), s.db, req.Key, req.Value); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "настройка сохранена", nil)
}

type createPromotionRequest struct {
	FromClassID int64  `json:"from_class_id" validate:"required"`
	ToClassID   *int64 `json:"to_class_id"` // null — выпускной класс
	YearFromID  int64  `json:"year_from_id" validate:"required"`
	YearToID    int64  `json:"year_to_id" validate:"required"`
}

func (s *Server) handleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req createPromotionRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	id, err := db.CreatePromotion(r.Context(), s.db, db.Promotion{
		FromClassID: req.FromClassID,
		ToClassID:   req.ToClassID,
		YearFromID:  req.YearFromID,
		YearToID:    req.YearToID,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "перевод подготовлен", map[string]any{"id": id})
}

func (s *Server) handleExecutePromotion(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	userID, _ := ctxutil.UserID(r.Context())
	moved, err := db.ExecutePromotion(r.Context(), s.db, id, userID)
	if err != nil {
		if err == db.ErrPromotionExecuted {
			respondErr(w, &ValidationError{Fields: map[string]string{"id": "promotion already executed"}})
			return
		}
		respondErr(w, err)
		return
	}
	s.log.Infow("перевод класса выполнен", "promotion_id", id, "moved", moved, "by", userID)
	respondOK(w, "перевод выполнен", map[string]any{"moved": moved})
}

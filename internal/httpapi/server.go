package httpapi

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Spok95/school-admin-api/internal/config"
	"github.com/Spok95/school-admin-api/internal/metrics"
	"github.com/Spok95/school-admin-api/internal/models"
)

// Server — HTTP-слой: мобильный API, API учителя и админка.
type Server struct {
	cfg  *config.Config
	db   *sql.DB
	log  *zap.SugaredLogger
	lock *studentLocker
}

func New(cfg *config.Config, database *sql.DB, log *zap.SugaredLogger) *Server {
	return &Server{cfg: cfg, db: database, log: log, lock: newStudentLocker()}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/checkin", s.handleCheckIn)
			r.Post("/device", s.handleRegisterDevice)
			r.Get("/attendance", s.handleAttendanceHistory)
			r.Get("/tasks", s.handleListTasks)
			r.Get("/tasks/{id}", s.handleGetTask)
			r.Get("/exams", s.handleListExams)
			r.Get("/exams/{id}", s.handleGetExam)
			r.Get("/payments", s.handleStudentPayments)
			r.Get("/announcements", s.handleAnnouncements)
			r.Get("/students/{id}/qr.png", s.handleStudentQR)
			r.Get("/students/{id}/card.pdf", s.handleStudentCard)
		})

		r.Route("/teacher", func(r chi.Router) {
			r.Post("/login", s.handleTeacherLogin)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Use(requireRole(models.Teacher, models.Admin))
				r.Post("/logout", s.handleLogout)
				r.Get("/profile", s.handleProfile)
				r.Get("/attendance", s.handleTeacherAttendance)
				r.Put("/attendance/{id}", s.handleManualEdit)
				r.Get("/attendance/export", s.handleAttendanceExport)
				r.Put("/subject-attendance", s.handleSubjectAttendance)
				r.Post("/tasks/{id}/score", s.handleScoreTask)
				r.Post("/exams/{id}/score", s.handleScoreExam)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Use(requireRole(models.Admin))

			r.Post("/users", s.handleCreateUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Get("/users", s.handleListUsers)

			r.Post("/students", s.handleCreateStudent)
			r.Put("/students/{id}", s.handleUpdateStudent)
			r.Get("/students", s.handleListStudents)
			r.Post("/students/{id}/enroll", s.handleEnrollStudent)

			r.Post("/years", s.handleCreateYear)
			r.Get("/years", s.handleListYears)
			r.Post("/years/{id}/activate", s.handleActivateYear)

			r.Post("/classes", s.handleCreateClass)
			r.Get("/classes", s.handleListClasses)

			r.Post("/shifts", s.handleCreateShift)
			r.Put("/shifts/{id}", s.handleUpdateShift)
			r.Get("/shifts", s.handleListShifts)
			r.Post("/schedules", s.handleCreateSchedule)
			r.Put("/schedules/{id}/pics", s.handleSetSchedulePICs)

			r.Post("/subjects", s.handleCreateSubject)
			r.Get("/subjects", s.handleListSubjects)
			r.Post("/subject-schedules", s.handleCreateSubjectSchedule)

			r.Post("/events", s.handleCreateEvent)
			r.Post("/events/{id}/participants", s.handleAddEventParticipants)

			r.Post("/tasks", s.handleCreateTask)
			r.Post("/exams", s.handleCreateExam)
			r.Post("/payments", s.handleCreatePayment)
			r.Post("/payments/{id}/record", s.handleRecordPayment)
			r.Post("/announcements", s.handleCreateAnnouncement)

			r.Get("/settings", s.handleListSettings)
			r.Put("/settings", s.handleSetSetting)

			r.Post("/promotions", s.handleCreatePromotion)
			r.Post("/promotions/{id}/execute", s.handleExecutePromotion)
		})
	})
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := s.db.PingContext(r.Context()); err != nil {
		s.log.Errorw("healthz: база недоступна", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, envelope{Message: "db unreachable"})
		return
	}
	metrics.ObserveDBPing(time.Since(start))
	respondOK(w, "ok", nil)
}

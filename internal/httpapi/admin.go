package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
)

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin teacher parent student"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondErr(w, err)
		return
	}
	id, err := db.CreateUser(r.Context(), s.db, models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         models.Role(req.Role),
		IsActive:     true,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "пользователь создан", map[string]any{"id": id})
}

type updateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=admin teacher parent student"`
	IsActive bool   `json:"is_active"`
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req updateUserRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	u := models.User{ID: id, Name: req.Name, Role: models.Role(req.Role), IsActive: req.IsActive}
	if err := db.UpdateUser(r.Context(), s.db, u); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "пользователь обновлён", nil)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	if !role.Valid() {
		respondErr(w, &ValidationError{Fields: map[string]string{"role": "required, one of admin/teacher/parent/student"}})
		return
	}
	users, err := db.ListUsersByRole(r.Context(), s.db, role)
	if err != nil {
		respondErr(w, err)
		return
	}
	// пароль наружу не отдаём
	out := make([]map[string]any, 0, len(users))
	for _, u := range users {
		out = append(out, map[string]any{
			"id": u.ID, "username": u.Username, "name": u.Name,
			"role": u.Role, "is_active": u.IsActive,
		})
	}
	respondOK(w, "", out)
}

type createStudentRequest struct {
	NIS      string `json:"nis" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Gender   string `json:"gender" validate:"required,oneof=male female"`
	ParentID *int64 `json:"parent_id"`
	UserID   *int64 `json:"user_id"`
}

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	id, err := db.CreateStudent(r.Context(), s.db, models.Student{
		UserID:   req.UserID,
		NIS:      req.NIS,
		Name:     req.Name,
		Gender:   req.Gender,
		Status:   models.StudentActive,
		ParentID: req.ParentID,
		QRToken:  uuid.NewString(),
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "ученик создан", map[string]any{"id": id})
}

type updateStudentRequest struct {
	Name     string `json:"name" validate:"required"`
	Gender   string `json:"gender" validate:"required,oneof=male female"`
	Status   string `json:"status" validate:"required,oneof=active graduated moved dropped"`
	ParentID *int64 `json:"parent_id"`
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req updateStudentRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	st := models.Student{
		ID: id, Name: req.Name, Gender: req.Gender,
		Status: models.StudentStatus(req.Status), ParentID: req.ParentID,
	}
	if err := db.UpdateStudent(r.Context(), s.db, st); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "ученик обновлён", nil)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	students, err := db.ListStudents(r.Context(), s.db,
		queryInt64(r, "class_id"), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", students)
}

type enrollRequest struct {
	ClassID int64 `json:"class_id" validate:"required"`
	YearID  int64 `json:"year_id" validate:"required"`
}

func (s *Server) handleEnrollStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondErr(w, err)
		return
	}
	var req enrollRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	if _, err := db.GetStudentByID(r.Context(), s.db, id); err != nil {
		respondErr(w, err)
		return
	}
	enrollID, err := db.EnrollStudent(r.Context(), s.db, models.Enrollment{
		StudentID:      id,
		ClassID:        req.ClassID,
		AcademicYearID: req.YearID,
		Status:         models.StudentActive,
	})
	if err != nil {
		respondErr(w, err)
		return
	}
	respondCreated(w, "запись в класс сохранена", map[string]any{"id": enrollID})
}

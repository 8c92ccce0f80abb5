package httpapi

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/Spok95/school-admin-api/internal/ctxutil"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	ID    int64       `json:"id"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request, allowed ...models.Role) {
	var req loginRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}

	u, err := db.GetUserByUsername(r.Context(), s.db, req.Username)
	if err != nil || !u.IsActive {
		respondUnauthorized(w, "неверный логин или пароль")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		respondUnauthorized(w, "неверный логин или пароль")
		return
	}
	if len(allowed) > 0 {
		ok := false
		for _, role := range allowed {
			if u.Role == role {
				ok = true
				break
			}
		}
		if !ok {
			respondErr(w, ErrForbidden)
			return
		}
	}

	token, err := s.issueToken(u.ID, u.Role)
	if err != nil {
		s.log.Errorw("login: не удалось выписать токен", "err", err)
		respondErr(w, err)
		return
	}
	respondOK(w, "успешный вход", loginResponse{Token: token, ID: u.ID, Name: u.Name, Role: u.Role})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r)
}

// handleTeacherLogin — тот же вход, но только для учителей и админов.
func (s *Server) handleTeacherLogin(w http.ResponseWriter, r *http.Request) {
	s.login(w, r, models.Teacher, models.Admin)
}

// handleLogout — токен у нас stateless, поэтому на выходе только отвязываем устройство.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	userID, _ := ctxutil.UserID(r.Context())
	if err := db.SetDeviceKey(r.Context(), s.db, userID, nil); err != nil && err != db.ErrNotFound {
		respondErr(w, err)
		return
	}
	respondOK(w, "выход выполнен", nil)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := ctxutil.UserID(r.Context())
	u, err := db.GetUserByID(r.Context(), s.db, userID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "", map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"name":     u.Name,
		"role":     u.Role,
	})
}

type registerDeviceRequest struct {
	DeviceKey string `json:"device_key" validate:"required"`
}

// handleRegisterDevice — push-токен устройства для доставки напоминаний.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := decodeValid(r, &req); err != nil {
		respondErr(w, err)
		return
	}
	userID, _ := ctxutil.UserID(r.Context())
	if err := db.SetDeviceKey(r.Context(), s.db, userID, &req.DeviceKey); err != nil {
		respondErr(w, err)
		return
	}
	respondOK(w, "устройство привязано", nil)
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-admin-api/internal/config"
	"github.com/Spok95/school-admin-api/internal/ctxutil"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
)

func testServer() *Server {
	cfg := &config.Config{
		JWTSecret: "test-secret",
		TokenTTL:  time.Hour,
		Location:  time.UTC,
	}
	return New(cfg, nil, zap.NewNop().Sugar())
}

func TestAuthMiddleware_RoundTrip(t *testing.T) {
	s := testServer()
	token, err := s.issueToken(42, models.Teacher)
	if err != nil {
		t.Fatal(err)
	}

	var gotID int64
	var gotRole models.Role
	h := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = ctxutil.UserID(r.Context())
		gotRole, _ = ctxutil.Role(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", rec.Code)
	}
	if gotID != 42 || gotRole != models.Teacher {
		t.Fatalf("контекст не заполнен: id=%d role=%s", gotID, gotRole)
	}
}

func TestAuthMiddleware_RejectsBadToken(t *testing.T) {
	s := testServer()
	h := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("хендлер не должен вызываться")
	}))

	for _, header := range []string{"", "Bearer garbage", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: ожидали 401, получили %d", header, rec.Code)
		}
	}
}

func TestAuthMiddleware_RejectsExpiredToken(t *testing.T) {
	s := testServer()
	s.cfg.TokenTTL = -time.Minute
	token, err := s.issueToken(1, models.Admin)
	if err != nil {
		t.Fatal(err)
	}

	h := s.authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("просроченный токен не должен пускать")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("ожидали 401, получили %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	s := testServer()
	token, _ := s.issueToken(7, models.Parent)

	called := false
	h := s.authMiddleware(requireRole(models.Admin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if called {
		t.Fatal("родитель не должен попадать в админский хендлер")
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("ожидали 403, получили %d", rec.Code)
	}
}

func TestRespondErr_Taxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", db.ErrNotFound, http.StatusNotFound},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"validation", &ValidationError{Fields: map[string]string{"qr_code": "required"}}, http.StatusUnprocessableEntity},
		{"internal", errAny{}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondErr(rec, tc.err)
			if rec.Code != tc.code {
				t.Fatalf("ожидали %d, получили %d", tc.code, rec.Code)
			}
			var env envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("ответ не JSON: %v", err)
			}
			if env.Success {
				t.Fatal("success должен быть false")
			}
		})
	}
}

func TestSubjectAttendance_RejectsScanStatuses(t *testing.T) {
	s := testServer()
	// late и present_in_tolerance существуют только в сменном потоке со сканом
	for _, status := range []string{"late", "present_in_tolerance", "bogus"} {
		body := strings.NewReader(`{"student_id":1,"subject_id":2,"date":"2026-09-01","status":"` + status + `"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/teacher/subject-attendance", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.handleSubjectAttendance(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("статус %q: ожидали 422, получили %d", status, rec.Code)
		}
	}
}

type errAny struct{}

func (errAny) Error() string { return "boom" }

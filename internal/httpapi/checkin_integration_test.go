//go:build testutil

package httpapi_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/school-admin-api/internal/config"
	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/httpapi"
	"github.com/Spok95/school-admin-api/internal/models"
	"github.com/Spok95/school-admin-api/internal/testutil/testdb"
	"golang.org/x/crypto/bcrypt"
)

type world struct {
	srv      *httptest.Server
	db       *sql.DB
	yearID   int64
	classID  int64
	students []models.Student
	picToken string
	outToken string // учитель без назначения PIC
}

func buildWorld(t *testing.T, h *testdb.DBHandle) *world {
	t.Helper()
	ctx := context.Background()

	cfg := &config.Config{
		JWTSecret: "integration-secret",
		TokenTTL:  time.Hour,
		Location:  time.UTC,
	}
	api := httpapi.New(cfg, h.DB, zap.NewNop().Sugar())
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)

	w := &world{srv: srv, db: h.DB}

	var err error
	if err = h.DB.QueryRow(`
		INSERT INTO academic_years (name, start_date, end_date, attendance_mode, is_active)
		VALUES ('2026/2027', '2026-07-01', '2027-06-30', 'shift', TRUE) RETURNING id
	`).Scan(&w.yearID); err != nil {
		t.Fatal(err)
	}
	if err = h.DB.QueryRow(`
		INSERT INTO classes (name, grade, academic_year_id) VALUES ('7А', 7, $1) RETURNING id
	`, w.yearID).Scan(&w.classID); err != nil {
		t.Fatal(err)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	pic := seedTeacher(t, h.DB, "pic", string(hash))
	other := seedTeacher(t, h.DB, "other", string(hash))

	var shiftID int64
	if err = h.DB.QueryRow(`
		INSERT INTO shifts (name, start_time, end_time) VALUES ('Утро', '07:00', '12:00') RETURNING id
	`).Scan(&shiftID); err != nil {
		t.Fatal(err)
	}
	var scheduleID int64
	if err = h.DB.QueryRow(`
		INSERT INTO class_shift_schedules (class_id, shift_id, weekday) VALUES ($1, $2, $3) RETURNING id
	`, w.classID, shiftID, int(time.Now().UTC().Weekday())).Scan(&scheduleID); err != nil {
		t.Fatal(err)
	}
	if _, err = h.DB.Exec(`INSERT INTO schedule_pics (schedule_id, teacher_id) VALUES ($1, $2)`, scheduleID, pic); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		var st models.Student
		if err = h.DB.QueryRow(`
			INSERT INTO students (nis, name, gender, status, qr_token)
			VALUES ($1, $2, 'male', 'active', $3)
			RETURNING id, nis, qr_token
		`, fmt.Sprintf("nis-%d", i), fmt.Sprintf("Ученик %d", i), fmt.Sprintf("qr-%d", i)).
			Scan(&st.ID, &st.NIS, &st.QRToken); err != nil {
			t.Fatal(err)
		}
		if _, err = h.DB.Exec(`
			INSERT INTO enrollments (student_id, class_id, academic_year_id, status)
			VALUES ($1, $2, $3, 'active')
		`, st.ID, w.classID, w.yearID); err != nil {
			t.Fatal(err)
		}
		w.students = append(w.students, st)
	}

	if err = db.SetSetting(ctx, h.DB, "late_tolerance", "15"); err != nil {
		t.Fatal(err)
	}

	shift := models.Shift{ID: shiftID, Name: "Утро", StartTime: "07:00", EndTime: "12:00"}
	today := time.Now().UTC()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	ids := []int64{w.students[0].ID, w.students[1].ID}
	if _, err = db.InsertAlphaBatch(ctx, h.DB, w.classID, w.yearID, shift, today, ids); err != nil {
		t.Fatal(err)
	}

	w.picToken = login(t, srv, "pic", "secret123")
	w.outToken = login(t, srv, "other", "secret123")
	return w
}

func seedTeacher(t *testing.T, dbx *sql.DB, username, hash string) int64 {
	t.Helper()
	var id int64
	err := dbx.QueryRow(`
		INSERT INTO users (username, password_hash, name, role, is_active)
		VALUES ($1, $2, $1, 'teacher', TRUE) RETURNING id
	`, username, hash).Scan(&id)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func login(t *testing.T, srv *httptest.Server, username, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
	resp, err := http.Post(srv.URL+"/api/teacher/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("логин %s: статус %d", username, resp.StatusCode)
	}
	var env struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	return env.Data.Token
}

func postCheckin(t *testing.T, srv *httptest.Server, token, qr, hour string) *http.Response {
	t.Helper()
	body := fmt.Sprintf(`{"qr_code":%q,"submit_hour":%q,"type":"in"}`, qr, hour)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/checkin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestCheckIn_PICClassifiesLate(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	w := buildWorld(t, h)

	// 07:20 при допуске 15 минут — late, опоздание 5 минут сверх допуска
	resp := postCheckin(t, w.srv, w.picToken, w.students[0].QRToken, "07:20")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", resp.StatusCode)
	}
	var env struct {
		Data struct {
			Status      string `json:"status"`
			MinutesLate int    `json:"minutes_late"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Status != "late" || env.Data.MinutesLate != 5 {
		t.Fatalf("ожидали late/5, получили %s/%d", env.Data.Status, env.Data.MinutesLate)
	}

	// повторный скан с тем же результатом — идемпотентный успех
	resp2 := postCheckin(t, w.srv, w.picToken, w.students[0].QRToken, "07:20")
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("повторный скан: ожидали 200, получили %d", resp2.StatusCode)
	}

	// повторный скан в другое время — другой результат, конфликт
	resp3 := postCheckin(t, w.srv, w.picToken, w.students[0].QRToken, "07:30")
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("скан в другое время: ожидали 422, получили %d", resp3.StatusCode)
	}
}

func TestCheckIn_NonPICForbidden(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	w := buildWorld(t, h)

	resp := postCheckin(t, w.srv, w.outToken, w.students[1].QRToken, "07:05")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("учитель без PIC: ожидали 403, получили %d", resp.StatusCode)
	}

	// запись осталась нетронутой
	var status string
	if err := w.db.QueryRow(`
		SELECT status FROM attendance_records WHERE student_id = $1
	`, w.students[1].ID).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "alpha" {
		t.Fatalf("запись изменилась: %s", status)
	}
}

func postEventCheckin(t *testing.T, srv *httptest.Server, token, qr, hour string, eventID int64) *http.Response {
	t.Helper()
	body := fmt.Sprintf(`{"qr_code":%q,"submit_hour":%q,"type":"in","event_id":%d}`, qr, hour, eventID)
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/checkin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestCheckIn_Event(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	w := buildWorld(t, h)

	today := time.Now().UTC()
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	var eventID int64
	if err := h.DB.QueryRow(`
		INSERT INTO school_events (name, start_date, end_date, start_time)
		VALUES ('Субботник', $1, $1, '10:00') RETURNING id
	`, today).Scan(&eventID); err != nil {
		t.Fatal(err)
	}

	// запись на сегодня ещё не сгенерирована
	resp := postEventCheckin(t, w.srv, w.picToken, w.students[0].QRToken, "10:05", eventID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("без записи: ожидали 404, получили %d", resp.StatusCode)
	}

	if _, err := db.InsertEventAlphaBatch(ctx, h.DB, eventID, today, []int64{w.students[0].ID}); err != nil {
		t.Fatal(err)
	}

	// 10:05 при допуске 15 минут — present_in_tolerance
	resp2 := postEventCheckin(t, w.srv, w.picToken, w.students[0].QRToken, "10:05", eventID)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("ожидали 200, получили %d", resp2.StatusCode)
	}
	var env struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp2.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Status != "present_in_tolerance" {
		t.Fatalf("ожидали present_in_tolerance, получили %s", env.Data.Status)
	}

	// повтор с тем же временем идемпотентен, с другим — конфликт
	resp3 := postEventCheckin(t, w.srv, w.picToken, w.students[0].QRToken, "10:05", eventID)
	defer resp3.Body.Close()
	if resp3.StatusCode != http.StatusOK {
		t.Fatalf("повторный скан: ожидали 200, получили %d", resp3.StatusCode)
	}
	resp4 := postEventCheckin(t, w.srv, w.picToken, w.students[0].QRToken, "10:40", eventID)
	defer resp4.Body.Close()
	if resp4.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("скан в другое время: ожидали 422, получили %d", resp4.StatusCode)
	}
}

func TestCheckIn_UnknownQR(t *testing.T) {
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()
	w := buildWorld(t, h)

	resp := postCheckin(t, w.srv, w.picToken, "no-such-qr", "07:05")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("неизвестный QR: ожидали 404, получили %d", resp.StatusCode)
	}
}

package attendance

import (
	"testing"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

func at(h, m int) time.Time {
	return time.Date(2026, 9, 1, h, m, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	start := at(7, 0)
	tol := 15 * time.Minute

	cases := []struct {
		name    string
		submit  time.Time
		tol     time.Duration
		want    models.AttendanceStatus
		minutes int
	}{
		{"ровно в начало", at(7, 0), tol, models.StatusPresent, 0},
		{"раньше начала", at(6, 45), tol, models.StatusPresent, 0},
		{"внутри допуска", at(7, 10), tol, models.StatusPresentInTolerance, 0},
		{"ровно на границе допуска", at(7, 15), tol, models.StatusPresentInTolerance, 0},
		{"опоздание на 5 минут сверх допуска", at(7, 20), tol, models.StatusLate, 5},
		{"нулевой допуск: минута после начала — уже late", at(7, 1), 0, models.StatusLate, 1},
		{"нулевой допуск: вовремя", at(7, 0), 0, models.StatusPresent, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, minutes := Classify(start, c.submit, c.tol)
			if got != c.want || minutes != c.minutes {
				t.Fatalf("Classify(%v) = %s/%d, ожидали %s/%d", c.submit, got, minutes, c.want, c.minutes)
			}
		})
	}
}

func TestClassify_SubMinuteOverageRoundsUp(t *testing.T) {
	start := at(7, 0)
	submit := start.Add(15*time.Minute + 30*time.Second)
	got, minutes := Classify(start, submit, 15*time.Minute)
	if got != models.StatusLate || minutes != 1 {
		t.Fatalf("получили %s/%d, ожидали late/1", got, minutes)
	}
}

func TestParseClock(t *testing.T) {
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	got, err := ParseClock("07:05", day, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != 7 || got.Minute() != 5 {
		t.Fatalf("получили %v", got)
	}
	if _, err := ParseClock("7:65", day, time.UTC); err == nil {
		t.Fatal("ожидали ошибку разбора")
	}
}

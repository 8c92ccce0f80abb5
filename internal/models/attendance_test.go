package models

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to AttendanceStatus
		want     bool
	}{
		{StatusAlpha, StatusPresent, true},
		{StatusAlpha, StatusPresentInTolerance, true},
		{StatusAlpha, StatusLate, true},
		{StatusAlpha, StatusLeave, true},
		{StatusPresent, StatusDayOff, true},
		{StatusLate, StatusSickLeave, true},
		{StatusPresent, StatusPresent, true}, // повторный скан с тем же результатом
		{StatusPresent, StatusLate, false},   // реклассификация после скана запрещена
		{StatusLate, StatusPresent, false},
		{StatusLeave, StatusPresent, false}, // из ручных статусов в сканируемые пути нет
		{StatusAlpha, "bogus", false},
		{"bogus", StatusPresent, false},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, ожидали %v", c.from, c.to, got, c.want)
		}
	}
}

func TestSubjectStatus(t *testing.T) {
	cases := []struct {
		status AttendanceStatus
		want   bool
	}{
		{StatusPresent, true},
		{StatusAlpha, true},
		{StatusLeave, true},
		{StatusSickLeave, true},
		{StatusDayOff, true},
		{StatusLate, false}, // у предметов нет окна допуска
		{StatusPresentInTolerance, false},
		{"bogus", false},
	}
	for _, c := range cases {
		if got := c.status.SubjectStatus(); got != c.want {
			t.Errorf("SubjectStatus(%s) = %v, ожидали %v", c.status, got, c.want)
		}
	}
}

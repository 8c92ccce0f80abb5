package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-admin-api/internal/models"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

// AttendanceRecapSheet — лист сводки посещаемости класса за период.
func AttendanceRecapSheet(className string, records []models.AttendanceRecord, names map[int64]string) SheetSpec {
	s := SheetSpec{
		Title:  className,
		Header: []string{"Дата", "Ученик", "Смена", "Приход", "Уход", "Статус", "Опоздание, мин", "Примечание"},
	}
	for _, r := range records {
		name := names[r.StudentID]
		if name == "" {
			name = strconv.FormatInt(r.StudentID, 10)
		}
		row := []string{
			r.SubmitDate.Format("02.01.2006"),
			name,
			r.ShiftName,
			strOrDash(r.ClockInTime),
			strOrDash(r.ClockOutTime),
			string(r.Status),
			strconv.Itoa(r.MinutesLate),
			strOrDash(r.Note),
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

func strOrDash(v *string) string {
	if v == nil || *v == "" {
		return "—"
	}
	return *v
}

// WriteWorkbook — книга из листов в поток (HTTP-ответ или файл).
func WriteWorkbook(w io.Writer, sheets []SheetSpec) error {
	f := excelize.NewFile()

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return fmt.Errorf("new sheet: %w", err)
			}
		}
		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		end := colName(len(s.Header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)
		_ = f.AutoFilter(name, "A1:"+end, nil)

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		// эвристическая ширина: по заголовку и первым строкам
		for c := 1; c <= len(s.Header); c++ {
			maxim := len(s.Header[c-1])
			for r := 0; r < minim(50, len(s.Rows)); r++ {
				if l := len(s.Rows[r][c-1]); l > maxim {
					maxim = l
				}
			}
			w := float64(maxim) * 0.9
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return f.Write(w)
}

// helpers
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}

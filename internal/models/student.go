package models

type StudentStatus string

const (
	StudentActive    StudentStatus = "active"
	StudentGraduated StudentStatus = "graduated"
	StudentMoved     StudentStatus = "moved"
	StudentDropped   StudentStatus = "dropped"
)

type Student struct {
	ID       int64         `db:"id"`
	UserID   *int64        `db:"user_id"`
	NIS      string        `db:"nis"`
	Name     string        `db:"name"`
	Gender   string        `db:"gender"`
	Status   StudentStatus `db:"status"`
	ParentID *int64        `db:"parent_id"`
	QRToken  string        `db:"qr_token"`
}

type Enrollment struct {
	ID             int64         `db:"id"`
	StudentID      int64         `db:"student_id"`
	ClassID        int64         `db:"class_id"`
	AcademicYearID int64         `db:"academic_year_id"`
	Status         StudentStatus `db:"status"`
}

type Class struct {
	ID             int64  `db:"id"`
	Name           string `db:"name"`
	Grade          int    `db:"grade"`
	AcademicYearID int64  `db:"academic_year_id"`
}

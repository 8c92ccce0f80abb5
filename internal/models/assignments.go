package models

import "time"

type Task struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	SubjectID   int64     `db:"subject_id"`
	ClassID     int64     `db:"class_id"`
	DueDate     time.Time `db:"due_date"`
	CreatedBy   int64     `db:"created_by"`
}

type TaskAssignment struct {
	ID          int64      `db:"id"`
	TaskID      int64      `db:"task_id"`
	StudentID   int64      `db:"student_id"`
	Score       *int       `db:"score"`
	SubmittedAt *time.Time `db:"submitted_at"`
}

type Exam struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	SubjectID int64     `db:"subject_id"`
	ClassID   int64     `db:"class_id"`
	ExamDate  time.Time `db:"exam_date"`
}

type ExamAssignment struct {
	ID        int64 `db:"id"`
	ExamID    int64 `db:"exam_id"`
	StudentID int64 `db:"student_id"`
	Score     *int  `db:"score"`
}

type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

type Payment struct {
	ID      int64     `db:"id"`
	Title   string    `db:"title"`
	Amount  int64     `db:"amount"` // в минимальных единицах валюты
	DueDate time.Time `db:"due_date"`
	ClassID *int64    `db:"class_id"` // NULL — на всю школу
}

type PaymentAssignment struct {
	ID          int64         `db:"id"`
	PaymentID   int64         `db:"payment_id"`
	StudentID   int64         `db:"student_id"`
	PaidAmount  int64         `db:"paid_amount"`
	PaymentDate *time.Time    `db:"payment_date"`
	Status      PaymentStatus `db:"status"`
}

type Announcement struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Body        string    `db:"body"`
	Audience    string    `db:"audience"` // all|teachers|parents|students
	PublishDate time.Time `db:"publish_date"`
	CreatedBy   int64     `db:"created_by"`
}

package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

func CreateExamWithAssignments(ctx context.Context, database *sql.DB, e models.Exam, yearID int64) (int64, int, error) {
	studentIDs, err := ActiveStudentIDsByClass(ctx, database, e.ClassID, yearID)
	if err != nil {
		return 0, 0, err
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO exams (name, subject_id, class_id, exam_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, e.Name, e.SubjectID, e.ClassID, e.ExamDate).Scan(&id)
	if err != nil {
		return 0, 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO exam_assignments (exam_id, student_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = stmt.Close() }()

	for _, sid := range studentIDs {
		if _, err := stmt.ExecContext(ctx, id, sid); err != nil {
			return 0, 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return id, len(studentIDs), nil
}

type ExamFilter struct {
	StudentID *int64
	SubjectID *int64
	Search    string
	Date      *time.Time
	Limit     int
	Offset    int
}

func ListExams(ctx context.Context, database *sql.DB, f ExamFilter) ([]models.Exam, error) {
	q := `SELECT DISTINCT e.id, e.name, e.subject_id, e.class_id, e.exam_date FROM exams e`
	args := []any{}
	idx := 1
	if f.StudentID != nil {
		q += ` JOIN exam_assignments a ON a.exam_id = e.id AND a.student_id = ` + ph(&idx)
		args = append(args, *f.StudentID)
	}
	q += ` WHERE 1=1`
	if f.SubjectID != nil {
		q += ` AND e.subject_id = ` + ph(&idx)
		args = append(args, *f.SubjectID)
	}
	if f.Search != "" {
		q += ` AND e.name ILIKE ` + ph(&idx)
		args = append(args, "%"+f.Search+"%")
	}
	if f.Date != nil {
		q += ` AND e.exam_date = ` + ph(&idx)
		args = append(args, *f.Date)
	}
	q += ` ORDER BY e.exam_date, e.id LIMIT ` + ph(&idx)
	args = append(args, f.Limit)
	q += ` OFFSET ` + ph(&idx)
	args = append(args, f.Offset)

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Exam
	for rows.Next() {
		var e models.Exam
		if err := rows.Scan(&e.ID, &e.Name, &e.SubjectID, &e.ClassID, &e.ExamDate); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func GetExamByID(ctx context.Context, database *sql.DB, id int64) (*models.Exam, error) {
	var e models.Exam
	err := database.QueryRowContext(ctx, `
		SELECT id, name, subject_id, class_id, exam_date FROM exams WHERE id = $1
	`, id).Scan(&e.ID, &e.Name, &e.SubjectID, &e.ClassID, &e.ExamDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func ScoreExamAssignment(ctx context.Context, database *sql.DB, examID, studentID int64, score int) error {
	res, err := database.ExecContext(ctx, `
		UPDATE exam_assignments SET score = $1 WHERE exam_id = $2 AND student_id = $3
	`, score, examID, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExamScoresByStudent — результаты ученика по экзаменам (для мобильного API).
func ExamScoresByStudent(ctx context.Context, database *sql.DB, studentID int64) ([]models.ExamAssignment, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, exam_id, student_id, score FROM exam_assignments WHERE student_id = $1 ORDER BY id
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ExamAssignment
	for rows.Next() {
		var a models.ExamAssignment
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Score); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

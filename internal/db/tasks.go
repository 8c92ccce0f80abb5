package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

// CreateTaskWithAssignments — задание плюс веер назначений всем активным ученикам
// класса, одной транзакцией: определение без назначений не существует.
func CreateTaskWithAssignments(ctx context.Context, database *sql.DB, t models.Task, yearID int64) (int64, int, error) {
	studentIDs, err := ActiveStudentIDsByClass(ctx, database, t.ClassID, yearID)
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
		INSERT INTO tasks (title, description, subject_id, class_id, due_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, t.Title, t.Description, t.SubjectID, t.ClassID, t.DueDate, t.CreatedBy).Scan(&id)
	if err != nil {
		return 0, 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO task_assignments (task_id, student_id) VALUES ($1, $2)
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

type TaskFilter struct {
	StudentID *int64
	SubjectID *int64
	Search    string
	DueDate   *time.Time
	Limit     int
	Offset    int
}

func ListTasks(ctx context.Context, database *sql.DB, f TaskFilter) ([]models.Task, error) {
	q := `SELECT DISTINCT t.id, t.title, t.description, t.subject_id, t.class_id, t.due_date, t.created_by FROM tasks t`
	args := []any{}
	idx := 1
	if f.StudentID != nil {
		q += ` JOIN task_assignments a ON a.task_id = t.id AND a.student_id = ` + ph(&idx)
		args = append(args, *f.StudentID)
	}
	q += ` WHERE 1=1`
	if f.SubjectID != nil {
		q += ` AND t.subject_id = ` + ph(&idx)
		args = append(args, *f.SubjectID)
	}
	if f.Search != "" {
		p := ph(&idx)
		q += ` AND (t.title ILIKE ` + p + ` OR t.description ILIKE ` + p + `)`
		args = append(args, "%"+f.Search+"%")
	}
	if f.DueDate != nil {
		q += ` AND t.due_date = ` + ph(&idx)
		args = append(args, *f.DueDate)
	}
	q += ` ORDER BY t.due_date, t.id LIMIT ` + ph(&idx)
	args = append(args, f.Limit)
	q += ` OFFSET ` + ph(&idx)
	args = append(args, f.Offset)

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.SubjectID, &t.ClassID, &t.DueDate, &t.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func GetTaskByID(ctx context.Context, database *sql.DB, id int64) (*models.Task, error) {
	var t models.Task
	err := database.QueryRowContext(ctx, `
		SELECT id, title, description, subject_id, class_id, due_date, created_by
		FROM tasks WHERE id = $1
	`, id).Scan(&t.ID, &t.Title, &t.Description, &t.SubjectID, &t.ClassID, &t.DueDate, &t.CreatedBy)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func ScoreTaskAssignment(ctx context.Context, database *sql.DB, taskID, studentID int64, score int, submittedAt time.Time) error {
	res, err := database.ExecContext(ctx, `
		UPDATE task_assignments SET score = $1, submitted_at = $2
		WHERE task_id = $3 AND student_id = $4
	`, score, submittedAt, taskID, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type DueTask struct {
	Task     models.Task
	ParentID int64
	Student  string
}

// TasksDueOn — назначения заданий с дедлайном на дату, вместе с родителем ученика.
// Ученики без привязанного родителя не попадают в выборку.
func TasksDueOn(ctx context.Context, database *sql.DB, date time.Time) ([]DueTask, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT t.id, t.title, t.description, t.subject_id, t.class_id, t.due_date, t.created_by,
		       s.parent_id, s.name
		FROM tasks t
		JOIN task_assignments a ON a.task_id = t.id
		JOIN students s ON s.id = a.student_id
		WHERE t.due_date = $1 AND a.submitted_at IS NULL AND s.parent_id IS NOT NULL
		ORDER BY t.id, s.id
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DueTask
	for rows.Next() {
		var d DueTask
		if err := rows.Scan(&d.Task.ID, &d.Task.Title, &d.Task.Description, &d.Task.SubjectID,
			&d.Task.ClassID, &d.Task.DueDate, &d.Task.CreatedBy, &d.ParentID, &d.Student); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

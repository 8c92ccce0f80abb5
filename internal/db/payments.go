package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/school-admin-api/internal/models"
)

// CreatePaymentWithAssignments — платёж плюс назначения: классу или всей школе (class_id IS NULL).
func CreatePaymentWithAssignments(ctx context.Context, database *sql.DB, p models.Payment, yearID int64) (int64, int, error) {
	var studentIDs []int64
	var err error
	if p.ClassID != nil {
		studentIDs, err = ActiveStudentIDsByClass(ctx, database, *p.ClassID, yearID)
	} else {
		studentIDs, err = allActiveStudentIDs(ctx, database, yearID)
	}
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
		INSERT INTO payments (title, amount, due_date, class_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.Title, p.Amount, p.DueDate, p.ClassID).Scan(&id)
	if err != nil {
		return 0, 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO payment_assignments (payment_id, student_id) VALUES ($1, $2)
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

func allActiveStudentIDs(ctx context.Context, database *sql.DB, yearID int64) ([]int64, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT e.student_id
		FROM enrollments e
		JOIN students s ON s.id = e.student_id
		WHERE e.academic_year_id = $1 AND e.status = 'active' AND s.status = 'active'
		ORDER BY e.student_id
	`, yearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// RecordPayment — частичная или полная оплата; статус выводится из суммы.
func RecordPayment(ctx context.Context, database *sql.DB, paymentID, studentID, paidAmount int64, at time.Time) error {
	res, err := database.ExecContext(ctx, `
		UPDATE payment_assignments a
		SET paid_amount = a.paid_amount + $1,
		    payment_date = $2,
		    status = CASE
		        WHEN a.paid_amount + $1 >= p.amount THEN 'paid'
		        ELSE 'partial'
		    END
		FROM payments p
		WHERE p.id = a.payment_id AND a.payment_id = $3 AND a.student_id = $4
	`, paidAmount, at, paymentID, studentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type StudentPayment struct {
	Payment    models.Payment
	Assignment models.PaymentAssignment
}

func PaymentsByStudent(ctx context.Context, database *sql.DB, studentID int64) ([]StudentPayment, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT p.id, p.title, p.amount, p.due_date, p.class_id,
		       a.id, a.payment_id, a.student_id, a.paid_amount, a.payment_date, a.status
		FROM payment_assignments a
		JOIN payments p ON p.id = a.payment_id
		WHERE a.student_id = $1
		ORDER BY p.due_date
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StudentPayment
	for rows.Next() {
		var sp StudentPayment
		if err := rows.Scan(&sp.Payment.ID, &sp.Payment.Title, &sp.Payment.Amount, &sp.Payment.DueDate,
			&sp.Payment.ClassID, &sp.Assignment.ID, &sp.Assignment.PaymentID, &sp.Assignment.StudentID,
			&sp.Assignment.PaidAmount, &sp.Assignment.PaymentDate, &sp.Assignment.Status); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

type DuePayment struct {
	Payment  models.Payment
	ParentID int64
	Student  string
}

// PaymentsDueOn — неоплаченные назначения с дедлайном на дату, вместе с родителем.
func PaymentsDueOn(ctx context.Context, database *sql.DB, date time.Time) ([]DuePayment, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT p.id, p.title, p.amount, p.due_date, p.class_id, s.parent_id, s.name
		FROM payments p
		JOIN payment_assignments a ON a.payment_id = p.id
		JOIN students s ON s.id = a.student_id
		WHERE p.due_date = $1 AND a.status <> 'paid' AND s.parent_id IS NOT NULL
		ORDER BY p.id, s.id
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DuePayment
	for rows.Next() {
		var d DuePayment
		if err := rows.Scan(&d.Payment.ID, &d.Payment.Title, &d.Payment.Amount, &d.Payment.DueDate,
			&d.Payment.ClassID, &d.ParentID, &d.Student); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

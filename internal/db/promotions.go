package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Promotion struct {
	ID          int64
	FromClassID int64
	ToClassID   *int64 // NULL — выпуск без целевого класса
	YearFromID  int64
	YearToID    int64
	Status      string // draft|executed
	ExecutedAt  *time.Time
	ExecutedBy  *int64
}

func CreatePromotion(ctx context.Context, database *sql.DB, p Promotion) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO promotions (from_class_id, to_class_id, year_from_id, year_to_id, status)
		VALUES ($1, $2, $3, $4, 'draft')
		RETURNING id
	`, p.FromClassID, p.ToClassID, p.YearFromID, p.YearToID).Scan(&id)
	return id, err
}

func GetPromotion(ctx context.Context, database *sql.DB, id int64) (*Promotion, error) {
	var p Promotion
	err := database.QueryRowContext(ctx, `
		SELECT id, from_class_id, to_class_id, year_from_id, year_to_id, status, executed_at, executed_by
		FROM promotions WHERE id = $1
	`, id).Scan(&p.ID, &p.FromClassID, &p.ToClassID, &p.YearFromID, &p.YearToID, &p.Status, &p.ExecutedAt, &p.ExecutedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var ErrPromotionExecuted = errors.New("promotion already executed")

// ExecutePromotion — пакетный перевод: все активные записи исходного класса
// либо получают запись в целевом классе нового года, либо выпускаются
// (to_class_id IS NULL). Одна транзакция: частичных переводов не бывает.
// Возвращает число переведённых учеников.
func ExecutePromotion(ctx context.Context, database *sql.DB, promotionID, executedBy int64) (int, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var p Promotion
	err = tx.QueryRowContext(ctx, `
		SELECT id, from_class_id, to_class_id, year_from_id, year_to_id, status
		FROM promotions WHERE id = $1
		FOR UPDATE
	`, promotionID).Scan(&p.ID, &p.FromClassID, &p.ToClassID, &p.YearFromID, &p.YearToID, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if p.Status != "draft" {
		return 0, ErrPromotionExecuted
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT e.student_id
		FROM enrollments e
		JOIN students s ON s.id = e.student_id
		WHERE e.class_id = $1 AND e.academic_year_id = $2
		  AND e.status = 'active' AND s.status = 'active'
	`, p.FromClassID, p.YearFromID)
	if err != nil {
		return 0, err
	}
	var studentIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		studentIDs = append(studentIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	moved := 0
	for _, sid := range studentIDs {
		outcome, enrollStatus := "promoted", "moved"
		if p.ToClassID != nil {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO enrollments (student_id, class_id, academic_year_id, status)
				VALUES ($1, $2, $3, 'active')
				ON CONFLICT (student_id, academic_year_id)
				DO UPDATE SET class_id = EXCLUDED.class_id, status = 'active'
			`, sid, *p.ToClassID, p.YearToID); err != nil {
				return 0, err
			}
		} else {
			outcome, enrollStatus = "graduated", "graduated"
			if _, err := tx.ExecContext(ctx, `
				UPDATE students SET status = 'graduated' WHERE id = $1
			`, sid); err != nil {
				return 0, err
			}
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE enrollments SET status = $1
			WHERE student_id = $2 AND academic_year_id = $3
		`, enrollStatus, sid, p.YearFromID); err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO promotion_results (promotion_id, student_id, outcome)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING
		`, promotionID, sid, outcome); err != nil {
			return 0, err
		}
		moved++
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE promotions SET status = 'executed', executed_at = now(), executed_by = $1
		WHERE id = $2
	`, executedBy, promotionID); err != nil {
		return 0, err
	}
	return moved, tx.Commit()
}

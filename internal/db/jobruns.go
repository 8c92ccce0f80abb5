package db

import (
	"context"
	"database/sql"
	"time"
)

// ClaimJobRun — долговечный ключ идемпотентности ежедневных джоб.
// Первая вставка (job_name, target_date) выигрывает; повторный или
// конкурентный запуск в тот же день получает false и молча выходит.
func ClaimJobRun(ctx context.Context, database *sql.DB, jobName string, targetDate time.Time) (bool, error) {
	res, err := database.ExecContext(ctx, `
		INSERT INTO job_runs (job_name, target_date) VALUES ($1, $2)
		ON CONFLICT (job_name, target_date) DO NOTHING
	`, jobName, targetDate)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

package db

import (
	"context"
	"database/sql"
	"strconv"
)

// Settings — типизированный снимок таблицы settings.
// Читается один раз на запрос/запуск джобы и передаётся параметром,
// чтобы не плодить точечные чтения по ходу обработки.
type Settings struct {
	LateTolerance    int // минуты; ключ отсутствует — 0
	TaskReminderDays int // ключ отсутствует — 1
}

func LoadSettings(ctx context.Context, database *sql.DB) (Settings, error) {
	s := Settings{LateTolerance: 0, TaskReminderDays: 1}

	rows, err := database.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return s, err
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return s, err
		}
		switch k {
		case "late_tolerance":
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				s.LateTolerance = n
			}
		case "task_reminder_days":
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				s.TaskReminderDays = n
			}
		}
	}
	return s, rows.Err()
}

func SetSetting(ctx context.Context, database *sql.DB, key, value string) error {
	_, err := database.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	return err
}

func ListSettings(ctx context.Context, database *sql.DB) (map[string]string, error) {
	rows, err := database.QueryContext(ctx, `SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

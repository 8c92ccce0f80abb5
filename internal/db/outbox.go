package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

type OutboxRow struct {
	ID          int64
	DedupKey    string
	RecipientID int64
	Title       string
	Body        string
	Payload     map[string]string
	Status      string
	Attempts    int
	LastError   *string
	CreatedAt   time.Time
	SentAt      *time.Time
}

// EnqueueNotification — запись в outbox; дубликат по dedup_key молча игнорируется.
// Возвращает true, если строка реально добавлена.
func EnqueueNotification(ctx context.Context, database *sql.DB, dedupKey string, recipientID int64, title, body string, payload map[string]string) (bool, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}
	res, err := database.ExecContext(ctx, `
		INSERT INTO notification_outbox (dedup_key, recipient_id, title, body, payload)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dedup_key) DO NOTHING
	`, dedupKey, recipientID, title, body, raw)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// PendingNotifications — пачка неотправленных, старые вперёд.
func PendingNotifications(ctx context.Context, database *sql.DB, batch int) ([]OutboxRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT id, dedup_key, recipient_id, title, body, payload, status, attempts, last_error, created_at, sent_at
		FROM notification_outbox
		WHERE status = 'pending'
		ORDER BY created_at
		LIMIT $1
	`, batch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutboxRow
	for rows.Next() {
		var r OutboxRow
		var raw []byte
		if err := rows.Scan(&r.ID, &r.DedupKey, &r.RecipientID, &r.Title, &r.Body, &raw,
			&r.Status, &r.Attempts, &r.LastError, &r.CreatedAt, &r.SentAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &r.Payload)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func MarkNotificationSent(ctx context.Context, database *sql.DB, id int64) error {
	_, err := database.ExecContext(ctx, `
		UPDATE notification_outbox SET status = 'sent', sent_at = now() WHERE id = $1
	`, id)
	return err
}

// MarkNotificationFailed — неудачная попытка; после maxAttempts строка уходит в failed.
func MarkNotificationFailed(ctx context.Context, database *sql.DB, id int64, sendErr string, maxAttempts int) error {
	_, err := database.ExecContext(ctx, `
		UPDATE notification_outbox
		SET attempts = attempts + 1,
		    last_error = $1,
		    status = CASE WHEN attempts + 1 >= $2 THEN 'failed' ELSE 'pending' END
		WHERE id = $3
	`, sendErr, maxAttempts, id)
	return err
}

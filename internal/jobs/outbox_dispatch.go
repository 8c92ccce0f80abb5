package jobs

import (
	"context"

	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/notify"
	"github.com/Spok95/school-admin-api/internal/observability"
)

// DispatchOutbox — доставка пачки pending-уведомлений через внешний канал.
// Семантика at-least-once: ошибка отправки оставляет строку в pending до
// исчерпания попыток; сам вызов Send повторно не ретраится.
func DispatchOutbox(ctx context.Context, d Deps, sender notify.Sender, batch, maxAttempts int) error {
	rows, err := db.PendingNotifications(ctx, d.DB, batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	sent := 0
	for _, row := range rows {
		recipient, err := db.GetUserByID(ctx, d.DB, row.RecipientID)
		if err != nil {
			if markErr := db.MarkNotificationFailed(ctx, d.DB, row.ID, "recipient missing", maxAttempts); markErr != nil {
				return markErr
			}
			continue
		}

		msg := notify.Message{Title: row.Title, Body: row.Body, Data: row.Payload}
		if recipient.DeviceKey != nil {
			msg.DeviceKey = *recipient.DeviceKey
		}
		if recipient.TelegramID != nil {
			msg.TelegramID = *recipient.TelegramID
		}
		if msg.DeviceKey == "" && msg.TelegramID == 0 {
			// адресата нет — доставлять нечего, строку закрываем
			if err := db.MarkNotificationSent(ctx, d.DB, row.ID); err != nil {
				return err
			}
			continue
		}

		if err := sender.Send(ctx, msg); err != nil {
			observability.CaptureErr(err)
			if markErr := db.MarkNotificationFailed(ctx, d.DB, row.ID, err.Error(), maxAttempts); markErr != nil {
				return markErr
			}
			continue
		}
		if err := db.MarkNotificationSent(ctx, d.DB, row.ID); err != nil {
			return err
		}
		sent++
	}
	if sent > 0 {
		d.Log.Infow("доставка уведомлений", "sent", sent, "batch", len(rows))
	}
	return nil
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Spok95/school-admin-api/internal/db"
)

// ScanPaymentDeadlines — ежедневный скан платежей с дедлайном завтра.
// На каждую пару (платёж, родитель) кладём строку в outbox; уникальность
// обеспечивает dedup_key, так что повторный скан не плодит дубликатов.
func ScanPaymentDeadlines(ctx context.Context, d Deps) error {
	now := time.Now().In(d.Loc)
	today := dateOnly(now, d.Loc)

	claimed, err := db.ClaimJobRun(ctx, d.DB, "scan_payment_deadlines", today)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	target := today.AddDate(0, 0, 1)
	due, err := db.PaymentsDueOn(ctx, d.DB, target)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, p := range due {
		parent, err := db.GetUserByID(ctx, d.DB, p.ParentID)
		if err != nil {
			if err == db.ErrNotFound {
				continue
			}
			return err
		}
		// без зарегистрированного устройства и telegram слать некуда
		if parent.DeviceKey == nil && parent.TelegramID == nil {
			continue
		}
		key := fmt.Sprintf("payment:%d:parent:%d:%s", p.Payment.ID, parent.ID, target.Format("2006-01-02"))
		ok, err := db.EnqueueNotification(ctx, d.DB, key, parent.ID,
			"Напоминание об оплате",
			fmt.Sprintf("Завтра срок оплаты «%s» за %s.", p.Payment.Title, p.Student),
			map[string]string{"type": "payment", "payment_id": fmt.Sprint(p.Payment.ID)})
		if err != nil {
			return err
		}
		if ok {
			enqueued++
		}
	}
	enqueuedReminders.WithLabelValues("payment").Add(float64(enqueued))
	d.Log.Infow("скан дедлайнов платежей", "target", target.Format("2006-01-02"), "enqueued", enqueued)
	return nil
}

// ScanTaskDeadlines — задания с дедлайном через task_reminder_days (по умолчанию 1).
func ScanTaskDeadlines(ctx context.Context, d Deps) error {
	now := time.Now().In(d.Loc)
	today := dateOnly(now, d.Loc)

	claimed, err := db.ClaimJobRun(ctx, d.DB, "scan_task_deadlines", today)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	settings, err := db.LoadSettings(ctx, d.DB)
	if err != nil {
		return err
	}
	target := today.AddDate(0, 0, settings.TaskReminderDays)

	due, err := db.TasksDueOn(ctx, d.DB, target)
	if err != nil {
		return err
	}

	enqueued := 0
	for _, t := range due {
		parent, err := db.GetUserByID(ctx, d.DB, t.ParentID)
		if err != nil {
			if err == db.ErrNotFound {
				continue
			}
			return err
		}
		if parent.DeviceKey == nil && parent.TelegramID == nil {
			continue
		}
		key := fmt.Sprintf("task:%d:parent:%d:%s", t.Task.ID, parent.ID, target.Format("2006-01-02"))
		ok, err := db.EnqueueNotification(ctx, d.DB, key, parent.ID,
			"Напоминание о задании",
			fmt.Sprintf("«%s»: срок сдачи %s (%s).", t.Task.Title, target.Format("02.01.2006"), t.Student),
			map[string]string{"type": "task", "task_id": fmt.Sprint(t.Task.ID)})
		if err != nil {
			return err
		}
		if ok {
			enqueued++
		}
	}
	enqueuedReminders.WithLabelValues("task").Add(float64(enqueued))
	d.Log.Infow("скан дедлайнов заданий", "target", target.Format("2006-01-02"), "enqueued", enqueued)
	return nil
}

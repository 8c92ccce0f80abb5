//go:build testutil

package db_test

import (
	"context"
	"testing"

	"github.com/Spok95/school-admin-api/internal/db"
	"github.com/Spok95/school-admin-api/internal/models"
	"github.com/Spok95/school-admin-api/internal/testutil/testdb"
)

func TestEnqueueNotification_Dedup(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	parentID := mustSeedUser(t, h.DB, "Родитель", models.Parent)

	ok, err := db.EnqueueNotification(ctx, h.DB, "payment:1:parent:1:2026-09-01", parentID,
		"Напоминание", "текст", map[string]string{"type": "payment"})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("первая вставка должна пройти")
	}

	ok, err = db.EnqueueNotification(ctx, h.DB, "payment:1:parent:1:2026-09-01", parentID,
		"Напоминание", "текст", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("дубликат по dedup_key должен игнорироваться")
	}

	rows, err := db.PendingNotifications(ctx, h.DB, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("в outbox ожидали 1 строку, получили %d", len(rows))
	}
	if rows[0].Payload["type"] != "payment" {
		t.Fatal("payload не сохранился")
	}
}

func TestMarkNotificationFailed_ExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	h, err := testdb.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	parentID := mustSeedUser(t, h.DB, "Родитель", models.Parent)
	if _, err := db.EnqueueNotification(ctx, h.DB, "k1", parentID, "t", "b", nil); err != nil {
		t.Fatal(err)
	}
	rows, _ := db.PendingNotifications(ctx, h.DB, 1)
	if len(rows) != 1 {
		t.Fatal("ожидали pending-строку")
	}
	id := rows[0].ID

	// первая неудача — остаётся pending
	if err := db.MarkNotificationFailed(ctx, h.DB, id, "boom", 2); err != nil {
		t.Fatal(err)
	}
	rows, _ = db.PendingNotifications(ctx, h.DB, 1)
	if len(rows) != 1 || rows[0].Attempts != 1 {
		t.Fatalf("после первой неудачи строка должна остаться pending с attempts=1")
	}

	// вторая — исчерпаны попытки, уходит в failed
	if err := db.MarkNotificationFailed(ctx, h.DB, id, "boom", 2); err != nil {
		t.Fatal(err)
	}
	rows, _ = db.PendingNotifications(ctx, h.DB, 1)
	if len(rows) != 0 {
		t.Fatal("после исчерпания попыток строка не должна быть pending")
	}

	var status string
	if err := h.DB.QueryRow(`SELECT status FROM notification_outbox WHERE id = $1`, id).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "failed" {
		t.Fatalf("ожидали failed, получили %s", status)
	}
}

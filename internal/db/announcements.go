package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/school-admin-api/internal/models"
)

func CreateAnnouncement(ctx context.Context, database *sql.DB, a models.Announcement) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO announcements (title, body, audience, publish_date, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.Title, a.Body, a.Audience, a.PublishDate, a.CreatedBy).Scan(&id)
	return id, err
}

// ListAnnouncements — опубликованные объявления для аудитории роли.
func ListAnnouncements(ctx context.Context, database *sql.DB, role models.Role, limit, offset int) ([]models.Announcement, error) {
	audience := "all"
	switch role {
	case models.Teacher:
		audience = "teachers"
	case models.Parent:
		audience = "parents"
	case models.RoleStudent:
		audience = "students"
	}
	rows, err := database.QueryContext(ctx, `
		SELECT id, title, body, audience, publish_date, created_by
		FROM announcements
		WHERE publish_date <= CURRENT_DATE AND (audience = 'all' OR audience = $1)
		ORDER BY publish_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`, audience, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Announcement
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.Audience, &a.PublishDate, &a.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Spok95/school-admin-api/internal/models"
)

var ErrNotFound = errors.New("not found")

const userCols = `id, username, password_hash, name, role, is_active, device_key, telegram_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Role,
		&u.IsActive, &u.DeviceKey, &u.TelegramID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByID(ctx context.Context, database *sql.DB, id int64) (*models.User, error) {
	row := database.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func GetUserByUsername(ctx context.Context, database *sql.DB, username string) (*models.User, error) {
	row := database.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func CreateUser(ctx context.Context, database *sql.DB, u models.User) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, name, role, is_active, device_key, telegram_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, u.Username, u.PasswordHash, u.Name, u.Role, u.IsActive, u.DeviceKey, u.TelegramID).Scan(&id)
	return id, err
}

func UpdateUser(ctx context.Context, database *sql.DB, u models.User) error {
	res, err := database.ExecContext(ctx, `
		UPDATE users SET name = $1, role = $2, is_active = $3
		WHERE id = $4
	`, u.Name, u.Role, u.IsActive, u.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDeviceKey — регистрация push-токена устройства (NULL — отвязка).
func SetDeviceKey(ctx context.Context, database *sql.DB, userID int64, key *string) error {
	res, err := database.ExecContext(ctx, `UPDATE users SET device_key = $1 WHERE id = $2`, key, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func ListUsersByRole(ctx context.Context, database *sql.DB, role models.Role) ([]models.User, error) {
	rows, err := database.QueryContext(ctx,
		`SELECT `+userCols+` FROM users WHERE role = $1 ORDER BY name`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

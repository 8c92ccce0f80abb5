package db

import (
	"context"
	"database/sql"

	"golang.org/x/crypto/bcrypt"
)

// EnsureAdmin — учётка администратора при первом запуске на пустой базе.
// Повторный вызов ничего не делает.
func EnsureAdmin(ctx context.Context, database *sql.DB, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	var exists bool
	if err := database.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE role = 'admin')`).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = database.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, name, role, is_active)
		VALUES ($1, $2, 'Administrator', 'admin', TRUE)
		ON CONFLICT (username) DO NOTHING
	`, username, string(hash))
	return err
}

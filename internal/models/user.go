package models

import "time"

type Role string

const (
	Admin   Role = "admin"
	Teacher Role = "teacher"
	Parent  Role = "parent"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case Admin, Teacher, Parent, RoleStudent:
		return true
	}
	return false
}

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Name         string    `db:"name"`
	Role         Role      `db:"role"`
	IsActive     bool      `db:"is_active"`
	DeviceKey    *string   `db:"device_key"`
	TelegramID   *int64    `db:"telegram_id"`
	CreatedAt    time.Time `db:"created_at"`
}

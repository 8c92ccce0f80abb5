package ctxutil

import (
	"context"

	"github.com/Spok95/school-admin-api/internal/models"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyUserID key = iota
	keyRole
	keyOpName
)

// WithUserID /UserID — id аутентифицированного пользователя из токена
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserID(ctx context.Context) (int64, bool) {
	v := ctx.Value(keyUserID)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// WithRole /Role — роль пользователя из токена
func WithRole(ctx context.Context, role models.Role) context.Context {
	return context.WithValue(ctx, keyRole, role)
}

func Role(ctx context.Context) (models.Role, bool) {
	v := ctx.Value(keyRole)
	if v == nil {
		return "", false
	}
	r, ok := v.(models.Role)
	return r, ok
}

// WithOp /Op — имя операции (для логов/трейса)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

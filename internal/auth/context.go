package auth

import (
	"context"
	"errors"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxUserType
	ctxPermissions
)

func WithIdentity(ctx context.Context, userID, userType string, permissions []string) context.Context {
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxUserType, userType)
	ctx = context.WithValue(ctx, ctxPermissions, permissions)
	return ctx
}

func UserID(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserID)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_id not in context")
}

func UserType(ctx context.Context) (string, error) {
	v := ctx.Value(ctxUserType)
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("user_type not in context")
}

// Permissions returns the raw permission tokens of the caller; nil when absent.
func Permissions(ctx context.Context) []string {
	v, _ := ctx.Value(ctxPermissions).([]string)
	return v
}

package authz

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
)

// WithIdentity stores the authenticated user's identity on the context.
func WithIdentity(ctx context.Context, userID int64, username string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	if username != "" {
		ctx = context.WithValue(ctx, usernameKey, username)
	}
	return ctx
}

func UserIDFromRequest(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value(userIDKey).(int64)
	if !ok || uid == 0 {
		return 0, false
	}
	return uid, true
}

func UsernameFromRequest(r *http.Request) (string, bool) {
	name, ok := r.Context().Value(usernameKey).(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

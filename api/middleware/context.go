package middleware

import "context"

type contextKey string

const (
	ctxUserID   contextKey = "user_id"
	ctxRole     contextKey = "actor_role"
	ctxEmail    contextKey = "email"
	ctxAccessID contextKey = "access_id"
)

func UserIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxUserID)
}

func RoleFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxRole)
}

func EmailFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxEmail)
}

// AccessIDFromContext returns the jti of the access token that authenticated the request.
func AccessIDFromContext(ctx context.Context) string {
	return stringValue(ctx, ctxAccessID)
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	return withValue(ctx, ctxRole, role)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

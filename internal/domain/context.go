package domain

import "context"

type contextKey string

const callerKey contextKey = "caller"

// WithCaller attaches the caller identifier (the end user on whose behalf a
// request runs) to the context. The rate limiter keys admission by caller.
func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerKey, callerID)
}

// CallerFromContext returns the caller identifier, or "" when absent.
func CallerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(callerKey).(string); ok {
		return v
	}
	return ""
}

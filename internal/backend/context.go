package backend

import "context"

type contextKey string

const (
	contextKeyToken     contextKey = "backend_token"
	contextKeyRequestID contextKey = "backend_request_id"
)

// WithToken attaches the caller's bearer token to ctx for outgoing calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKeyToken, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyToken).(string)
	return token
}

// WithRequestID attaches a correlation id forwarded as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

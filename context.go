package authcore

import "context"

type clientIPContextKey struct{}

// WithClientIP attaches the caller's network address to ctx. The Engine
// keys its sliding-window rate limits on it; without it, limits fall back
// to the request identifier, which a distributed caller can spread across.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

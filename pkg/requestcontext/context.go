// Package requestcontext carries request-scoped values from middleware to
// services without importing net/http. Tests set values with the With*
// functions directly.
package requestcontext

import (
	"context"
	"time"

	id "yksilo/pkg/domain"
)

type key int

const (
	keyYksiloID key = iota
	keyAuthority
	keyClientIP
	keyUserAgent
	keyRequestID
	keyRequestTime
)

func value[T any](ctx context.Context, k key) T {
	v, _ := ctx.Value(k).(T)
	return v
}

// YksiloID returns the signed-in individual, or the nil id when the request is
// not session-authenticated.
func YksiloID(ctx context.Context) id.YksiloID { return value[id.YksiloID](ctx, keyYksiloID) }

func WithYksiloID(ctx context.Context, yksiloID id.YksiloID) context.Context {
	return context.WithValue(ctx, keyYksiloID, yksiloID)
}

// Authority is the role granted by whichever gate admitted the request,
// e.g. ROLE_ADMIN or the partner API role.
func Authority(ctx context.Context) string { return value[string](ctx, keyAuthority) }

func WithAuthority(ctx context.Context, authority string) context.Context {
	return context.WithValue(ctx, keyAuthority, authority)
}

func ClientIP(ctx context.Context) string  { return value[string](ctx, keyClientIP) }
func UserAgent(ctx context.Context) string { return value[string](ctx, keyUserAgent) }

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	return context.WithValue(context.WithValue(ctx, keyClientIP, clientIP), keyUserAgent, userAgent)
}

func RequestID(ctx context.Context) string { return value[string](ctx, keyRequestID) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

// Now returns the time stamped on the request, or the wall clock outside a
// request (background jobs, tests without WithTime).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(keyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, keyRequestTime, t)
}

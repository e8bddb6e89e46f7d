// Package requestcontext carries request-scoped values (request id, clock,
// calling service and the end user's client metadata) without importing
// net/http. Middleware sets them; services and workers read them.
//
//	ctx = requestcontext.WithTime(ctx, fixedTime) // tests and batch workers
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	callerKey key = iota
	clientIPKey
	userAgentKey
	requestIDKey
	requestTimeKey
)

func stringValue(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// Caller is the subject of the service token that authenticated the request.
func Caller(ctx context.Context) string { return stringValue(ctx, callerKey) }

func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// ClientIP is the end user's address as forwarded by the web layer.
func ClientIP(ctx context.Context) string { return stringValue(ctx, clientIPKey) }

// UserAgent is the end user's User-Agent as forwarded by the web layer.
func UserAgent(ctx context.Context) string { return stringValue(ctx, userAgentKey) }

func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func RequestID(ctx context.Context) string { return stringValue(ctx, requestIDKey) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the request's clock. Outside a request it falls back to time.Now.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
